package updater

import (
	"time"

	"github.com/go-logr/logr"
	"github.com/twpayne/go-vfs"

	"github.com/cchantep/orm/pkg/cmdsite"
	"github.com/cchantep/orm/pkg/httpget"
	"github.com/cchantep/orm/pkg/shell"
	"github.com/cchantep/orm/pkg/telemetry"
)

type Option interface {
	SetOption(u *Updater) error
}

func Logger(logger logr.Logger) Option {
	return &loggerOption{l: logger}
}

type loggerOption struct {
	l logr.Logger
}

func (o *loggerOption) SetOption(u *Updater) error {
	u.Logger = o.l
	return nil
}

func FS(fs vfs.FS) Option {
	return &fsOption{f: fs}
}

type fsOption struct {
	f vfs.FS
}

func (o *fsOption) SetOption(u *Updater) error {
	u.fs = o.f
	return nil
}

func Commander(cmdr cmdsite.RunCommand) Option {
	return &cmdrOption{cmdr: cmdr}
}

type cmdrOption struct {
	cmdr cmdsite.RunCommand
}

func (o *cmdrOption) SetOption(u *Updater) error {
	u.cmdr = o.cmdr
	return nil
}

func HTTPGetter(g httpget.Getter) Option {
	return &getterOption{g: g}
}

type getterOption struct {
	g httpget.Getter
}

func (o *getterOption) SetOption(u *Updater) error {
	u.httpGetter = o.g
	return nil
}

func Exec(e shell.Exec) Option {
	return &execOption{e: e}
}

type execOption struct {
	e shell.Exec
}

func (o *execOption) SetOption(u *Updater) error {
	u.exec = o.e
	return nil
}

func Clock(now func() time.Time) Option {
	return &clockOption{now: now}
}

type clockOption struct {
	now func() time.Time
}

func (o *clockOption) SetOption(u *Updater) error {
	u.now = o.now
	return nil
}

func Metrics(m *telemetry.Metrics) Option {
	return &metricsOption{m: m}
}

type metricsOption struct {
	m *telemetry.Metrics
}

func (o *metricsOption) SetOption(u *Updater) error {
	u.metrics = o.m
	return nil
}
