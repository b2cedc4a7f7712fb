package cmdsite

import (
	"bytes"
	"io"
	"os/exec"
	"strings"

	"k8s.io/klog"
)

// RunCommand abstracts running an external command so that tests can inject
// canned outputs via NewTester.
type RunCommand func(name string, args []string, stdout, stderr io.Writer, env map[string]string) error

type CommandSite struct {
	RunCmd RunCommand

	Env map[string]string
}

func New() *CommandSite {
	return &CommandSite{
		RunCmd: DefaultRunCommand,
		Env:    map[string]string{},
	}
}

func DefaultRunCommand(name string, args []string, stdout, stderr io.Writer, env map[string]string) error {
	cmd := exec.Command(name, args...)
	for n, v := range env {
		cmd.Env = append(cmd.Env, n+"="+v)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func (s *CommandSite) RunCommand(cmd string, args []string, stdout, stderr io.Writer) error {
	return s.RunCmd(cmd, args, stdout, stderr, s.Env)
}

func (s *CommandSite) CaptureStrings(binary string, args []string) (string, string, error) {
	stdout, stderr, err := s.CaptureBytes(binary, args)

	var so, se string

	if stdout != nil {
		so = string(stdout)
	}

	if stderr != nil {
		se = string(stderr)
	}

	return so, se, err
}

func (s *CommandSite) CaptureBytes(binary string, args []string) ([]byte, []byte, error) {
	klog.V(1).Infof("running %s %s", binary, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	err := s.RunCommand(binary, args, &stdout, &stderr)
	if err != nil {
		klog.V(1).Info(stderr.String())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
