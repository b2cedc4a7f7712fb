package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/klogr"

	"github.com/cchantep/orm/pkg/config"
	"github.com/cchantep/orm/pkg/loginfra"
	"github.com/cchantep/orm/pkg/telemetry"
	"github.com/cchantep/orm/pkg/updater"
)

func Execute() {
	log := klogr.New()

	var configFile string
	var noRun bool

	cmd := cobra.Command{
		Use:   "orm",
		Short: "Update agent for a locally-installed managed application",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(configFile)
			if err != nil {
				return err
			}

			log.Info("software management", "objectType", conf.ObjectType)

			metrics := telemetry.New(conf.ObjectType)

			u, err := updater.New(updater.Spec{
				ObjectType:      conf.ObjectType,
				ManifestURL:     conf.ManifestURL,
				ApplicationName: conf.ApplicationName,
				LocalPrefix:     conf.LocalPrefix,
			}, updater.Logger(log), updater.Metrics(metrics))
			if err != nil {
				return err
			}

			status, err := u.Run()

			if conf.PushGateway != "" {
				if perr := metrics.Push(conf.PushGateway); perr != nil {
					log.Info("fails to push metrics", "warning", perr.Error(), "endpoint", conf.PushGateway)
				}
			}

			if err != nil {
				return err
			}

			switch s := status.(type) {
			case *updater.NoUpdate:
				log.Info("no update", "reason", s.Reason)

				if noRun {
					return nil
				}

				log.Info("executing the current version")

				exitStatus, err := u.RunCurrent()
				if err != nil {
					return err
				}

				log.Info("exited", "status", exitStatus)
			case *updater.AppTerminated:
				log.Info("updated application successfully terminated", "status", s.ExitStatus)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "path to an optional YAML config file; ORM_* env vars apply either way")
	cmd.Flags().BoolVar(&noRun, "no-run", false, "only check for and apply updates, do not run the application afterwards")

	cmd.SilenceErrors = true

	fs := loginfra.Init()

	// Hand parsing of remaining flags to pflag and cobra
	pflag.CommandLine.AddGoFlagSet(fs)

	if err := cmd.Execute(); err != nil {
		log.Error(err, err.Error())
		os.Exit(1)
	}
}
