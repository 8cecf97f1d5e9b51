package main

import (
	"io"

	"github.com/linuxkit/cvd/src/cmd/cvd/commands"
	"github.com/linuxkit/cvd/src/cmd/cvd/config"
	"github.com/linuxkit/cvd/src/cmd/cvd/instances"
	"github.com/linuxkit/cvd/src/cmd/cvd/util"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newCmd(envs util.Envs, out io.Writer) *cobra.Command {
	var (
		flagQuiet       bool
		flagVerbose     int
		flagVerboseName = "verbose"
		cfg             config.GlobalConfig
	)
	cmd := &cobra.Command{
		Use:               "cvd [flags] <command> [args...]",
		Short:             "manage the local fleet of virtual devices",
		Args:              cobra.ArbitraryArgs,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(config.DefaultPath(envs["HOME"]), envs); err != nil {
				return err
			}

			// Set up logging
			return util.SetupLogging(flagQuiet, flagVerbose, cmd.Flag(flagVerboseName).Changed)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := commands.NewCommandRequest(args, envs)
			if err != nil {
				return err
			}
			storage := instances.NewFileStorage(cfg.StorePath())
			log.Debugf("using instance database %s", storage.Path())
			registry := commands.NewDefaultRegistry(instances.NewInstanceDatabase(storage), out)
			return registry.Execute(req)
		},
	}
	// everything after the subcommand belongs to it
	cmd.Flags().SetInterspersed(false)
	cmd.SetOut(out)

	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet execution")
	cmd.PersistentFlags().IntVarP(&flagVerbose, flagVerboseName, "v", 1, "Verbosity of logging: 0 = quiet, 1 = info, 2 = debug, 3 = trace. Default is info. Setting it explicitly will create structured logging lines.")

	return cmd
}
