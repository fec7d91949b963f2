// Command bemscatter runs the boundary element scattering drivers: plane wave
// scattering by dielectric spheres and the potential decay of a sphere.
package main

import (
	"fmt"
	"os"

	"github.com/notargets/BEMKernel/config"
	"github.com/notargets/BEMKernel/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by every subcommand after the persistent
// pre-run has loaded the configuration
type app struct {
	configPath  string
	logLevel    string
	deviceProps string

	cfg     *config.Config
	logger  *zap.Logger
	restore func()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "bemscatter",
		Short: "Boundary element electromagnetic scattering",
		Long: `bemscatter assembles and solves boundary integral equations for
time-harmonic Maxwell problems on triangulated spheres.

Scenarios are read from a YAML file; unset fields keep their defaults.
BEMSCATTER_ASSEMBLER, BEMSCATTER_DEVICE and BEMSCATTER_LOG_LEVEL override
the file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.restore != nil {
				a.restore()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "bemscatter.yaml", "scenario configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.deviceProps, "device", "", `OCCA device properties, e.g. '{"mode": "OpenMP"}'`)

	root.AddCommand(newDielectricCmd(a), newPotentialCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("device") {
		cfg.Assembly.Device = a.deviceProps
	}
	logger, restore, err := logging.Install(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.restore = cfg, logger, restore
	logger.Debug("configuration loaded", zap.String("path", a.configPath))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
