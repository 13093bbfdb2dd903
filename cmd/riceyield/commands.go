package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/sartorproj/riceyield/config"
	"github.com/sartorproj/riceyield/pipeline"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigPath string
	Quiet      bool
}

// runFlags override configuration values when set on the command line.
type runFlags struct {
	Input    string
	CSV      string
	Output   string
	Province string
	Horizon  int
}

func newRootCmd() *cobra.Command {
	var global globalFlags

	root := &cobra.Command{
		Use:   "riceyield",
		Short: "Clean quarterly rice-yield data and forecast it with SARIMA",
		Long: `riceyield reads a provincial rice-yield workbook laid out with a year
header row, a period label row and a yield row, writes a tidy CSV, selects a
seasonal ARIMA model and forecasts the coming quarters.

Examples:
  riceyield run --input rice.xlsx --province "Nueva Ecija" --output out
  riceyield clean --input rice.xlsx --output out
  riceyield forecast --csv out/rice_yield_clean.csv --horizon 12`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&global.Quiet, "quiet", "q", false, "suppress progress logging")

	root.AddCommand(newRunCmd(&global), newCleanCmd(&global), newForecastCmd(&global))
	return root
}

func newRunCmd(global *globalFlags) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean the workbook, fit a model, forecast and plot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, flags)
			if err != nil {
				return err
			}
			_, err = pipeline.Run(cmd.Context(), cfg, newLogger(cmd, global))
			return err
		},
	}
	cmd.Flags().StringVar(&flags.Input, "input", "", "workbook path (.xlsx)")
	cmd.Flags().StringVar(&flags.Output, "output", "", "output directory")
	cmd.Flags().StringVar(&flags.Province, "province", "", "province label of the yield row")
	cmd.Flags().IntVar(&flags.Horizon, "horizon", 0, "quarters to forecast")
	return cmd
}

func newCleanCmd(global *globalFlags) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Convert the workbook to a tidy Date,Year,Quarter,Yield CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, flags)
			if err != nil {
				return err
			}
			if cfg.Input.Path == "" {
				return errMissing("--input")
			}
			_, err = pipeline.Clean(cfg, newLogger(cmd, global))
			return err
		},
	}
	cmd.Flags().StringVar(&flags.Input, "input", "", "workbook path (.xlsx)")
	cmd.Flags().StringVar(&flags.Output, "output", "", "output directory")
	cmd.Flags().StringVar(&flags.Province, "province", "", "province label of the yield row")
	return cmd
}

func newForecastCmd(global *globalFlags) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Fit and forecast from an existing tidy CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, flags)
			if err != nil {
				return err
			}
			if cfg.Input.CSV == "" {
				return errMissing("--csv")
			}
			_, err = pipeline.Run(cmd.Context(), cfg, newLogger(cmd, global))
			return err
		},
	}
	cmd.Flags().StringVar(&flags.CSV, "csv", "", "tidy CSV with Date,Year,Quarter,Yield")
	cmd.Flags().StringVar(&flags.Output, "output", "", "output directory")
	cmd.Flags().StringVar(&flags.Province, "province", "", "series name used in plots and the report")
	cmd.Flags().IntVar(&flags.Horizon, "horizon", 0, "quarters to forecast")
	return cmd
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command, global *globalFlags, flags runFlags) (*config.Config, error) {
	cfg := config.Default()
	if global.ConfigPath != "" {
		loaded, err := config.Load(global.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("input") {
		cfg.Input.Path = flags.Input
		cfg.Input.CSV = ""
	}
	if changed("csv") {
		cfg.Input.CSV = flags.CSV
	}
	if changed("output") {
		cfg.Output.Dir = flags.Output
	}
	if changed("province") {
		cfg.Input.Province = flags.Province
		if cfg.Input.CSV == "" {
			// A named province is located by label rather than row number.
			cfg.Input.YieldRow = 0
		}
	}
	if changed("horizon") {
		cfg.Forecast.Horizon = flags.Horizon
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, global *globalFlags) *log.Logger {
	var w io.Writer = cmd.ErrOrStderr()
	if global.Quiet {
		w = io.Discard
	}
	return log.New(w, "", log.LstdFlags)
}

func errMissing(flag string) error {
	return fmt.Errorf("%s is required", flag)
}
