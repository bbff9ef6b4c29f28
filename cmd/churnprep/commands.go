package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paveg/churnprep"
	"github.com/paveg/churnprep/internal/config"
	"github.com/paveg/churnprep/internal/logging"
	"github.com/paveg/churnprep/internal/prep"
	"github.com/paveg/churnprep/internal/version"
)

type globalFlags struct {
	configFile  string
	envFiles    []string
	logLevel    string
	output      string
	metricsFile string
}

// runEnv is what every pipeline command needs: the loaded configuration, a
// logger tagged with the run id and the pipeline itself.
type runEnv struct {
	cfg      config.Config
	logger   *zap.Logger
	pipeline *churnprep.Pipeline
	metrics  string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "churnprep",
		Short:         "Clean and prepare telecom customer data for churn modeling",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "configuration file (.json, .yaml or .yml)")
	pf.StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading CHURNPREP_* variables")
	pf.StringVar(&flags.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	pf.StringVarP(&flags.output, "output", "o", "", "override output.path")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "write stage metrics in Prometheus textfile format")

	root.AddCommand(
		newPreprocessCmd(flags, stderr),
		newPrepareCmd(flags, stderr),
		newEvaluateCmd(flags, stderr),
		newVersionCmd(),
	)
	return root
}

func newPreprocessCmd(flags *globalFlags, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess",
		Short: "Read, clean and merge the raw tables and write the feature table",
		RunE: withEnv(flags, stderr, func(cmd *cobra.Command, env *runEnv) error {
			result, err := env.pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows x %d columns to %s\n",
				result.Frame.Len(), result.Frame.Width(), env.cfg.Output.Path)
			return env.finish()
		}),
	}
}

func newPrepareCmd(flags *globalFlags, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Preprocess, then split, encode and scale for modeling",
		RunE: withEnv(flags, stderr, func(cmd *cobra.Command, env *runEnv) error {
			data, err := env.prepare(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SET\tROWS\tFEATURES")
			fmt.Fprintf(w, "train\t%d\t%d\n", data.TrainScaled.Len(), data.TrainScaled.Width())
			fmt.Fprintf(w, "test\t%d\t%d\n", data.TestScaled.Len(), data.TestScaled.Width())
			if err := w.Flush(); err != nil {
				return err
			}
			return env.finish()
		}),
	}
}

func newEvaluateCmd(flags *globalFlags, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Prepare the data and score the baseline classifiers",
		RunE: withEnv(flags, stderr, func(cmd *cobra.Command, env *runEnv) error {
			data, err := env.prepare(cmd.Context())
			if err != nil {
				return err
			}
			evaluations, err := env.pipeline.Evaluate(data)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tROC-AUC\tF1\tACCURACY")
			for _, e := range evaluations {
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\n", e.Model, e.Metrics.ROCAUC, e.Metrics.F1, e.Metrics.Accuracy)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return env.finish()
		}),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info().String())
		},
	}
}

// loggedError marks an error already written to the run logger.
type loggedError struct{ error }

func (e loggedError) Unwrap() error { return e.error }

// withEnv sets up the run environment for fn and logs its error once.
func withEnv(
	flags *globalFlags, stderr io.Writer, fn func(cmd *cobra.Command, env *runEnv) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := setup(flags, stderr)
		if err != nil {
			return err
		}
		defer env.close()

		if err := fn(cmd, env); err != nil {
			env.logger.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return loggedError{err}
		}
		return nil
	}
}

func setup(flags *globalFlags, stderr io.Writer) (*runEnv, error) {
	if err := config.LoadDotEnv(flags.envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.output != "" {
		cfg.Output.Path = flags.output
	}
	metricsFile := cfg.Metrics.File
	if flags.metricsFile != "" {
		metricsFile = flags.metricsFile
	}
	if metricsFile != "" {
		cfg.Metrics.Enabled = true
	}

	logger, err := logging.NewWithWriter(cfg.Logging.Level, cfg.Logging.Format, stderr)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	pipeline, err := churnprep.New(cfg, churnprep.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded",
		zap.String("source", cfg.Input.Source),
		zap.String("policy", cfg.Cleaning.MonthToMonthPolicy),
		zap.String("output", cfg.Output.Path),
		zap.Bool("release", version.IsRelease()))

	return &runEnv{cfg: cfg, logger: logger, pipeline: pipeline, metrics: metricsFile}, nil
}

func (e *runEnv) prepare(ctx context.Context) (*prep.Data, error) {
	raw, err := e.pipeline.Load(ctx)
	if err != nil {
		return nil, err
	}
	result, err := e.pipeline.Preprocess(ctx, raw)
	if err != nil {
		return nil, err
	}
	return e.pipeline.Prepare(result.Frame)
}

func (e *runEnv) finish() error {
	if e.metrics == "" {
		return nil
	}
	if err := e.pipeline.Metrics().WriteTextfile(e.metrics); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	e.logger.Info("metrics written", zap.String("path", e.metrics))
	return nil
}

func (e *runEnv) close() {
	e.pipeline.Close()
	_ = e.logger.Sync()
}
