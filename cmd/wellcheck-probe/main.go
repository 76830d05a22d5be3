package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/wellcheck/internal/adapters/classifier/backend"
	service "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/config"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/probe"
	"github.com/okian/wellcheck/pkg/logger"
)

const (
	defaultWorkersPerCPU = 2
	defaultRunTimeout    = 10 * time.Minute
)

var version = "dev" // Overwritten at build time

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "wellcheck-probe",
		Short: "Exercise and inspect a wellcheck deployment",
		Long: `wellcheck-probe evaluates single submissions against the configured model
and drives a running wellcheck service with generated submissions, checking
every verdict against the decision rules.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newAssessCmd(),
		newRunCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newAssessCmd() *cobra.Command {
	var (
		file     string
		model    string
		encoding string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Evaluate one submission locally without alerting anyone",
		Long: `Evaluate one submission with the model named by the wellcheck configuration
(WELLCHECK_CONFIG and WELLCHECK_* variables). No alert is sent.

Examples:
  # Evaluate a YAML or JSON submission
  wellcheck-probe assess -f submission.yaml

  # Read from stdin with a different artifact
  cat submission.json | wellcheck-probe assess -f - --model models/stress_tree.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if model != "" {
				cfg.ModelBackend, cfg.ModelPath = config.BackendTree, model
			}
			if encoding != "" {
				cfg.QuestionnaireEncoding = encoding
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			raw, err := probe.ReadSubmission(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			clf, info, err := backend.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}
			engine, err := decision.New(decision.WithClassifier(clf), decision.WithLogger(logger.Named("decision")))
			if err != nil {
				return err
			}
			svc, err := service.New(
				service.WithEngine(engine),
				service.WithEncoding(cfg.Encoding()),
				service.WithModelInfo(info),
				service.WithLogger(logger.Named("assessment")),
			)
			if err != nil {
				return err
			}

			out := svc.Assess(ctx, raw)
			probe.PrintOutcome(cmd.OutOrStdout(), out)
			if !out.OK() {
				return fmt.Errorf("submission %s was not assessed", out.Ref)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Submission file (YAML or JSON); - reads stdin")
	cmd.Flags().StringVar(&model, "model", "", "Tree artifact path; overrides the configured backend")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Questionnaire encoding (ordinal, raw)")
	return cmd
}

func newRunCmd() *cobra.Command {
	cfg := probe.Config{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit generated assessments to a running service and verify the replies",
		Long: `Generate a reproducible batch of ordinary, crisis-text and invalid submissions,
post them concurrently to /api/v1/assessments and check every reply.

Escalated submissions, from crisis text or a High prediction, trigger real
alerts when the service has alert delivery wired. The run refuses such a
service unless --allow-alerts is given.

Examples:
  wellcheck-probe run --url http://localhost:9080 --count 500 --seed 7`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunTimeout)
			defer cancel()

			report, err := probe.Run(ctx, cfg, logger.Named("probe"))
			if err != nil {
				return err
			}
			report.Print(cmd.OutOrStdout())
			if !report.Passed() {
				return fmt.Errorf("probe found %d inconsistent replies and %d failed requests",
					len(report.Violations), report.Stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", probe.DefaultBaseURL, "Base URL of the service")
	cmd.Flags().IntVarP(&cfg.Count, "count", "n", probe.DefaultCount, "Number of submissions to generate")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkersPerCPU, "Number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().Float64Var(&cfg.CrisisRatio, "crisis-ratio", probe.DefaultCrisisRatio, "Share of submissions with crisis language")
	cmd.Flags().Float64Var(&cfg.InvalidRatio, "invalid-ratio", probe.DefaultInvalidRatio, "Share of submissions that must be rejected")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "Generator seed")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", "", "Write the generated cases to this JSON file")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log each inconsistent reply")
	cmd.Flags().BoolVar(&cfg.AllowAlerts, "allow-alerts", false, "Run against a service whose escalations notify real responders")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wellcheck-probe version %s\n", version)
		},
	}
}
