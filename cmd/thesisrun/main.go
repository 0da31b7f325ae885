package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/convictionlabs/thesisrun/internal/application"
	ifhttp "github.com/convictionlabs/thesisrun/internal/interfaces/http"
	"github.com/convictionlabs/thesisrun/internal/persistence"
	"github.com/convictionlabs/thesisrun/internal/report"
)

const (
	appName = "thesisrun"
	version = "v0.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// Local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Turn an investment thesis into sized, tradeable positions",
		Version: version,
		Long: `thesisrun runs a free-text investment thesis through discovery,
enrichment, ranking, and sizing, and prints budgeted position
recommendations alongside everything that could not be resolved.`,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newServeCmd())

	cobra.OnInitialize(func() {
		levelStr, _ := rootCmd.PersistentFlags().GetString("log-level")
		if level, err := zerolog.ParseLevel(levelStr); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend [thesis]",
		Short: "Run one thesis through the full pipeline",
		Long: `Run a thesis end to end and print the recommendation report.
The thesis is taken from the argument, or from --thesis-file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRecommend,
	}
	cmd.Flags().Float64("budget", 0, "Explicit budget in USD (0 derives from portfolio)")
	cmd.Flags().String("portfolio", "", "Path to portfolio snapshot JSON")
	cmd.Flags().String("thesis-file", "", "Read the thesis from a file instead of the argument")
	cmd.Flags().String("output", "text", "Report format (text|json)")
	cmd.Flags().Int("top-n", 0, "Truncate recommendations to the top N")
	cmd.Flags().String("history-dsn", "", "Postgres DSN for run history (disabled when empty)")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Overall run timeout")
	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}

	thesis, err := resolveThesis(cmd, args)
	if err != nil {
		return err
	}

	portfolioPath, _ := cmd.Flags().GetString("portfolio")
	portfolio, err := application.LoadPortfolio(portfolioPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openHistory(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	pipeline := application.BuildPipeline(cfg, store)

	budget, _ := cmd.Flags().GetFloat64("budget")
	topN, _ := cmd.Flags().GetInt("top-n")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result, err := pipeline.Run(ctx, application.RunOptions{
		Thesis:    thesis,
		Portfolio: portfolio,
		Budget:    budget,
		TopN:      topN,
	})
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("output")
	return report.Render(cmd.OutOrStdout(), result, report.Format(format))
}

func resolveThesis(cmd *cobra.Command, args []string) (string, error) {
	if path, _ := cmd.Flags().GetString("thesis-file"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read thesis file: %w", err)
		}
		return string(b), nil
	}
	if len(args) == 1 {
		return args[0], nil
	}
	return "", fmt.Errorf("a thesis argument or --thesis-file is required")
}

// openHistory returns a nil store when history is disabled. The returned
// closer is always safe to call.
func openHistory(cmd *cobra.Command, cfg *application.Config) (application.RunStore, func(), error) {
	dsn, _ := cmd.Flags().GetString("history-dsn")
	if dsn == "" {
		dsn = cfg.HistoryDSN
	}
	if dsn == "" {
		return nil, func() {}, nil
	}
	repo, err := persistence.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() { repo.Close() }, nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long:  "Expose POST /v1/recommendations, GET /health, and GET /metrics.",
		RunE:  runServe,
	}
	cmd.Flags().String("host", "127.0.0.1", "Listen host")
	cmd.Flags().Int("port", 8080, "Listen port")
	cmd.Flags().String("history-dsn", "", "Postgres DSN for run history (disabled when empty)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openHistory(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	pipeline := application.BuildPipeline(cfg, store)

	serverCfg := ifhttp.DefaultServerConfig()
	serverCfg.Host, _ = cmd.Flags().GetString("host")
	serverCfg.Port, _ = cmd.Flags().GetInt("port")
	server := ifhttp.NewServer(serverCfg, pipeline)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
