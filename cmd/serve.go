package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobber-ai/jobber-core/internal/ai/gemini"
	"github.com/jobber-ai/jobber-core/internal/api"
	"github.com/jobber-ai/jobber-core/internal/application"
	"github.com/jobber-ai/jobber-core/internal/autopilot"
	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/drafts"
	"github.com/jobber-ai/jobber-core/internal/events"
	"github.com/jobber-ai/jobber-core/internal/logger"
	"github.com/jobber-ai/jobber-core/internal/runner"
	"github.com/jobber-ai/jobber-core/internal/scoring"
	"github.com/jobber-ai/jobber-core/internal/secrets"
	"github.com/jobber-ai/jobber-core/internal/workspace"
)

const (
	defaultListenAddr    = ":8787"
	defaultSweepInterval = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestration engine and its HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", defaultListenAddr, "address for the HTTP API")

	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobber-core", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	generator := buildGenerator(ctx, config.AI, logger)

	thresholds := autopilot.DefaultThresholds()
	if config.Autopilot != nil {
		thresholds = config.Autopilot.Normalize()
	}

	logger.Info("autopilot thresholds",
		zap.Int("auto_apply", thresholds.AutoApply),
		zap.Int("approval", thresholds.Approval),
	)

	evaluator := scoring.NewHeuristic(logger)
	drafter := drafts.New(nil, logger)
	if generator != nil {
		evaluatorOpts := []scoring.HeuristicOption{scoring.WithGenerator(generator)}
		if config.AI != nil && config.AI.Gemini != nil && config.AI.Gemini.MaxLogLength > 0 {
			evaluatorOpts = append(evaluatorOpts, scoring.WithMaxLogLength(config.AI.Gemini.MaxLogLength))
		}
		evaluator = scoring.NewHeuristic(logger, evaluatorOpts...)
		drafter = drafts.New(generator, logger)
	}

	coordinator := runner.NewCoordinator(buildRunnerOptions(config.Runner, logger)...)
	broker := events.NewBroker(logger)

	engine := workspace.New(workspace.Deps{
		Profile:    config.Profile,
		Thresholds: thresholds,
		Catalog:    catalog.New(),
		Ledger:     application.NewLedger(),
		Runner:     coordinator,
		Events:     broker,
		Evaluator:  evaluator,
		Drafter:    drafter,
		Logger:     logger,
	})

	go sweepLeases(engine, sweepInterval(config.Runner, logger), logger)

	listen := config.Listen
	if listen == "" {
		listen = viper.GetString("listen")
	}
	if listen == "" {
		listen = defaultListenAddr
	}

	server := api.New(engine, broker, logger)
	if err := server.Listen(listen); err != nil {
		logger.Fatal("api server stopped", zap.Error(err))
	}
}

// buildGenerator returns the Gemini content generator, or nil when AI is
// disabled or misconfigured. The engine degrades to deterministic fallbacks
// without one.
func buildGenerator(ctx context.Context, cfg *AIConfig, log *zap.Logger) *gemini.Generator {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		log.Warn("unsupported ai provider, continuing without ai", zap.String("provider", cfg.Provider))
		return nil
	}

	if cfg.Gemini == nil {
		log.Warn("gemini configuration is missing, continuing without ai")
		return nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		log.Warn("loading gemini api key failed, continuing without ai",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
		return nil
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, log)
	if err != nil {
		log.Warn("creating gemini generator failed, continuing without ai", zap.Error(err))
		return nil
	}

	log.Info("ai generation enabled", zap.String("model", generator.Model()))
	return generator
}

func buildRunnerOptions(cfg *RunnerConfig, log *zap.Logger) []runner.Option {
	opts := []runner.Option{runner.WithLogger(log)}
	if cfg == nil {
		return opts
	}

	if ttl := parseDuration(cfg.LeaseTTL, 0, log, "runner.lease-ttl"); ttl > 0 {
		opts = append(opts, runner.WithLeaseTTL(ttl))
	}
	if cfg.ClaimRate > 0 {
		opts = append(opts, runner.WithClaimRate(cfg.ClaimRate, cfg.ClaimBurst))
	}

	return opts
}

func sweepInterval(cfg *RunnerConfig, log *zap.Logger) time.Duration {
	if cfg == nil {
		return defaultSweepInterval
	}

	if d := parseDuration(cfg.SweepInterval, 0, log, "runner.sweep-interval"); d > 0 {
		return d
	}
	return defaultSweepInterval
}

func parseDuration(raw string, fallback time.Duration, log *zap.Logger, key string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		if log != nil {
			log.Warn("invalid duration, using default",
				zap.String("key", key),
				zap.String("value", raw),
			)
		}
		return fallback
	}
	return d
}

func sweepLeases(engine *workspace.Workspace, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for now := range ticker.C {
		requeued, failed := engine.SweepLeases(now.UTC())
		if requeued > 0 || failed > 0 {
			log.Info("lease sweep",
				zap.Int("requeued", requeued),
				zap.Int("failed", failed),
			)
		}
	}
}
