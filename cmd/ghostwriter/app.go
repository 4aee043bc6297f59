package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shubh-37/ghostwriter/config"
	"github.com/shubh-37/ghostwriter/internal/agents"
	"github.com/shubh-37/ghostwriter/internal/api"
	"github.com/shubh-37/ghostwriter/internal/auth"
	"github.com/shubh-37/ghostwriter/internal/database"
	"github.com/shubh-37/ghostwriter/internal/engagement"
	"github.com/shubh-37/ghostwriter/internal/generation"
	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/shubh-37/ghostwriter/internal/metrics"
	"github.com/shubh-37/ghostwriter/internal/plans"
	"github.com/shubh-37/ghostwriter/internal/posts"
	slackpkg "github.com/shubh-37/ghostwriter/internal/slack"
	"github.com/shubh-37/ghostwriter/internal/style"
	"golang.org/x/sync/errgroup"
)

type services struct {
	plans      *plans.Tracker
	engagement *engagement.Aggregator
	generation *generation.Service
	posts      *posts.Service
	style      *style.Service
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("ghostwriter starting", "version", Version, "environment", cfg.Environment)

	db, err := database.NewDB(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTables(ctx); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	generator, err := newGenerator(cfg, log)
	if err != nil {
		return err
	}
	svc := newServices(cfg, db, generator, log, m)

	authProvider, err := auth.NewProvider(cfg.JWTSecret, 0)
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		Plans:       svc.plans,
		Engagement:  svc.engagement,
		Generation:  svc.generation,
		Posts:       svc.posts,
		Style:       svc.style,
		Auth:        authProvider,
		Metrics:     m,
		Log:         log.Named("api"),
		Health:      db.Health,
		CORSOrigins: cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("api listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down api server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.SlackEnabled() {
		slackServer, err := newSlackServer(ctx, cfg, svc, log)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return slackServer.Start(gctx, cfg.SlackPort)
		})
	} else {
		log.Info("slack bot disabled, SLACK_BOT_TOKEN not set")
	}

	return g.Wait()
}

func newServices(cfg *config.Config, db *database.DB, generator generation.TextGenerator, log *logger.Logger, m *metrics.Metrics) *services {
	planRepo := database.NewPlanRepository(db)
	metricsRepo := database.NewMetricsRepository(db)
	postRepo := database.NewPostRepository(db)
	settingsRepo := database.NewSettingsRepository(db)

	opts := engagement.DefaultOptions()
	opts.LearningThreshold = cfg.LearningThreshold
	opts.TopMinScore = cfg.TopPostsMinScore
	opts.TopLimit = cfg.TopPostsLimit

	tracker := plans.NewTracker(planRepo, nil, log.Named("plans"))
	aggregator := engagement.NewAggregator(metricsRepo, postRepo, opts, nil, log.Named("engagement"), m)
	styles := style.NewService(settingsRepo, log.Named("style"))

	return &services{
		plans:      tracker,
		engagement: aggregator,
		generation: generation.NewService(tracker, aggregator, styles, generator, postRepo, log.Named("generation"), m),
		posts:      posts.NewService(postRepo, log.Named("posts")),
		style:      styles,
	}
}

func newGenerator(cfg *config.Config, log *logger.Logger) (generation.TextGenerator, error) {
	if cfg.AnthropicKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set, using the offline template generator")
		return agents.MockGenerator{}, nil
	}
	return agents.NewContentGeneratorAgent(agents.AnthropicConfig{
		APIKey: cfg.AnthropicKey,
		Model:  cfg.AnthropicModel,
	}, log.Named("anthropic"))
}

func newSlackServer(ctx context.Context, cfg *config.Config, svc *services, log *logger.Logger) (*slackpkg.Server, error) {
	client, err := slackpkg.NewClient(ctx, cfg.SlackToken)
	if err != nil {
		return nil, err
	}

	slackLog := log.Named("slack")
	reactions := slackpkg.NewReactionHandler(svc.engagement, client.BotID(), slackLog)
	commands := slackpkg.NewCommandHandler(client, svc.plans, svc.generation, svc.engagement, svc.style, reactions, slackLog)
	messages := slackpkg.NewMessageHandler(client.BotID(), commands, slackLog)

	return slackpkg.NewServer(messages, reactions, cfg.SlackSigningSecret, slackLog), nil
}
