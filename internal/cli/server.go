package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dex-quiz-service/internal/app"
	"dex-quiz-service/internal/config"
	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/fetch"
	"dex-quiz-service/internal/infra/memory"
	"dex-quiz-service/internal/infra/pokeapi"
	pgloader "dex-quiz-service/internal/infra/postgres"
	redissession "dex-quiz-service/internal/infra/redis"
	"dex-quiz-service/internal/logger"
	"dex-quiz-service/internal/observability"
	"dex-quiz-service/internal/region"
	transport "dex-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// regionLoader reads the region table at startup.
type regionLoader interface {
	LoadRegions(ctx context.Context) ([]domain.Region, error)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var loader regionLoader = memory.NewStaticRegionLoader(region.Defaults())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewRegionLoader(pool)
	}
	regions, err := loader.LoadRegions(ctx)
	if err != nil {
		return err
	}
	catalog, err := region.New(regions, region.Universe)
	if err != nil {
		return err
	}

	var store app.SessionRepository = memory.NewSessionStore()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		store = redissession.NewSessionStore(redisClient, config.Duration(cfg.Redis.TTL, 30*time.Minute))
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	baseURL := cfg.Catalog.BaseURL
	if baseURL == "" {
		baseURL = pokeapi.DefaultBaseURL
	}
	client := pokeapi.NewClientWithURL(baseURL, config.Duration(cfg.Catalog.Timeout, 10*time.Second), log)
	fetcher := fetch.NewFetcher(client, cfg.FetchOptions(), log, metrics)

	service := app.NewQuizService(store, catalog, fetcher,
		app.WithObserver(metrics),
		app.WithLogger(log.With("component", "quiz")),
		app.WithLoadTimeout(config.Duration(cfg.Catalog.LoadTimeout, 5*time.Minute)),
	)
	wsHandler := transport.NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/regions", transport.RegionsHandler(service))
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort, "regions", len(regions))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
