package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"scamshield/internal/api"
	"scamshield/internal/api/handlers"
	apimiddleware "scamshield/internal/api/middleware"
	"scamshield/internal/config"
	"scamshield/internal/domain/models"
	"scamshield/internal/domain/services/community"
	"scamshield/internal/domain/services/patterns"
	"scamshield/internal/domain/services/phoneintel"
	"scamshield/internal/domain/services/scan"
	"scamshield/internal/domain/services/scoring"
	grpcserver "scamshield/internal/grpc/scamshield"
	"scamshield/internal/infrastructure/cache"
	"scamshield/internal/infrastructure/database"
	"scamshield/internal/infrastructure/database/repository"
	"scamshield/internal/infrastructure/graph"
	"scamshield/internal/infrastructure/memory"
	"scamshield/internal/streaming"
	"scamshield/pkg/logger"
)

const seedLock = "blacklist-seed"

// stores is the persistence wiring picked at boot
type stores struct {
	reports    community.ReportStore
	reputation community.ReputationStore
	blacklist  community.BlacklistStore
	scans      scan.Store
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	if err := cfg.JWT.Validate(); err != nil {
		log.Fatal().Err(err).Msg("refusing to start without a JWT signing secret")
	}

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting ScamShield")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handlers.Checker{}

	// Persistence: Postgres when enabled, in-memory otherwise
	st := memoryStores()
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		st = postgresStores(db)
		checks["postgres"] = db.Ping
		log.Info().Msg("using PostgreSQL stores")
	} else {
		log.Warn().Msg("running without database - using in-memory stores")
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
		} else {
			defer redisCache.Close()
			checks["redis"] = redisCache.Ping
		}
	}

	var graphRepo *graph.GraphRepository
	normalizer := phoneintel.NewNormalizer(cfg.Scoring.DefaultRegion)
	if cfg.Neo4j.Enabled {
		neo, err := graph.NewNeo4jClient(ctx, cfg.Neo4j, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Neo4j, continuing without scam graph")
		} else {
			defer neo.Close(context.Background())
			graphRepo = graph.NewGraphRepository(neo, normalizer, log)
			checks["neo4j"] = neo.Health
		}
	}

	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event stream")
		} else {
			defer natsPublisher.Close()
			checks["nats"] = func(context.Context) error {
				if !natsPublisher.IsConnected() {
					return errors.New("not connected")
				}
				return nil
			}
		}
	}

	// Event fan-out: local bus (+NATS) and live WebSocket clients
	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	wsHub := streaming.NewWebSocketHub(log, normalizer)
	go wsHub.Run(ctx)
	events := streaming.NewEventBusPublisher(eventBus, wsHub)

	// Community
	blacklistStore := st.blacklist
	if redisCache != nil {
		bc := cache.NewBlacklistCache(redisCache, st.blacklist, log)
		if n, err := bc.Warm(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to warm blacklist cache")
		} else {
			log.Info().Int("phones", n).Msg("blacklist cache warmed")
		}
		blacklistStore = bc
	}

	blacklist := community.NewBlacklistService(blacklistStore, normalizer, events, log)
	ledger := community.NewLedger(st.reputation, community.LeaderboardLimits{
		Default: cfg.Community.LeaderboardDefaultLimit,
		Max:     cfg.Community.LeaderboardMaxLimit,
	}, log)
	workflow := community.NewWorkflow(st.reports, ledger, blacklist, events, community.Rewards{
		SubmitPoints:            cfg.Community.SubmitPoints,
		VerifiedSubmitterPoints: cfg.Community.VerifiedSubmitterPoints,
		VerifierPoints:          cfg.Community.VerifierPoints,
	}, log)
	if graphRepo != nil {
		workflow.WithGraph(graphRepo)
		blacklist.WithGraph(graphRepo)
		go eventBus.Consume(ctx, &streaming.Subscription{Types: []models.EventType{models.EventBlacklistUpdated}},
			func(ctx context.Context, e *models.CommunityEvent) {
				if err := graphRepo.MarkBlacklisted(ctx, e.Phone, e.ScamType); err != nil {
					log.Warn().Err(err).Str("phone", e.Phone).Msg("failed to project blacklist update")
				}
			})
	}

	if err := seedBlacklist(ctx, blacklist, redisCache, cfg.Scoring.SeedBlacklist, log); err != nil {
		log.Warn().Err(err).Msg("failed to seed blacklist")
	}

	// Scoring
	catalog, err := patterns.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build pattern catalog")
	}
	analyzer := phoneintel.NewAnalyzer(blacklist, phoneintel.Config{
		DefaultRegion:        cfg.Scoring.DefaultRegion,
		BlacklistWeight:      cfg.Scoring.BlacklistWeight,
		RepeatedDigitsWeight: cfg.Scoring.RepeatedDigitsWeight,
	}, log)
	scorer := scoring.NewScorer(catalog, analyzer, log)
	scans := scan.NewService(scorer, st.scans, log).WithReports(workflow)
	if redisCache != nil {
		scans.WithCounter(cache.NewScanCounter(redisCache))
	}
	log.Info().Str("catalog", scorer.CatalogVersion()).Int("rules", catalog.Size()).Msg("risk scorer ready")

	// HTTP
	h := handlers.NewHandlers(handlers.Dependencies{
		Scans:     scans,
		Workflow:  workflow,
		Ledger:    ledger,
		Blacklist: blacklist,
		Checks:    checks,
		WSHub:     wsHub,
		EventBus:  eventBus,
		Version:   cfg.App.Version,
		Logger:    log,
	})

	router := api.NewRouter(*cfg, h, rateLimitStore(redisCache), log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// gRPC
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.UnaryLogger(log)))
	grpcserver.NewServer(scorer, log).Register(grpcServer)
	probes := make(map[string]grpcserver.Probe, len(checks))
	for name, check := range checks {
		probes[name] = grpcserver.Probe(check)
	}
	grpcserver.RegisterHealthServer(ctx, grpcServer, probes, 10*time.Second, log)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

func newLogger(cfg *config.Config) *logger.Logger {
	if cfg.App.IsProduction() {
		return logger.NewProduction()
	}
	return logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})
}

func memoryStores() stores {
	return stores{
		reports:    memory.NewReportStore(),
		reputation: memory.NewReputationStore(),
		blacklist:  memory.NewBlacklistStore(),
		scans:      memory.NewScanStore(),
	}
}

func postgresStores(db *database.PostgresDB) stores {
	return stores{
		reports:    repository.NewCommunityReportRepository(db),
		reputation: repository.NewReputationRepository(db),
		blacklist:  repository.NewBlacklistRepository(db),
		scans:      repository.NewScanReportRepository(db),
	}
}

// rateLimitStore keeps a nil cache from becoming a non-nil interface
func rateLimitStore(c *cache.RedisCache) apimiddleware.RateLimitStore {
	if c == nil {
		return nil
	}
	return c
}

// seedBlacklist loads the configured sample numbers. With Redis, only one
// instance seeds at a time.
func seedBlacklist(ctx context.Context, blacklist *community.BlacklistService, redisCache *cache.RedisCache, phones []string, log *logger.Logger) error {
	if len(phones) == 0 {
		return nil
	}
	if redisCache != nil {
		ok, err := redisCache.AcquireLock(ctx, seedLock, time.Minute)
		if err != nil {
			return fmt.Errorf("failed to acquire seed lock: %w", err)
		}
		if !ok {
			log.Info().Msg("another instance is seeding the blacklist")
			return nil
		}
		defer redisCache.ReleaseLock(ctx, seedLock)
	}
	return blacklist.Seed(ctx, phones)
}
