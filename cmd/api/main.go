package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funnel_backend/internal/catalog"
	catalogdomain "funnel_backend/internal/catalog/domain"
	catalogrepo "funnel_backend/internal/catalog/repository"
	"funnel_backend/internal/catalog/seed"
	catalogservice "funnel_backend/internal/catalog/service"
	"funnel_backend/internal/chat"
	chatservice "funnel_backend/internal/chat/service"
	"funnel_backend/internal/email"
	"funnel_backend/internal/events"
	"funnel_backend/internal/funnel"
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/http/router"
	"funnel_backend/internal/intent"
	"funnel_backend/internal/leads"
	leadsdomain "funnel_backend/internal/leads/domain"
	leadrepo "funnel_backend/internal/leads/repository"
	"funnel_backend/internal/notification"
	"funnel_backend/internal/notification/sse"
	"funnel_backend/internal/reservation"
	"funnel_backend/internal/retrieval"
	"funnel_backend/internal/scheduler"
	"funnel_backend/internal/session"
	"funnel_backend/internal/settings"
	settingsdomain "funnel_backend/internal/settings/domain"
	settingsrepo "funnel_backend/internal/settings/repository"
	"funnel_backend/platform/ai/groq"
	"funnel_backend/platform/cache"
	"funnel_backend/platform/config"
	"funnel_backend/platform/db"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/adk/model"
)

const (
	welcomeTemplate   = "Welcome to %s! Ask me about our products, delivery or returns."
	streamBuffer      = 64
	streamIdle        = 10 * time.Minute
	janitorInterval   = time.Minute
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// catalogStore is what both catalog backends provide.
type catalogStore interface {
	catalogservice.Store
	catalogdomain.FactStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	vocab := loadSeed(cfg.GetCatalogSeedFile(), log)

	pool := connectDatabase(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}
	rdb := connectRedis(ctx, cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	var (
		products     catalogStore
		leadSink     leadsdomain.Sink
		settingsRepo settingsdomain.Repository
		health       healthChecks
	)
	if pool != nil {
		products = catalogrepo.New(pool)
		leadSink = leadrepo.New(pool)
		settingsRepo = settingsrepo.New(pool)
		health = append(health, db.NewPoolHealth(pool))
	} else {
		log.Warn("DATABASE_URL not configured; using in-memory stores")
		mem := catalogrepo.NewMemory()
		if err := vocab.Apply(ctx, mem); err != nil {
			panic("failed to seed catalog: " + err.Error())
		}
		products = mem
		leadSink = leadrepo.NewMemory()
		settingsRepo = settingsrepo.NewMemory()
	}

	var (
		sessions    session.Store
		memSessions *session.MemoryStore
		holds       reservation.Store
	)
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, cfg.GetSessionIdleTTL())
		holds = reservation.NewRedisStore(rdb, cfg.GetReservationTTL())
		health = append(health, cache.NewHealth(rdb))
	} else {
		log.Warn("REDIS_URL not configured; sessions and reservations are process-local")
		memSessions = session.NewMemoryStore(cfg.GetSessionIdleTTL(), log)
		sessions = memSessions
		holds = reservation.NewMemoryStore()
	}

	// ========================================================================
	// Notifications
	// ========================================================================

	sender := email.NewSender(cfg, log)
	var (
		notifier notification.Notifier
		direct   *notification.DirectNotifier
	)
	if rdb != nil {
		queue, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize email queue client", "error", err)
			panic("failed to initialize email queue client: " + err.Error())
		}
		defer func() { _ = queue.Close() }()
		notifier = notification.NewQueueNotifier(queue)
	} else {
		direct = notification.NewDirectNotifier(sender, 0, log)
		notifier = direct
	}
	notification.New(notifier, cfg.GetBrandName(), cfg.GetSalesEmail(), log).RegisterHandlers(eventBus)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	var llm model.LLM
	var fallback intent.Fallback
	if cfg.IsLLMEnabled() {
		g := groq.NewModel(groq.Config{
			APIKey:  cfg.GetLLMAPIKey(),
			BaseURL: cfg.GetLLMBaseURL(),
			Model:   cfg.GetLLMModel(),
			Timeout: cfg.GetLLMTimeout(),
		})
		llm = g
		fallback = intent.NewLLMFallback(g)
		log.Info("language model enabled", "model", cfg.GetLLMModel())
	} else {
		log.Warn("GROQ_API_KEY not configured; replies use verified context text only")
	}

	settingsModule := settings.NewModule(
		settingsRepo,
		settingsdomain.Defaults(cfg.GetBotName(), vocab.Groups),
		cfg.GetSettingsCacheTTL(),
		cfg.GetStoreTimeout(),
		val,
		log,
	)
	settingsSvc := settingsModule.Service()

	catalogModule := catalog.NewModule(products, val, log)
	leadsModule := leads.NewModule(leadSink, eventBus, cfg.GetStoreTimeout(), val, log)

	words := intent.DefaultVocabulary(cfg.GetBrandName())
	continuation := intent.ContinuationMatcher(words)
	classifier := intent.NewClassifier(intent.BuildRules(words), fallback, intent.Options{
		Timeout:             cfg.GetClassifierTimeout(),
		DomainRestricted:    cfg.GetDomainRestricted(),
		OutOfDomainMinWords: cfg.GetOutOfDomainMinWords(),
	}, log)

	retriever := retrieval.NewOrchestrator(
		products,
		products,
		settingsSvc.RetrievalConfig(fmt.Sprintf(welcomeTemplate, cfg.GetBrandName())),
		continuation,
		cfg.GetStoreTimeout(),
		log,
	)

	reservations := reservation.NewManager(holds, products, reservation.Options{
		TTL:          cfg.GetReservationTTL(),
		Attempts:     cfg.GetCommitRetryAttempts(),
		StoreTimeout: cfg.GetStoreTimeout(),
	}, log)

	funnelSvc := funnel.New(funnel.Deps{
		Sessions:     sessions,
		Reservations: reservations,
		Products:     products,
		Classifier:   classifier,
		Retriever:    retriever,
		Leads:        leadsModule.Service(),
		Bus:          eventBus,
		Weights:      settingsSvc.Weights,
		Topics:       session.NewTopicExtractor(vocab.Topics),
		Menus:        session.NewKeywordMenus(vocab.Menus),
		Continuation: continuation,
		Metrics:      funnel.NewMetrics(prometheus.DefaultRegisterer),
	}, funnel.Options{StoreTimeout: cfg.GetStoreTimeout()}, log)

	hub := sse.New(streamBuffer, log)
	chatModule := chat.NewModule(funnelSvc, llm, settingsSvc, hub, chatservice.Options{
		Brand:           cfg.GetBrandName(),
		GenerateTimeout: cfg.GetLLMTimeout(),
	}, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			catalogModule,
			leadsModule,
			settingsModule,
			chatModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		scheduler.NewReservationSweep(reservations, log, 0).Run(gctx)
		return nil
	})
	if memSessions != nil {
		g.Go(func() error {
			memSessions.Run(gctx, janitorInterval)
			return nil
		})
	}
	g.Go(func() error {
		pruneStreams(gctx, hub, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	chatModule.Service().Wait()
	hub.Close()
	eventBus.Wait()
	if direct != nil {
		direct.Wait()
	}
	log.Info("server stopped")
}

// loadSeed reads the catalog bootstrap file. A missing file leaves the
// vocabulary empty and the built-in topic list in use.
func loadSeed(path string, log *logger.Logger) *seed.File {
	if path == "" {
		return &seed.File{}
	}
	f, err := seed.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("catalog seed file not found", "path", path)
		return &seed.File{}
	}
	if err != nil {
		panic("failed to load catalog seed: " + err.Error())
	}
	log.Info("catalog seed loaded", "path", path, "products", len(f.Products), "facts", len(f.Facts))
	return f
}

func connectDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) *pgxpool.Pool {
	if cfg.GetDatabaseURL() == "" {
		return nil
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")
	return pool
}

func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		return nil
	}

	var client *redis.Client
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		c, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	log.Info("redis connection established")
	return client
}

func pruneStreams(ctx context.Context, hub *sse.Service, log *logger.Logger) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := hub.Prune(streamIdle); n > 0 {
				log.Debug("idle stream queues pruned", "count", n)
			}
		}
	}
}

// healthChecks pings every configured backend.
type healthChecks []apphttp.HealthChecker

func (h healthChecks) Ping(ctx context.Context) error {
	for _, c := range h {
		if err := c.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
