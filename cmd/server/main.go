// Command server runs the mobile gateway: the authorization-code flow, the
// decorated course API, content packaging, and the course publish worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"log/slog"

	"mobile-gateway/internal/auth/federation"
	authhandler "mobile-gateway/internal/auth/handler"
	authmetrics "mobile-gateway/internal/auth/metrics"
	authservice "mobile-gateway/internal/auth/service"
	"mobile-gateway/internal/auth/session"
	"mobile-gateway/internal/auth/store/authcode"
	clientstore "mobile-gateway/internal/auth/store/client"
	"mobile-gateway/internal/content"
	contenthandler "mobile-gateway/internal/content/handler"
	"mobile-gateway/internal/content/htmlblock"
	"mobile-gateway/internal/content/scorm"
	contentstorage "mobile-gateway/internal/content/storage"
	"mobile-gateway/internal/course"
	coursehandler "mobile-gateway/internal/course/handler"
	coursemetrics "mobile-gateway/internal/course/metrics"
	coursestore "mobile-gateway/internal/course/store"
	"mobile-gateway/internal/events"
	gatewayhttp "mobile-gateway/internal/http"
	"mobile-gateway/internal/platform/config"
	"mobile-gateway/internal/platform/httpserver"
	"mobile-gateway/internal/platform/lms"
	"mobile-gateway/internal/platform/logger"
	"mobile-gateway/internal/platform/postgres"
	"mobile-gateway/internal/platform/redis"
	"mobile-gateway/internal/token"
	dErrors "mobile-gateway/pkg/domain-errors"
	"mobile-gateway/pkg/email"
	"mobile-gateway/pkg/platform/sentinel"
	"mobile-gateway/pkg/requestcontext"
)

func main() {
	if err := run(); err != nil {
		slog.Error("gateway exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable stores. Development runs without postgres on memory stores;
	// production sets DATABASE_URL.
	var (
		codes   authcode.Store
		clients clientstore.Store
	)
	var enrollmentCache coursestore.EnrollmentCache
	if db, err := postgres.Open(cfg.Postgres); err != nil {
		log.Warn("postgres unavailable, using in-memory stores", "error", err)
		codes = authcode.NewMemory()
		clients = clientstore.NewMemory()
		enrollmentCache = coursestore.NewInMemoryCache(cfg.Mobile.EnrollmentCacheTTL)
	} else {
		defer db.Close()
		codeStore := authcode.NewPostgres(db)
		clientStore := clientstore.NewPostgres(db)
		if err := codeStore.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := clientStore.EnsureSchema(ctx); err != nil {
			return err
		}
		codes = codeStore
		clients = clientStore

		pool, err := postgres.OpenPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		cache := coursestore.NewPostgresCache(pool, cfg.Mobile.EnrollmentCacheTTL)
		if err := cache.EnsureSchema(ctx); err != nil {
			return err
		}
		enrollmentCache = cache
	}

	// Session and SCORM state live in redis when configured.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var sessions session.Store
	var trackerStates scorm.TrackerStore
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedis(redisClient.Client, cfg.Mobile.SessionTTL)
		trackerStates = scorm.NewRedisTrackerStore(redisClient)
	} else {
		log.Warn("redis not configured, using in-memory session store")
		sessions = session.NewMemory(cfg.Mobile.SessionTTL)
		trackerStates = scorm.NewInMemoryTrackerStore()
	}

	// Event bus, optional.
	var publisher events.Publisher = events.NoopPublisher{}
	kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	lmsClient := lms.NewClient(cfg.LMS, log)

	tokens := token.NewBearerGenerator(cfg.OAuth.SigningKey, cfg.OAuth.Issuer)

	registry := federation.NewRegistry(buildBackends(cfg.Mobile, lmsClient)...)

	authSvc := authservice.New(authservice.Config{
		DeeplinkURL:            cfg.Mobile.DeeplinkURL,
		DeeplinkPath:           "/sso_deeplink",
		DefaultRedirect:        cfg.Mobile.DefaultRedirect,
		DefaultScopes:          cfg.OAuth.DefaultScopes,
		ExpirePublicClientDays: cfg.OAuth.ExpirePublicClientDays,
	}, authservice.Deps{
		Codes:     codes,
		Clients:   clients,
		Sessions:  sessions,
		Tokens:    tokens,
		Directory: lmsClient,
		Mail:      &email.LogSender{Logger: log},
		Publisher: publisher,
		Logger:    log,
		Metrics:   authmetrics.New(),
	})

	courseMetrics := coursemetrics.New()
	courseSvc := course.NewService(lmsClient, enrollmentCache, courseMetrics, log)

	artifacts := contentstorage.NewLocal(cfg.Content.Root, cfg.Content.PublicBaseURL)
	packager := htmlblock.NewPackager(artifacts, lmsClient, log)
	contentSvc := content.NewService(lmsClient, packager, log)
	packages := scorm.NewPackageStore(artifacts, cfg.Content.ScormRoot, log)
	tracker := scorm.NewTracker(trackerStates, lmsClient, log)

	resolveUsername := func(ctx context.Context, userID uuid.UUID) (string, error) {
		user, err := lmsClient.FindUser(ctx, userID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return "", dErrors.New(dErrors.CodeUnauthorized, "Invalid token.")
			}
			return "", err
		}
		return user.Username, nil
	}

	router := gatewayhttp.New(gatewayhttp.Deps{
		Auth:    authhandler.New(authSvc, sessions, registry, lmsClient, cfg.Mobile.DeeplinkURL, log),
		Course:  coursehandler.New(courseSvc, resolveUsername, courseMetrics, log),
		Content: contenthandler.New(contentSvc, packages, tracker, func(r *http.Request) (string, error) {
			return resolveUsername(r.Context(), requestcontext.UserID(r.Context()))
		}, log),
		Sessions: sessions,
		Tokens:   tokens,
	})

	server := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gateway listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	worker, err := events.NewCoursePublishWorker(cfg.Kafka, contentSvc, log)
	if err != nil {
		return err
	}
	if worker != nil {
		g.Go(func() error {
			err := worker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// buildBackends wires the configured federated backends over the platform
// pipeline.
func buildBackends(cfg config.Mobile, pipeline federation.PipelineClient) []federation.Backend {
	trusted := make(map[string]bool, len(cfg.TrustedBackends))
	for _, name := range cfg.TrustedBackends {
		trusted[name] = true
	}
	backends := make([]federation.Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		backends = append(backends, federation.NewPipelineBackend(name, trusted[name], cfg.LoginErrorURL, pipeline))
	}
	return backends
}
