package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	announcementshandler "github.com/paroquiaemdia/parish-api/domains/announcements/be/handler"
	announcementsrepo "github.com/paroquiaemdia/parish-api/domains/announcements/be/repo"
	announcementsservice "github.com/paroquiaemdia/parish-api/domains/announcements/be/service"
	intentionshandler "github.com/paroquiaemdia/parish-api/domains/intentions/be/handler"
	intentionsrepo "github.com/paroquiaemdia/parish-api/domains/intentions/be/repo"
	intentionsservice "github.com/paroquiaemdia/parish-api/domains/intentions/be/service"
	membershipshandler "github.com/paroquiaemdia/parish-api/domains/memberships/be/handler"
	membershipsrepo "github.com/paroquiaemdia/parish-api/domains/memberships/be/repo"
	membershipsservice "github.com/paroquiaemdia/parish-api/domains/memberships/be/service"
	ministrieshandler "github.com/paroquiaemdia/parish-api/domains/ministries/be/handler"
	ministriesrepo "github.com/paroquiaemdia/parish-api/domains/ministries/be/repo"
	ministriesservice "github.com/paroquiaemdia/parish-api/domains/ministries/be/service"
	parisheshandler "github.com/paroquiaemdia/parish-api/domains/parishes/be/handler"
	parishesrepo "github.com/paroquiaemdia/parish-api/domains/parishes/be/repo"
	parishesservice "github.com/paroquiaemdia/parish-api/domains/parishes/be/service"
	poshandler "github.com/paroquiaemdia/parish-api/domains/pos/be/handler"
	posrepo "github.com/paroquiaemdia/parish-api/domains/pos/be/repo"
	posservice "github.com/paroquiaemdia/parish-api/domains/pos/be/service"
	prayershandler "github.com/paroquiaemdia/parish-api/domains/prayers/be/handler"
	prayersrepo "github.com/paroquiaemdia/parish-api/domains/prayers/be/repo"
	prayersservice "github.com/paroquiaemdia/parish-api/domains/prayers/be/service"
	profileshandler "github.com/paroquiaemdia/parish-api/domains/profiles/be/handler"
	profilesrepo "github.com/paroquiaemdia/parish-api/domains/profiles/be/repo"
	profilesservice "github.com/paroquiaemdia/parish-api/domains/profiles/be/service"
	tithehandler "github.com/paroquiaemdia/parish-api/domains/tithe/be/handler"
	titherepo "github.com/paroquiaemdia/parish-api/domains/tithe/be/repo"
	titheservice "github.com/paroquiaemdia/parish-api/domains/tithe/be/service"
	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	platformlogging "github.com/paroquiaemdia/parish-api/platform/go/logging"
	platformmiddleware "github.com/paroquiaemdia/parish-api/platform/go/middleware"
	parishmiddleware "github.com/paroquiaemdia/parish-api/platform/go/parish/middleware"
	"github.com/paroquiaemdia/parish-api/platform/go/persistence"
	"github.com/paroquiaemdia/parish-api/platform/go/storage"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	AuthProvider    string        `env:"AUTH_PROVIDER" envDefault:"firebase"`
	StorageBackend  string        `env:"STORAGE_BACKEND" envDefault:"gcs"`
	StorageBucket   string        `env:"STORAGE_BUCKET"` // empty disables image uploads in gcs mode
	StorageLocalDir string        `env:"STORAGE_LOCAL_DIR" envDefault:"uploads"`
	ParishCacheTTL  time.Duration `env:"PARISH_CACHE_TTL" envDefault:"1m"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if err := persistence.Bootstrap(ctx, pool); err != nil {
		logger.Fatal("apply database schema", zap.Error(err))
	}

	var logoUploader parishesservice.LogoUploader
	var avatarUploader profilesservice.AvatarUploader
	var staticDir string
	switch cfg.StorageBackend {
	case "gcs":
		if cfg.StorageBucket == "" {
			logger.Warn("STORAGE_BUCKET is empty, image uploads disabled")
			break
		}
		gcsClient, err := gcs.NewClient(ctx)
		if err != nil {
			logger.Fatal("init gcs client", zap.Error(err))
		}
		defer gcsClient.Close()
		up, err := storage.NewUploader(gcsClient, cfg.StorageBucket)
		if err != nil {
			logger.Fatal("init storage uploader", zap.Error(err))
		}
		logoUploader, avatarUploader = up, up
	case "local":
		up, err := storage.NewLocalUploader(cfg.StorageLocalDir, "/static")
		if err != nil {
			logger.Fatal("init local storage uploader", zap.Error(err))
		}
		logoUploader, avatarUploader = up, up
		staticDir = cfg.StorageLocalDir
	default:
		logger.Fatal("unknown storage backend", zap.String("storage_backend", cfg.StorageBackend))
	}

	parishStore, err := persistence.NewParishStore(pool)
	if err != nil {
		logger.Fatal("init parish store", zap.Error(err))
	}
	membershipStore, err := persistence.NewMembershipStore(pool)
	if err != nil {
		logger.Fatal("init membership store", zap.Error(err))
	}
	profileStore, err := persistence.NewProfileStore(pool)
	if err != nil {
		logger.Fatal("init profile store", zap.Error(err))
	}
	announcementStore, err := persistence.NewAnnouncementStore(pool)
	if err != nil {
		logger.Fatal("init announcement store", zap.Error(err))
	}
	ministryStore, err := persistence.NewMinistryStore(pool)
	if err != nil {
		logger.Fatal("init ministry store", zap.Error(err))
	}
	prayerStore, err := persistence.NewPrayerStore(pool)
	if err != nil {
		logger.Fatal("init prayer store", zap.Error(err))
	}
	intentionStore, err := persistence.NewIntentionStore(pool)
	if err != nil {
		logger.Fatal("init intention store", zap.Error(err))
	}
	eventStore, err := persistence.NewEventStore(pool)
	if err != nil {
		logger.Fatal("init event store", zap.Error(err))
	}
	posStore, err := persistence.NewPosStore(pool)
	if err != nil {
		logger.Fatal("init pos store", zap.Error(err))
	}
	titheStore, err := persistence.NewTitheStore(pool)
	if err != nil {
		logger.Fatal("init tithe store", zap.Error(err))
	}

	parishService := parishesservice.New(parishesrepo.NewPostgresRepository(parishStore), logoUploader)
	parishHTTPHandler := parisheshandler.New(parishService, logger)

	membershipService := membershipsservice.New(membershipsrepo.NewPostgresRepository(membershipStore))
	membershipHTTPHandler := membershipshandler.New(membershipService, logger)
	scopeResolver := membershipsservice.NewScopeResolver(parishStore, membershipService)

	profileService := profilesservice.New(profilesrepo.NewPostgresRepository(profileStore), avatarUploader)
	profileHTTPHandler := profileshandler.New(profileService, logger)

	announcementService := announcementsservice.New(announcementsrepo.NewPostgresRepository(announcementStore))
	announcementHTTPHandler := announcementshandler.New(announcementService, logger)

	ministryService := ministriesservice.New(ministriesrepo.NewPostgresRepository(ministryStore))
	ministryHTTPHandler := ministrieshandler.New(ministryService, logger)

	prayerService := prayersservice.New(prayersrepo.NewPostgresRepository(prayerStore))
	prayerHTTPHandler := prayershandler.New(prayerService, logger)

	intentionService := intentionsservice.New(intentionsrepo.NewPostgresRepository(intentionStore))
	intentionHTTPHandler := intentionshandler.New(intentionService, logger)

	posService := posservice.New(posrepo.NewPostgresRepository(eventStore, posStore))
	posHTTPHandler := poshandler.New(posService, logger)

	titheService := titheservice.New(titherepo.NewPostgresRepository(titheStore))
	titheHTTPHandler := tithehandler.New(titheService, logger)

	authMiddleware := buildAuthMiddleware(ctx, cfg, logger)

	rootRouter := chi.NewRouter()
	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if staticDir != "" {
		rootRouter.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	apiRouter := chi.NewRouter()
	apiRouter.Use(authMiddleware)
	apiRouter.Use(platformmiddleware.RequestTrace)

	withParishScope := parishmiddleware.WithParishScope(scopeResolver, parishmiddleware.Config{
		CacheTTL: cfg.ParishCacheTTL,
	})

	apiRouter.Route("/parishes", func(r chi.Router) {
		// Public parish page lookup; no token, no scope.
		parishHTTPHandler.PublicRoutes(r)

		// Registration and the caller's parish list: user, no scope.
		r.Group(func(r chi.Router) {
			r.Use(platformauth.RequireUser)
			parishHTTPHandler.SessionRoutes(r)
		})

		// Settings and branding: admin inside the parish scope.
		r.Group(func(r chi.Router) {
			r.Use(platformauth.RequireUser, withParishScope)
			parishHTTPHandler.ScopedRoutes(r)
		})
	})

	apiRouter.Group(func(r chi.Router) {
		r.Use(platformauth.RequireUser)
		r.Route("/profiles", profileHTTPHandler.Routes)
	})

	// Parish-scoped endpoints: X-Parish-ID (or parish_id) selects the acting
	// parish; the caller's role is resolved from their membership.
	apiRouter.Group(func(r chi.Router) {
		r.Use(platformauth.RequireUser, withParishScope)

		membershipHTTPHandler.Routes(r)
		r.Route("/announcements", announcementHTTPHandler.Routes)
		r.Route("/ministries", ministryHTTPHandler.Routes)
		r.Route("/prayers", prayerHTTPHandler.Routes)
		r.Route("/intentions", intentionHTTPHandler.Routes)
		r.Route("/tithe", titheHTTPHandler.Routes)
		posHTTPHandler.Routes(r)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
