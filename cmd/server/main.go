package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/Nixie-Tech-LLC/cartelera/internal/config"
	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/delivery"
	"github.com/Nixie-Tech-LLC/cartelera/internal/metrics"
	"github.com/Nixie-Tech-LLC/cartelera/internal/mqtt"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
	"github.com/Nixie-Tech-LLC/cartelera/internal/redis"
	"github.com/Nixie-Tech-LLC/cartelera/internal/search"
	"github.com/Nixie-Tech-LLC/cartelera/internal/settings"
)

const (
	shutdownTimeout    = 15 * time.Second
	draftPruneInterval = 10 * time.Minute
	maxMultipartMemory = 32 << 20
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// initialize PostgreSQL
	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}

	// run pending migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(nil)

	cache := connectRedis(ctx, cfg)

	var publisher mqtt.Publisher = mqtt.Noop{}
	var broker *mqtt.Client
	if cfg.MQTTBrokerURL != "" {
		broker, err = mqtt.Connect(cfg.MQTTBrokerURL, cfg.MQTTClientID)
		if err != nil {
			log.Fatal().Err(err).Str("broker", cfg.MQTTBrokerURL).Msg("mqtt connect")
		}
		publisher = broker
	} else {
		log.Warn().Msg("MQTT_BROKER_URL not set, player notifications are disabled")
	}

	media, err := InitStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	settingsSvc, err := settings.NewService(ctx, settingsStore(cfg, cache))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load company settings")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	verifier, err := playlist.NewHTTPVerifier(cfg.VerifyTimeout, LibraryBaseURL(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("library verifier")
	}
	ws := playlist.NewWorkspace(
		playlist.WithVerifier(verifier),
		playlist.WithMediaStore(media),
	)
	go pruneDrafts(ctx, ws, cfg.DraftIdleTTL, m)

	dispatcher := delivery.NewDispatcher(
		delivery.WithDelay(cfg.DeliveryDelay),
		delivery.WithRecorder(store),
		delivery.WithMetrics(m),
	)

	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.MaxMultipartMemory = maxMultipartMemory

	RegisterRoutes(r, Deps{
		BaseCtx:    ctx,
		JWTSecret:  cfg.JWTSecret,
		UseSpaces:  cfg.Spaces.Enabled,
		Store:      store,
		Storage:    media,
		Cache:      cache,
		Publisher:  publisher,
		Workspace:  ws,
		Catalog:    search.NewCatalog(store, settingsSvc),
		Settings:   settingsSvc,
		Dispatcher: dispatcher,
		Metrics:    m,
		Gatherer:   reg,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Str("env", cfg.Environment).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)

	// in-flight delivery batches observe ctx and stop at the next branch
	dispatcher.Wait()

	err = multierr.Append(err, cache.Close())
	if broker != nil {
		err = multierr.Append(err, broker.Close())
	}
	err = multierr.Append(err, db.Close())
	if err != nil {
		log.Error().Err(err).Msg("unclean shutdown")
		os.Exit(1)
	}
}

// connectRedis falls back to an embedded redis when the configured one is
// unreachable. Only the ETag cache degrades; SETTINGS_STORE=redis requires
// the real one.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddress != "" {
		client, err := redis.New(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err == nil {
			return client
		}
		if cfg.SettingsStore == "redis" {
			log.Fatal().Err(err).Msg("redis connect")
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddress).Msg("redis unavailable, using embedded redis")
	} else {
		if cfg.SettingsStore == "redis" {
			log.Fatal().Msg("SETTINGS_STORE=redis needs REDIS_ADDRESS")
		}
		log.Warn().Msg("REDIS_ADDRESS not set, using embedded redis")
	}
	client, err := redis.NewEmbedded()
	if err != nil {
		log.Fatal().Err(err).Msg("embedded redis")
	}
	return client
}

func settingsStore(cfg *config.Config, cache *redis.Client) settings.Store {
	switch cfg.SettingsStore {
	case "file":
		return settings.NewFileStore(cfg.SettingsFile)
	case "redis":
		return settings.NewRedisStore(cache)
	default:
		return settings.NewMemoryStore(nil)
	}
}

func pruneDrafts(ctx context.Context, ws *playlist.Workspace, idle time.Duration, m *metrics.Metrics) {
	ticker := time.NewTicker(draftPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ws.Prune(idle); n > 0 {
				log.Info().Int("pruned", n).Msg("[drafts] discarded idle drafts")
			}
			m.SetDrafts(ws.Len())
		}
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("[http] request")
	}
}
