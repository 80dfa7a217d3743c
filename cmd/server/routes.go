package main

import (
	"context"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/delivery"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/endpoints"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	playerapi "github.com/Nixie-Tech-LLC/cartelera/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/cartelera/internal/metrics"
	"github.com/Nixie-Tech-LLC/cartelera/internal/mqtt"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
	"github.com/Nixie-Tech-LLC/cartelera/internal/redis"
	"github.com/Nixie-Tech-LLC/cartelera/internal/search"
	"github.com/Nixie-Tech-LLC/cartelera/internal/settings"
	"github.com/Nixie-Tech-LLC/cartelera/internal/storage"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	BaseCtx    context.Context
	JWTSecret  string
	UseSpaces  bool
	Store      db.Store
	Storage    storage.Storage
	Cache      *redis.Client
	Publisher  mqtt.Publisher
	Workspace  *playlist.Workspace
	Catalog    *search.Catalog
	Settings   *settings.Service
	Dispatcher *delivery.Dispatcher
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, d Deps) {
	packets.RegisterValidators()

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"ETag",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
	},
		authapi.AuthPublicModule(d.JWTSecret, d.Store),
	)

	notifier := adminapi.NewNotifier(d.Cache, d.Publisher)
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: d.JWTSecret,
		Users:     d.Store,
	},
		// session endpoints that require auth
		authapi.AuthSessionModule(d.JWTSecret, d.Store),
		// control modules
		adminapi.DraftModule(d.Workspace, d.Store, notifier, d.Metrics),
		adminapi.PlaylistModule(d.Store, d.Catalog),
		adminapi.DeliveryModule(d.BaseCtx, d.Store, d.Dispatcher),
		adminapi.CatalogModule(d.Store, d.Settings),
		adminapi.DeviceModule(d.Publisher),
		adminapi.LibraryModule(d.Storage),
	)

	// shareable playback URL, read by players and the public viewer
	api.MountGroup(r, api.GroupConfig{},
		playerapi.PlaybackModule(d.Store, d.Cache, d.Metrics),
	)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// Static content
	if !d.UseSpaces {
		r.Static("/"+storage.UploadPrefix, filepath.Join(localMediaRoot, storage.UploadPrefix))
	}
}
