package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/config"
	"github.com/Nixie-Tech-LLC/cartelera/internal/mqtt"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playback"
	"github.com/Nixie-Tech-LLC/cartelera/internal/player"
)

const fetchTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg, err := config.LoadPlayer()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var subscriber player.Subscriber
	if cfg.MQTTBrokerURL != "" {
		client, err := mqtt.Connect(cfg.MQTTBrokerURL, "cartelera-player-"+cfg.DeviceID)
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect")
		}
		defer client.Close()
		subscriber = client
	} else {
		log.Warn().Msg("MQTT_BROKER_URL not set, relying on polling only")
	}

	clock := playback.RealClock()
	display := player.NewHeadlessDisplay(clock)
	engine := playback.NewEngine(clock, display)
	display.OnVideoEnded(engine.VideoEnded)

	runner := player.NewRunner(
		player.NewClient(cfg.ServerURL, cfg.PlaylistID, fetchTimeout),
		engine,
		subscriber,
		cfg.PlaylistID,
		cfg.DeviceID,
		cfg.PollInterval,
	)

	log.Info().Str("server", cfg.ServerURL).Str("playlist_id", cfg.PlaylistID).
		Str("device_id", cfg.DeviceID).Msg("player starting")
	if err := runner.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("player stopped")
	}
	log.Info().Msg("player stopped")
}
