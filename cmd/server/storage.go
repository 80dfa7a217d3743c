package main

import (
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/config"
	"github.com/Nixie-Tech-LLC/cartelera/internal/storage"
)

const localMediaRoot = "./media"

// InitStorage selects and returns the configured storage backend
func InitStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Spaces.Enabled {
		spaces, err := storage.NewSpacesStorage(
			cfg.Spaces.Endpoint,
			cfg.Spaces.Region,
			cfg.Spaces.Bucket,
			cfg.Spaces.CDNURL,
			cfg.Spaces.AccessKey,
			cfg.Spaces.SecretKey,
		)
		if err != nil {
			return nil, err
		}
		log.Info().Str("cdn", cfg.Spaces.CDNURL).Str("bucket", cfg.Spaces.Bucket).Msg("using Spaces storage")
		return spaces, nil
	}

	log.Info().Str("root", localMediaRoot).Msg("using local file storage")
	return storage.NewLocalStorage(localMediaRoot, cfg.PublicBaseURL), nil
}

// LibraryBaseURL is where every library object is served from.
func LibraryBaseURL(cfg *config.Config) string {
	if cfg.Spaces.Enabled {
		return cfg.Spaces.CDNURL
	}
	return cfg.PublicBaseURL
}
