package endpoints

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
)

// toAPIError maps domain errors to the status an operator should see.
// Anything unrecognised is logged and reported as a 500 with msg.
func toAPIError(err error, msg string) *api.APIError {
	switch {
	case errors.Is(err, playlist.ErrDraftNotFound), errors.Is(err, db.ErrNotFound):
		return api.NotFound(err.Error())
	case errors.Is(err, playlist.ErrDraftForbidden):
		return api.Forbidden(err.Error())
	case errors.Is(err, playlist.ErrDuplicateName):
		return api.Conflict(err.Error())
	case errors.Is(err, playlist.ErrInvalidDuration),
		errors.Is(err, playlist.ErrInvalidYouTube),
		errors.Is(err, playlist.ErrIndexOutOfRange),
		errors.Is(err, playlist.ErrItemNotFound),
		errors.Is(err, playlist.ErrVerifyFailed),
		errors.Is(err, playlist.ErrEmptyPlaylist),
		errors.Is(err, playlist.ErrInvalidMediaName),
		errors.Is(err, playlist.ErrNotAnImage),
		errors.Is(err, playlist.ErrFileTooLarge):
		return api.BadRequest(err.Error())
	}
	log.Error().Err(err).Msg(msg)
	return api.Internal(msg)
}
