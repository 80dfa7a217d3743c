package playlist

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const playlistIDLength = 9

// NewID mints a short base-36 playlist id. There is no collision check, the
// space is large enough for the number of playlists a chain keeps.
func NewID() string {
	u := uuid.New()
	id := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	if len(id) < playlistIDLength {
		id = strings.Repeat("0", playlistIDLength-len(id)) + id
	}
	return id[:playlistIDLength]
}
