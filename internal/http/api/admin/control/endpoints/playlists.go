package endpoints

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/search"
)

type PlaylistController struct {
	store   db.Store
	catalog *search.Catalog
}

// PlaylistModule mounts the saved playlist lookups.
func PlaylistModule(store db.Store, catalog *search.Catalog) api.Module {
	ctl := &PlaylistController{store: store, catalog: catalog}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", ctl.searchPlaylists)
		c.GET("/playlists/:id", ctl.getPlaylist)
	})
}

// GET /api/admin/playlists?q=&refresh=
func (p *PlaylistController) searchPlaylists(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	refresh, _ := strconv.ParseBool(ctx.Query("refresh"))
	found, err := p.catalog.Search(ctx.Request.Context(), ctx.Query("q"), refresh)
	if err != nil {
		log.Error().Err(err).Msg("[playlist] search: could not load catalog")
		return nil, api.Internal("could not search playlists")
	}

	out := make([]packets.PlaylistResponse, len(found))
	for i, pl := range found {
		out[i] = mapPlaylist(pl)
	}
	return out, nil
}

// GET /api/admin/playlists/:id
func (p *PlaylistController) getPlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	pl, err := p.store.GetPlaylist(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, toAPIError(err, "could not load playlist")
	}
	return mapPlaylist(pl), nil
}
