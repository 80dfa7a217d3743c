package endpoints

import (
	"context"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/delivery"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

const historyLimit = 50

type DeliveryController struct {
	// base outlives the request that started a batch
	base       context.Context
	store      db.Store
	dispatcher *delivery.Dispatcher
}

// DeliveryModule mounts the branch delivery endpoints. Batches run on base,
// so cancelling it stops sends still waiting.
func DeliveryModule(base context.Context, store db.Store, dispatcher *delivery.Dispatcher) api.Module {
	ctl := &DeliveryController{base: base, store: store, dispatcher: dispatcher}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/playlists/:id/deliveries", ctl.startDelivery)
		c.GET("/deliveries", ctl.deliveryStatus)
	})
}

// POST /api/admin/playlists/:id/deliveries
func (d *DeliveryController) startDelivery(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var req packets.DeliveryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	playlistID := ctx.Param("id")
	if _, err := d.store.GetPlaylist(ctx.Request.Context(), playlistID); err != nil {
		return nil, toAPIError(err, "could not load playlist")
	}

	batchID := d.dispatcher.Start(d.base, playlistID, req.BranchIDs)
	log.Info().Str("batch_id", batchID).Str("playlist_id", playlistID).Int("branches", len(req.BranchIDs)).
		Int("user_id", user.ID).Msg("[deliveries] batch started")
	return api.Accepted(packets.DeliveryStartedResponse{
		BatchID:    batchID,
		PlaylistID: playlistID,
		BranchIDs:  req.BranchIDs,
	}), nil
}

// GET /api/admin/deliveries?playlist_id=&limit=
func (d *DeliveryController) deliveryStatus(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	limit := historyLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, api.BadRequest("invalid limit")
		}
		limit = n
	}

	history, err := d.store.ListDeliveries(ctx.Request.Context(), ctx.Query("playlist_id"), limit)
	if err != nil {
		log.Error().Err(err).Msg("[deliveries] could not list history")
		return nil, api.Internal("could not list deliveries")
	}
	if history == nil {
		history = []model.Delivery{}
	}

	statuses := d.dispatcher.Statuses()
	branches := make([]packets.BranchStatusResponse, 0, len(statuses))
	for id, s := range statuses {
		branches = append(branches, packets.BranchStatusResponse{BranchID: id, Status: string(s)})
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].BranchID < branches[j].BranchID })

	return packets.DeliveryStatusResponse{Branches: branches, History: history}, nil
}
