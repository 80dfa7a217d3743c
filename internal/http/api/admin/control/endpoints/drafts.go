package endpoints

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/metrics"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
)

type DraftController struct {
	workspace *playlist.Workspace
	store     db.Store
	notifier  *Notifier
	metrics   *metrics.Metrics
}

// DraftModule mounts the playlist editing endpoints. Every draft is owned
// by the operator who opened it.
func DraftModule(ws *playlist.Workspace, store db.Store, notifier *Notifier, m *metrics.Metrics) api.Module {
	ctl := &DraftController{workspace: ws, store: store, notifier: notifier, metrics: m}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/drafts", ctl.createDraft)
		c.GET("/drafts/:draft", ctl.getDraft)
		c.PUT("/drafts/:draft", ctl.updateDraft)
		c.DELETE("/drafts/:draft", ctl.discardDraft)

		c.POST("/drafts/:draft/images/library", ctl.toggleLibraryImage)
		c.POST("/drafts/:draft/images/upload", ctl.uploadImages)
		c.POST("/drafts/:draft/videos/youtube", ctl.addYouTubeVideo)
		c.POST("/drafts/:draft/videos/upload", ctl.uploadVideo)

		c.PUT("/drafts/:draft/items/move", ctl.moveItem)
		c.PUT("/drafts/:draft/items/:name/duration", ctl.updateDuration)
		c.DELETE("/drafts/:draft/items/:index", ctl.removeItem)

		c.POST("/drafts/:draft/save", ctl.saveDraft)
		c.POST("/drafts/:draft/load", ctl.loadDraft)
	})
}

func (d *DraftController) builder(ctx *gin.Context, user *model.User) (string, *playlist.Builder, *api.APIError) {
	id := ctx.Param("draft")
	b, err := d.workspace.Get(id, user.ID)
	if err != nil {
		return "", nil, toAPIError(err, "could not open draft")
	}
	return id, b, nil
}

// POST /api/admin/drafts
func (d *DraftController) createDraft(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b := d.workspace.Create(user.ID)
	d.metrics.SetDrafts(d.workspace.Len())
	log.Info().Str("draft_id", id).Int("user_id", user.ID).Msg("[drafts] opened draft")
	return api.Created(mapDraft(id, b.Snapshot())), nil
}

// GET /api/admin/drafts/:draft
func (d *DraftController) getDraft(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return mapDraft(id, b.Snapshot()), nil
}

// PUT /api/admin/drafts/:draft
func (d *DraftController) updateDraft(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.UpdateDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	b.SetDetails(playlist.Details{
		Name:        req.Name,
		CompanyID:   req.CompanyID,
		BranchIDs:   req.BranchIDs,
		DeviceTypes: toDeviceTypes(req.DeviceTypes),
		Schedule:    toSchedule(req.Schedule),
	})
	return mapDraft(id, b.Snapshot()), nil
}

// DELETE /api/admin/drafts/:draft
func (d *DraftController) discardDraft(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := d.workspace.Discard(ctx.Param("draft"), user.ID); err != nil {
		return nil, toAPIError(err, "could not discard draft")
	}
	d.metrics.SetDrafts(d.workspace.Len())
	return nil, nil
}

// POST /api/admin/drafts/:draft/images/library
func (d *DraftController) toggleLibraryImage(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.LibraryImageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	result, err := b.ToggleLibraryImage(ctx.Request.Context(), req.Name, req.URL)
	if err != nil {
		return nil, toAPIError(err, "could not select library image")
	}
	return packets.ToggleResponse{Result: string(result), Draft: mapDraft(id, b.Snapshot())}, nil
}

// POST /api/admin/drafts/:draft/images/upload (multipart "files")
func (d *DraftController) uploadImages(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, api.BadRequest("expected multipart form with files")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, api.BadRequest("no files uploaded")
	}

	uploads := make([]playlist.Upload, 0, len(headers))
	var skipped []playlist.FileError
	for _, fh := range headers {
		// one byte over the limit is enough for validation to reject it
		u, err := readUpload(fh, playlist.MaxImageBytes+1)
		if err != nil {
			skipped = append(skipped, playlist.FileError{Filename: fh.Filename, Err: err, Message: err.Error()})
			continue
		}
		uploads = append(uploads, u)
	}

	added, rejected := b.AddLocalImages(uploads)
	skipped = append(skipped, rejected...)
	if added == nil {
		added = []model.PlaylistItem{}
	}
	if skipped == nil {
		skipped = []playlist.FileError{}
	}
	log.Info().Str("draft_id", id).Int("added", len(added)).Int("skipped", len(skipped)).
		Msg("[drafts] images uploaded")
	return packets.UploadImagesResponse{Added: added, Skipped: skipped, Draft: mapDraft(id, b.Snapshot())}, nil
}

// POST /api/admin/drafts/:draft/videos/youtube
func (d *DraftController) addYouTubeVideo(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.YouTubeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if _, err := b.AddYouTubeVideo(req.URL); err != nil {
		return nil, toAPIError(err, "could not add video")
	}
	return api.Created(mapDraft(id, b.Snapshot())), nil
}

// POST /api/admin/drafts/:draft/videos/upload (multipart "file")
func (d *DraftController) uploadVideo(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, api.BadRequest("file is required")
	}
	// large files are spooled to disk by the multipart reader; stream from there
	f, err := fh.Open()
	if err != nil {
		return nil, api.BadRequest(fmt.Sprintf("open %s: %v", fh.Filename, err))
	}
	defer f.Close()
	video := playlist.VideoUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}
	if _, err := b.AddLocalVideo(ctx.Request.Context(), video); err != nil {
		return nil, toAPIError(err, "could not store video")
	}
	return api.Created(mapDraft(id, b.Snapshot())), nil
}

// PUT /api/admin/drafts/:draft/items/move
func (d *DraftController) moveItem(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.MoveItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if err := b.MoveItem(req.Source, req.Target); err != nil {
		return nil, toAPIError(err, "could not move item")
	}
	return mapDraft(id, b.Snapshot()), nil
}

// PUT /api/admin/drafts/:draft/items/:name/duration
func (d *DraftController) updateDuration(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.DurationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if err := b.UpdateDuration(ctx.Param("name"), req.Seconds); err != nil {
		return nil, toAPIError(err, "could not update duration")
	}
	return mapDraft(id, b.Snapshot()), nil
}

// DELETE /api/admin/drafts/:draft/items/:index
func (d *DraftController) removeItem(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return nil, api.BadRequest("invalid index")
	}
	if _, err := b.Remove(index); err != nil {
		return nil, toAPIError(err, "could not remove item")
	}
	return mapDraft(id, b.Snapshot()), nil
}

// POST /api/admin/drafts/:draft/save
func (d *DraftController) saveDraft(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	snap := b.Snapshot()
	if len(snap.Items) == 0 || snap.ID == "" {
		return nil, api.BadRequest(playlist.ErrEmptyPlaylist.Error())
	}

	saved, err := d.store.SavePlaylist(ctx.Request.Context(), snap)
	d.metrics.IncSave(err == nil)
	if err != nil {
		log.Error().Err(err).Str("playlist_id", snap.ID).Msg("[drafts] save: could not save playlist")
		return nil, api.Internal("could not save playlist")
	}
	if !b.MarkSaved(saved.ID, saved.UpdatedAt) {
		log.Debug().Str("draft_id", id).Str("playlist_id", saved.ID).Msg("[drafts] save: draft was reloaded meanwhile")
	}
	log.Info().Str("playlist_id", saved.ID).Int("items", len(saved.Items)).Int("user_id", user.ID).
		Msg("[drafts] playlist saved")

	d.notifier.PlaylistSaved(ctx.Request.Context(), saved)
	return mapDraft(id, b.Snapshot()), nil
}

// POST /api/admin/drafts/:draft/load
func (d *DraftController) loadDraft(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, b, apiErr := d.builder(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.LoadDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	pl, err := d.store.GetPlaylist(ctx.Request.Context(), req.PlaylistID)
	if err != nil {
		return nil, toAPIError(err, "could not load playlist")
	}
	b.Replace(pl)
	return mapDraft(id, b.Snapshot()), nil
}

// readUpload reads at most limit bytes of a multipart image into memory.
func readUpload(fh *multipart.FileHeader, limit int64) (playlist.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return playlist.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return playlist.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return playlist.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
