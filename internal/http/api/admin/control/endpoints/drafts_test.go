package endpoints

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	playbackapi "github.com/Nixie-Tech-LLC/cartelera/internal/http/api/tv/endpoints"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
	"github.com/Nixie-Tech-LLC/cartelera/internal/redis"
)

type draftHarness struct {
	router    http.Handler
	store     *stubStore
	cache     *redis.Client
	publisher *recordingPublisher
	media     *memoryMedia
}

func newDraftHarness(t *testing.T, verifyErr error) *draftHarness {
	t.Helper()
	h := &draftHarness{
		store:     newStubStore(),
		cache:     redis.NewTestClient(t),
		publisher: &recordingPublisher{},
		media:     &memoryMedia{},
	}
	ws := playlist.NewWorkspace(
		playlist.WithVerifier(stubVerifier{err: verifyErr}),
		playlist.WithMediaStore(h.media),
		playlist.WithProbe(func(io.ReadSeeker) (time.Duration, error) { return 12 * time.Second, nil }),
	)
	h.router = newTestRouter(t, h.store, DraftModule(ws, h.store, NewNotifier(h.cache, h.publisher), nil))
	return h
}

func (h *draftHarness) open(t *testing.T, userID int) string {
	t.Helper()
	w := doJSON(t, h.router, http.MethodPost, "/api/admin/drafts", userID, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decode[packets.DraftResponse](t, w)
	require.NotEmpty(t, d.DraftID)
	assert.Equal(t, model.DefaultPlaylistName, d.Playlist.Name)
	return d.DraftID
}

func itemNames(d packets.DraftResponse) []string {
	out := make([]string, len(d.Playlist.Items))
	for i, it := range d.Playlist.Items {
		out[i] = it.Name
	}
	return out
}

func TestDraftEditAndSave(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)
	base := "/api/admin/drafts/" + id

	w := doJSON(t, h.router, http.MethodPost, base+"/videos/youtube", 1,
		packets.YouTubeRequest{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	d := decode[packets.DraftResponse](t, w)
	require.Len(t, d.Playlist.Items, 1)
	assert.Equal(t, "youtube-dQw4w9WgXcQ", d.Playlist.Items[0].Name)
	assert.Equal(t, 30, d.Playlist.Items[0].DurationSeconds)
	assert.NotEmpty(t, d.Playlist.ID)

	w = doJSON(t, h.router, http.MethodPost, base+"/videos/youtube", 1,
		packets.YouTubeRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h.router, http.MethodPost, base+"/images/library", 1,
		packets.LibraryImageRequest{Name: "promo.png", URL: "https://cdn.example.com/promo.png"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	toggled := decode[packets.ToggleResponse](t, w)
	assert.Equal(t, "added", toggled.Result)
	assert.Equal(t, []string{"youtube-dQw4w9WgXcQ", "promo.png"}, itemNames(toggled.Draft))

	w = doJSON(t, h.router, http.MethodPut, base+"/items/move", 1,
		packets.MoveItemRequest{Source: "promo.png", Target: "youtube-dQw4w9WgXcQ"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"promo.png", "youtube-dQw4w9WgXcQ"}, itemNames(decode[packets.DraftResponse](t, w)))

	w = doJSON(t, h.router, http.MethodPut, base+"/items/promo.png/duration", 1, packets.DurationRequest{Seconds: 7})
	assert.Equal(t, http.StatusBadRequest, w.Code, "7 is not on the duration menu")

	w = doJSON(t, h.router, http.MethodPut, base+"/items/promo.png/duration", 1, packets.DurationRequest{Seconds: 8})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 8, decode[packets.DraftResponse](t, w).Playlist.Items[0].DurationSeconds)

	name := "Promos de marzo"
	company := int64(4)
	w = doJSON(t, h.router, http.MethodPut, base, 1, packets.UpdateDraftRequest{
		Name:        &name,
		CompanyID:   &company,
		BranchIDs:   []int64{10, 11},
		DeviceTypes: []string{"kiosk", "totem"},
		Schedule:    &packets.ScheduleRequest{StartDate: "2026-03-01", StartTime: "08:30"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d = decode[packets.DraftResponse](t, w)
	assert.Equal(t, name, d.Playlist.Name)
	assert.Equal(t, []packets.DeviceTypeResponse{{Value: "kiosk", Label: "Kiosco"}, {Value: "totem", Label: "Tótem"}}, d.Playlist.DeviceTypes)

	playlistID := d.Playlist.ID
	require.NoError(t, h.cache.Set(context.Background(), redis.PlaylistETagKey(playlistID), "stale", 0))

	w = doJSON(t, h.router, http.MethodPost, base+"/save", 1, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[packets.DraftResponse](t, w)
	assert.NotNil(t, saved.Playlist.UpdatedAt)

	stored, err := h.store.GetPlaylist(context.Background(), playlistID)
	require.NoError(t, err)
	assert.Equal(t, name, stored.Name)
	assert.Len(t, stored.Items, 2)

	_, fresh, err := playbackapi.Encode(stored)
	require.NoError(t, err)
	cached, err := h.cache.Get(context.Background(), redis.PlaylistETagKey(playlistID))
	require.NoError(t, err)
	assert.Equal(t, fresh, cached, "save caches the saved content's tag")
	assert.Equal(t, []string{playlistID}, h.publisher.updated)
}

func TestDraftValidation(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)
	base := "/api/admin/drafts/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"save empty draft", http.MethodPost, base + "/save", nil, http.StatusBadRequest},
		{"bad youtube url", http.MethodPost, base + "/videos/youtube", packets.YouTubeRequest{URL: "https://vimeo.com/1"}, http.StatusBadRequest},
		{"remove out of range", http.MethodDelete, base + "/items/3", nil, http.StatusBadRequest},
		{"remove bad index", http.MethodDelete, base + "/items/x", nil, http.StatusBadRequest},
		{"move unknown", http.MethodPut, base + "/items/move", packets.MoveItemRequest{Source: "a", Target: "b"}, http.StatusBadRequest},
		{"unknown device type", http.MethodPut, base, packets.UpdateDraftRequest{DeviceTypes: []string{"toaster"}}, http.StatusBadRequest},
		{"bad schedule date", http.MethodPut, base, packets.UpdateDraftRequest{Schedule: &packets.ScheduleRequest{StartDate: "01/03/2026"}}, http.StatusBadRequest},
		{"unknown draft", http.MethodGet, "/api/admin/drafts/nope", nil, http.StatusNotFound},
		{"load missing playlist", http.MethodPost, base + "/load", packets.LoadDraftRequest{PlaylistID: "missing"}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, h.router, tc.method, tc.path, 1, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			if tc.want >= 400 {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestDraftUnknownDurationNameIsNoop(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)
	w := doJSON(t, h.router, http.MethodPut, "/api/admin/drafts/"+id+"/items/ghost/duration", 1, packets.DurationRequest{Seconds: 5})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[packets.DraftResponse](t, w).Playlist.Items)
}

func TestDraftOwnedByAnotherUser(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)

	w := doJSON(t, h.router, http.MethodGet, "/api/admin/drafts/"+id, 2, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h.router, http.MethodDelete, "/api/admin/drafts/"+id, 2, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h.router, http.MethodDelete, "/api/admin/drafts/"+id, 1, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h.router, http.MethodGet, "/api/admin/drafts/"+id, 1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibraryToggleVerification(t *testing.T) {
	h := newDraftHarness(t, errBoom)
	id := h.open(t, 1)

	w := doJSON(t, h.router, http.MethodPost, "/api/admin/drafts/"+id+"/images/library", 1,
		packets.LibraryImageRequest{Name: "broken.png", URL: "https://cdn.example.com/broken.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h.router, http.MethodGet, "/api/admin/drafts/"+id, 1, nil)
	assert.Empty(t, decode[packets.DraftResponse](t, w).Playlist.Items, "failed verification leaves the draft unchanged")
}

func TestLibraryToggleRemovesSelected(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)
	path := "/api/admin/drafts/" + id + "/images/library"
	body := packets.LibraryImageRequest{Name: "promo.png", URL: "https://cdn.example.com/promo.png"}

	w := doJSON(t, h.router, http.MethodPost, path, 1, body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h.router, http.MethodPost, path, 1, body)
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decode[packets.ToggleResponse](t, w)
	assert.Equal(t, "removed", toggled.Result)
	assert.Empty(t, toggled.Draft.Playlist.Items)
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func multipartRequest(t *testing.T, path string, userID int, parts ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		hdr.Set("Content-Type", p.contentType)
		fw, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	return req
}

func TestUploadImagesSkipsInvalidFiles(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)

	req := multipartRequest(t, "/api/admin/drafts/"+id+"/images/upload", 1,
		part{"files", "a.png", "image/png", []byte("\x89PNG")},
		part{"files", "notes.txt", "text/plain", []byte("hola")},
		part{"files", "big.jpg", "image/jpeg", bytes.Repeat([]byte{1}, playlist.MaxImageBytes+10)},
		part{"files", "a.png", "image/png", []byte("\x89PNG")},
	)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[packets.UploadImagesResponse](t, w)
	require.Len(t, resp.Added, 1)
	assert.Equal(t, "a.png", resp.Added[0].Name)
	assert.Equal(t, "data:image/png;base64,iVBORw==", resp.Added[0].URL)
	assert.Equal(t, 3, resp.Added[0].DurationSeconds)

	skipped := map[string]string{}
	for _, s := range resp.Skipped {
		skipped[s.Filename] = s.Message
	}
	assert.Len(t, resp.Skipped, 3)
	assert.Equal(t, playlist.ErrNotAnImage.Error(), skipped["notes.txt"])
	assert.Equal(t, playlist.ErrFileTooLarge.Error(), skipped["big.jpg"])
	assert.Equal(t, playlist.ErrDuplicateName.Error(), skipped["a.png"])
}

func TestUploadVideoStoresAndProbes(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)

	req := multipartRequest(t, "/api/admin/drafts/"+id+"/videos/upload", 1,
		part{"file", "spot.mp4", "video/mp4", []byte("not really an mp4")})
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	d := decode[packets.DraftResponse](t, w)
	require.Len(t, d.Playlist.Items, 1)
	it := d.Playlist.Items[0]
	assert.Equal(t, model.VideoKindLocal, it.VideoKind)
	assert.Equal(t, "https://cdn.example.com/uploads/spot.mp4", it.URL)
	assert.Equal(t, 12, it.DurationSeconds)
	assert.Contains(t, h.media.files, "spot.mp4")
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	h := newDraftHarness(t, nil)
	h.store.saveErr = errBoom
	id := h.open(t, 1)
	base := "/api/admin/drafts/" + id

	w := doJSON(t, h.router, http.MethodPost, base+"/videos/youtube", 1,
		packets.YouTubeRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h.router, http.MethodPost, base+"/save", 1, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, h.publisher.updated)

	w = doJSON(t, h.router, http.MethodGet, base, 1, nil)
	assert.Len(t, decode[packets.DraftResponse](t, w).Playlist.Items, 1)
}

func TestEditDuringSaveIsKept(t *testing.T) {
	h := newDraftHarness(t, nil)
	id := h.open(t, 1)
	base := "/api/admin/drafts/" + id

	w := doJSON(t, h.router, http.MethodPost, base+"/videos/youtube", 1,
		packets.YouTubeRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusCreated, w.Code)

	h.store.saveGate = make(chan struct{})
	h.store.saving = make(chan struct{}, 1)
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- doJSON(t, h.router, http.MethodPost, base+"/save", 1, nil) }()
	<-h.store.saving

	name := "Edited while saving"
	w = doJSON(t, h.router, http.MethodPut, base, 1, packets.UpdateDraftRequest{Name: &name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	close(h.store.saveGate)
	saved := <-done
	require.Equal(t, http.StatusOK, saved.Code, saved.Body.String())

	w = doJSON(t, h.router, http.MethodGet, base, 1, nil)
	d := decode[packets.DraftResponse](t, w)
	assert.Equal(t, name, d.Playlist.Name)
	assert.NotNil(t, d.Playlist.UpdatedAt)

	stored, err := h.store.GetPlaylist(context.Background(), d.Playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPlaylistName, stored.Name, "the save wrote the earlier snapshot")
}

func TestLoadReplacesDraft(t *testing.T) {
	h := newDraftHarness(t, nil)
	_, err := h.store.SavePlaylist(context.Background(), model.Playlist{
		ID:    "abc123xyz",
		Name:  "Guardada",
		Items: []model.PlaylistItem{{Name: "x.png", URL: "https://cdn.example.com/x.png", Kind: model.MediaKindImage, DurationSeconds: 5}},
	})
	require.NoError(t, err)

	id := h.open(t, 1)
	base := "/api/admin/drafts/" + id
	w := doJSON(t, h.router, http.MethodPost, base+"/videos/youtube", 1,
		packets.YouTubeRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h.router, http.MethodPost, base+"/load", 1, packets.LoadDraftRequest{PlaylistID: "abc123xyz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[packets.DraftResponse](t, w)
	assert.Equal(t, "abc123xyz", d.Playlist.ID)
	assert.Equal(t, []string{"x.png"}, itemNames(d))
}
