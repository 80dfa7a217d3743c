package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/mqtt"
	"github.com/Nixie-Tech-LLC/cartelera/internal/storage"
)

const testSecret = "test-secret"

// stubStore is an in-memory db.Store.
type stubStore struct {
	mu         sync.Mutex
	users      map[int]*model.User
	playlists  map[string]model.Playlist
	companies  []model.Company
	branches   []model.Branch
	deliveries []model.Delivery
	saveErr    error
	// saveGate, when set, holds SavePlaylist until it is closed; saving is
	// signalled first
	saveGate chan struct{}
	saving   chan struct{}
}

var _ db.Store = (*stubStore)(nil)

func newStubStore() *stubStore {
	return &stubStore{
		users: map[int]*model.User{
			1: {ID: 1, Email: "ana@example.com"},
			2: {ID: 2, Email: "luis@example.com"},
		},
		playlists: map[string]model.Playlist{},
	}
}

func (s *stubStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return 0, db.ErrConflict
		}
	}
	id := len(s.users) + 1
	s.users[id] = &model.User{ID: id, Email: email, HashedPassword: hashedPassword, Name: name}
	return id, nil
}

func (s *stubStore) GetUserByEmail(email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *stubStore) GetUserByID(id int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

func (s *stubStore) UpdateUserProfile(id int, email string, name *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Email, u.Name = email, name
	return nil
}

func (s *stubStore) SavePlaylist(ctx context.Context, p model.Playlist) (model.Playlist, error) {
	if s.saveGate != nil {
		s.saving <- struct{}{}
		<-s.saveGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return model.Playlist{}, s.saveErr
	}
	p = p.Clone()
	p.UpdatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.playlists[p.ID] = p
	return p.Clone(), nil
}

func (s *stubStore) GetPlaylist(ctx context.Context, id string) (model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return model.Playlist{}, db.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *stubStore) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Playlist, 0, len(s.playlists))
	for _, p := range s.playlists {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *stubStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	return s.companies, nil
}

func (s *stubStore) ListBranches(ctx context.Context) ([]model.Branch, error) {
	return s.branches, nil
}

func (s *stubStore) ListBranchesByCompany(ctx context.Context, companyID int64) ([]model.Branch, error) {
	var out []model.Branch
	for _, b := range s.branches {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubStore) RecordDelivery(ctx context.Context, d model.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, d)
	return nil
}

func (s *stubStore) ListDeliveries(ctx context.Context, playlistID string, limit int) ([]model.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Delivery
	for _, d := range s.deliveries {
		if playlistID == "" || d.PlaylistID == playlistID {
			out = append(out, d)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingPublisher captures what would have gone to the broker.
type recordingPublisher struct {
	mu       sync.Mutex
	updated  []string
	commands []string
	err      error
}

func (p *recordingPublisher) PublishPlaylistUpdated(playlistID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, playlistID)
	return p.err
}

func (p *recordingPublisher) SendCommand(deviceID string, cmd mqtt.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.commands = append(p.commands, deviceID+":"+string(cmd))
	return nil
}

type stubVerifier struct{ err error }

func (v stubVerifier) Verify(ctx context.Context, url string) error { return v.err }

// memoryMedia is a storage.Storage that keeps files in a map.
type memoryMedia struct {
	mu      sync.Mutex
	files   map[string][]byte
	objects []storage.Object
	listErr error
}

func (m *memoryMedia) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[filename] = data
	return "https://cdn.example.com/uploads/" + filename, nil
}

func (m *memoryMedia) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	return m.objects, m.listErr
}

func newTestRouter(t *testing.T, store *stubStore, modules ...api.Module) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	packets.RegisterValidators()
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: testSecret,
		Users:     store,
	}, modules...)
	return r
}

func tokenFor(t *testing.T, userID int) string {
	t.Helper()
	token, err := middleware.GenerateJWT(userID, testSecret)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, r http.Handler, method, path string, userID int, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var errBoom = errors.New("boom")
