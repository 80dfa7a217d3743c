package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/auth/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

const secret = "test-secret"

// userStore keeps users in memory; other db.Store methods are not used here.
type userStore struct {
	db.Store
	users map[int]*model.User
}

func (s *userStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	for _, u := range s.users {
		if u.Email == email {
			return 0, db.ErrConflict
		}
	}
	id := len(s.users) + 1
	s.users[id] = &model.User{ID: id, Email: email, HashedPassword: hashedPassword, Name: name}
	return id, nil
}

func (s *userStore) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *userStore) GetUserByID(id int) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

func (s *userStore) UpdateUserProfile(id int, email string, name *string) error {
	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Email, u.Name = email, name
	return nil
}

func newRouter(store *userStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"}, AuthPublicModule(secret, store))
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin", Auth: true, SecretKey: secret, Users: store},
		AuthSessionModule(secret, store))
	return r
}

func send(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupLoginAndProfile(t *testing.T) {
	store := &userStore{users: map[int]*model.User{}}
	r := newRouter(store)

	w := send(t, r, http.MethodPost, "/api/admin/auth/signup", "", map[string]string{
		"email": "Ops@Example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = send(t, r, http.MethodPost, "/api/admin/auth/signup", "", map[string]string{
		"email": "ops@example.com", "password": "another-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(t, r, http.MethodPost, "/api/admin/auth/login", "", map[string]string{
		"email": "ops@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(t, r, http.MethodPost, "/api/admin/auth/login", "", map[string]string{
		"email": "ops@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var tok packets.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.Token)

	w = send(t, r, http.MethodGet, "/api/admin/auth/current_profile", tok.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var prof packets.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prof))
	assert.Equal(t, "ops@example.com", prof.Email)
	assert.Equal(t, "ops@example.com", prof.DisplayName)

	w = send(t, r, http.MethodPut, "/api/admin/auth/current_profile", tok.Token, map[string]any{
		"email": "ops@example.com", "name": "Operaciones",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prof))
	assert.Equal(t, "Operaciones", prof.DisplayName)
}

func TestSignupValidation(t *testing.T) {
	r := newRouter(&userStore{users: map[int]*model.User{}})

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "nope", "password": "long-enough"}},
		{"short password", map[string]string{"email": "a@example.com", "password": "short"}},
		{"missing password", map[string]string{"email": "a@example.com"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := send(t, r, http.MethodPost, "/api/admin/auth/signup", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestProfileRequiresToken(t *testing.T) {
	r := newRouter(&userStore{users: map[int]*model.User{}})
	w := send(t, r, http.MethodGet, "/api/admin/auth/current_profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
