package endpoints

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/auth/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// AuthPublicModule mounts public auth endpoints (/auth/signup, /auth/login)
func AuthPublicModule(jwtSecret string, store db.Store) api.Module {
	ctl := newAccountManager(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/signup", ctl.userSignup)
		c.PUBLIC_POST("/auth/login", ctl.userLogin)
	})
}

// AuthSessionModule mounts private session/profile endpoints (JWT required)
func AuthSessionModule(jwtSecret string, store db.Store) api.Module {
	ctl := newAccountManager(jwtSecret, store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.getCurrentProfile)
		c.PUT("/auth/current_profile", ctl.updateCurrentProfile)
	})
}

type AccountManager struct {
	jwtSecret string
	store     db.Store
}

func newAccountManager(secret string, store db.Store) *AccountManager {
	return &AccountManager{jwtSecret: secret, store: store}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func profile(u *model.User) packets.ProfileResponse {
	return packets.ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		DisplayName: u.DisplayName(),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

// POST /api/admin/auth/signup
func (a *AccountManager) userSignup(ctx *gin.Context) (any, *api.APIError) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	email := normalizeEmail(request.Email)

	if existing, _ := a.store.GetUserByEmail(email); existing != nil {
		log.Warn().Str("email", email).Msg("signup email already registered")
		return nil, api.Conflict("email already registered")
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		return nil, api.Internal("could not hash password")
	}

	userID, err := a.store.CreateUser(email, hashed, request.Name)
	if errors.Is(err, db.ErrConflict) {
		return nil, api.Conflict("email already registered")
	}
	if err != nil {
		return nil, api.Internal("could not create user")
	}

	token, err := middleware.GenerateJWT(userID, a.jwtSecret)
	if err != nil {
		return nil, api.Internal("could not generate token")
	}

	log.Info().Int("user_id", userID).Msg("[auth] operator signed up")
	return api.Created(packets.TokenResponse{Token: token}), nil
}

// POST /api/admin/auth/login
func (a *AccountManager) userLogin(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	foundUser, err := a.store.GetUserByEmail(normalizeEmail(request.Email))
	if err != nil || foundUser == nil || !middleware.CheckPassword(foundUser.HashedPassword, request.Password) {
		return nil, api.Unauthorized(middleware.ErrInvalidCredentials.Error())
	}

	token, err := middleware.GenerateJWT(foundUser.ID, a.jwtSecret)
	if err != nil {
		return nil, api.Internal("could not generate token")
	}

	return packets.TokenResponse{Token: token}, nil
}

// GET /api/admin/auth/current_profile
func (a *AccountManager) getCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return profile(user), nil
}

// PUT /api/admin/auth/current_profile
func (a *AccountManager) updateCurrentProfile(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.UpdateCurrentProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	email := normalizeEmail(request.Email)

	if email != user.Email {
		if other, _ := a.store.GetUserByEmail(email); other != nil {
			return nil, api.Conflict("email already in use")
		}
	}

	err := a.store.UpdateUserProfile(user.ID, email, request.Name)
	if errors.Is(err, db.ErrConflict) {
		return nil, api.Conflict("email already in use")
	}
	if err != nil {
		return nil, api.Internal("could not update profile")
	}

	updated, err := a.store.GetUserByID(user.ID)
	if err != nil {
		return nil, api.Internal("could not fetch updated profile")
	}
	return profile(updated), nil
}
