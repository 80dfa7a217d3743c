// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// playlist functions
	SavePlaylist(ctx context.Context, p model.Playlist) (model.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (model.Playlist, error)
	ListPlaylists(ctx context.Context) ([]model.Playlist, error)

	// catalog functions
	ListCompanies(ctx context.Context) ([]model.Company, error)
	ListBranches(ctx context.Context) ([]model.Branch, error)
	ListBranchesByCompany(ctx context.Context, companyID int64) ([]model.Branch, error)

	// delivery history
	RecordDelivery(ctx context.Context, d model.Delivery) error
	ListDeliveries(ctx context.Context, playlistID string, limit int) ([]model.Delivery, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	if conn == nil {
		conn = DB
	}
	return &pgStore{db: conn}
}
