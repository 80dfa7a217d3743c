package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// Source is the slice of the db.Store the catalog reads from.
type Source interface {
	ListPlaylists(ctx context.Context) ([]model.Playlist, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	ListBranches(ctx context.Context) ([]model.Branch, error)
}

// Visibility decides whether a company's playlists may be listed.
type Visibility interface {
	IsEnabled(companyID int64) bool
}

// Snapshot is the whole table plus the lookups search needs.
type Snapshot struct {
	Playlists []model.Playlist
	Companies map[int64]model.Company
	Branches  map[int64]model.Branch
	FetchedAt time.Time
}

// Catalog caches a full-table snapshot for the life of the process. The
// first search fetches it; later searches filter the cached copy until a
// refresh is requested.
type Catalog struct {
	mu         sync.Mutex
	source     Source
	visibility Visibility
	snapshot   *Snapshot
	now        func() time.Time
}

func NewCatalog(source Source, visibility Visibility) *Catalog {
	return &Catalog{source: source, visibility: visibility, now: time.Now}
}

// Search returns the playlists matching query. refresh forces a re-fetch.
func (c *Catalog) Search(ctx context.Context, query string, refresh bool) ([]model.Playlist, error) {
	snap, err := c.load(ctx, refresh)
	if err != nil {
		return nil, err
	}
	return Filter(snap, query, c.visibility), nil
}

func (c *Catalog) load(ctx context.Context, refresh bool) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot != nil && !refresh {
		return c.snapshot, nil
	}

	playlists, err := c.source.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch playlists: %w", err)
	}
	companies, err := c.source.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch companies: %w", err)
	}
	branches, err := c.source.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch branches: %w", err)
	}

	snap := &Snapshot{
		Playlists: playlists,
		Companies: make(map[int64]model.Company, len(companies)),
		Branches:  make(map[int64]model.Branch, len(branches)),
		FetchedAt: c.now(),
	}
	for _, co := range companies {
		snap.Companies[co.ID] = co
	}
	for _, b := range branches {
		snap.Branches[b.ID] = b
	}
	c.snapshot = snap
	log.Debug().Int("playlists", len(playlists)).Msg("[search] catalog snapshot refreshed")
	return snap, nil
}

// Filter returns the playlists of snap whose id, name, company name, device
// type labels or any target branch address contain query, case-insensitive.
// An empty query matches everything visible.
func Filter(snap *Snapshot, query string, visibility Visibility) []model.Playlist {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Playlist, 0)
	for _, p := range snap.Playlists {
		if p.CompanyID != nil && visibility != nil && !visibility.IsEnabled(*p.CompanyID) {
			continue
		}
		if needle == "" || matches(snap, p, needle) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func matches(snap *Snapshot, p model.Playlist, needle string) bool {
	if contains(p.ID, needle) || contains(p.Name, needle) {
		return true
	}
	if p.CompanyID != nil {
		if co, ok := snap.Companies[*p.CompanyID]; ok && contains(co.Name, needle) {
			return true
		}
	}
	for _, d := range p.DeviceTypes {
		if contains(d.Label(), needle) || contains(string(d), needle) {
			return true
		}
	}
	for _, id := range p.BranchIDs {
		if b, ok := snap.Branches[id]; ok && contains(b.Address, needle) {
			return true
		}
	}
	return false
}

func contains(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
