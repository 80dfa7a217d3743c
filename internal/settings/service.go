package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// Service holds the company visibility toggles. It is loaded once at
// startup and passed to whatever needs it.
type Service struct {
	mu    sync.RWMutex
	store Store
	data  Settings
}

// NewService loads the current settings from store.
func NewService(ctx context.Context, store Store) (*Service, error) {
	data, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load company settings: %w", err)
	}
	log.Info().Int("companies", len(data)).Msg("[settings] company settings loaded")
	return &Service{store: store, data: data}, nil
}

// IsEnabled reports whether a company is visible. Companies without a
// setting are enabled.
func (s *Service) IsEnabled(companyID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[companyID]
	return !ok || v.Enabled
}

// Set writes one company's toggle through to the store. The in-memory copy
// only changes once the store accepted the write.
func (s *Service) Set(ctx context.Context, companyID int64, name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	next[companyID] = model.CompanySetting{Enabled: enabled, Name: name}
	if err := s.store.Save(ctx, next); err != nil {
		log.Error().Err(err).Int64("company_id", companyID).Msg("[settings] failed to save company setting")
		return fmt.Errorf("save company settings: %w", err)
	}
	s.data = next
	return nil
}

func (s *Service) All() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// Reload re-reads the store, picking up writes from other instances.
func (s *Service) Reload(ctx context.Context) error {
	data, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload company settings: %w", err)
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}
