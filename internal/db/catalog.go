package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

const branchColumns = `id, company_id, name, address, phone, email, hours, latitude, longitude`

func (s *pgStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var out []model.Company
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name FROM companies ORDER BY name;`); err != nil {
		log.Error().Err(err).Msg("[db] ListCompanies: query failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var out []model.Branch
	q := `SELECT ` + branchColumns + ` FROM branches ORDER BY company_id, name;`
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		log.Error().Err(err).Msg("[db] ListBranches: query failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListBranchesByCompany(ctx context.Context, companyID int64) ([]model.Branch, error) {
	var out []model.Branch
	q := `SELECT ` + branchColumns + ` FROM branches WHERE company_id = $1 ORDER BY name;`
	if err := s.db.SelectContext(ctx, &out, q, companyID); err != nil {
		log.Error().Err(err).Int64("company_id", companyID).Msg("[db] ListBranchesByCompany: query failed")
		return nil, err
	}
	return out, nil
}
