package endpoints

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/db"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/settings"
)

type CatalogController struct {
	store    db.Store
	settings *settings.Service
}

// CatalogModule mounts the read-only company and branch listings, plus the
// company visibility settings.
func CatalogModule(store db.Store, svc *settings.Service) api.Module {
	ctl := &CatalogController{store: store, settings: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/companies", ctl.listCompanies)
		c.GET("/companies/:id/branches", ctl.listBranches)

		c.GET("/settings/companies", ctl.listCompanySettings)
		c.PUT("/settings/companies/:id", ctl.updateCompanySetting)
	})
}

func companyID(ctx *gin.Context) (int64, *api.APIError) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, api.BadRequest("invalid company id")
	}
	return id, nil
}

// GET /api/admin/companies
func (c *CatalogController) listCompanies(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	companies, err := c.store.ListCompanies(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("[catalog] could not list companies")
		return nil, api.Internal("could not list companies")
	}
	out := make([]packets.CompanyResponse, 0, len(companies))
	for _, co := range companies {
		if !c.settings.IsEnabled(co.ID) {
			continue
		}
		out = append(out, packets.CompanyResponse{ID: co.ID, Name: co.Name, Enabled: true})
	}
	return out, nil
}

// GET /api/admin/companies/:id/branches
func (c *CatalogController) listBranches(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := companyID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if !c.settings.IsEnabled(id) {
		return nil, api.NotFound("company not found")
	}
	branches, err := c.store.ListBranchesByCompany(ctx.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("company_id", id).Msg("[catalog] could not list branches")
		return nil, api.Internal("could not list branches")
	}
	if branches == nil {
		branches = []model.Branch{}
	}
	return branches, nil
}

// GET /api/admin/settings/companies
func (c *CatalogController) listCompanySettings(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	companies, err := c.store.ListCompanies(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("[settings] could not list companies")
		return nil, api.Internal("could not list companies")
	}
	out := make([]packets.CompanyResponse, len(companies))
	for i, co := range companies {
		out[i] = packets.CompanyResponse{ID: co.ID, Name: co.Name, Enabled: c.settings.IsEnabled(co.ID)}
	}
	return out, nil
}

// PUT /api/admin/settings/companies/:id
func (c *CatalogController) updateCompanySetting(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := companyID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.CompanySettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	name := req.Name
	if name == "" {
		if existing, ok := c.settings.All()[id]; ok {
			name = existing.Name
		}
	}
	if err := c.settings.Set(ctx.Request.Context(), id, name, *req.Enabled); err != nil {
		log.Error().Err(err).Int64("company_id", id).Msg("[settings] could not update company")
		return nil, api.Internal("could not update company setting")
	}
	log.Info().Int64("company_id", id).Bool("enabled", *req.Enabled).Int("user_id", user.ID).
		Msg("[settings] company visibility changed")
	return packets.CompanyResponse{ID: id, Name: name, Enabled: *req.Enabled}, nil
}
