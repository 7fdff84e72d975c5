package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/casebridge/internal/errors"
	"github.com/stwalsh4118/casebridge/internal/form"
	"github.com/stwalsh4118/casebridge/internal/middleware"
	"github.com/stwalsh4118/casebridge/internal/taxonomy"
)

// TaxonomySource is the read side of the taxonomy cache.
type TaxonomySource interface {
	Categories(ctx context.Context) ([]taxonomy.Category, error)
	Refresh(ctx context.Context) error
}

// TaxonomyHandler exposes the issue categories and their options.
type TaxonomyHandler struct {
	source TaxonomySource
}

// NewTaxonomyHandler creates a new TaxonomyHandler instance.
func NewTaxonomyHandler(source TaxonomySource) *TaxonomyHandler {
	return &TaxonomyHandler{source: source}
}

// TaxonomyResponse lists categories in display order.
type TaxonomyResponse struct {
	Categories []CategoryData `json:"categories"`
	Count      int            `json:"count"`
}

// CategoryData is one category with the document fields it maps to.
type CategoryData struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	FlagField    string   `json:"flag_field,omitempty"`
	ListField    string   `json:"list_field,omitempty"`
	Options      []string `json:"options"`
	DisplayOrder int      `json:"display_order"`
}

// List handles GET /api/v1/taxonomy.
func (h *TaxonomyHandler) List(c *gin.Context) {
	categories, err := h.source.Categories(c.Request.Context())
	if err != nil {
		apierrors.ServiceUnavailable(c, "Issue taxonomy is unavailable", err)
		return
	}

	c.JSON(http.StatusOK, buildTaxonomyResponse(categories))
}

// Refresh handles POST /api/v1/taxonomy/refresh and reloads the cache.
func (h *TaxonomyHandler) Refresh(c *gin.Context) {
	if err := h.source.Refresh(c.Request.Context()); err != nil {
		apierrors.ServiceUnavailable(c, "Failed to reload issue taxonomy", err)
		return
	}

	categories, err := h.source.Categories(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to read issue taxonomy", err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Issue taxonomy reloaded", map[string]interface{}{
			"categories": len(categories),
		})
	}

	c.JSON(http.StatusOK, buildTaxonomyResponse(categories))
}

func buildTaxonomyResponse(categories []taxonomy.Category) TaxonomyResponse {
	resp := TaxonomyResponse{
		Categories: make([]CategoryData, 0, len(categories)),
		Count:      len(categories),
	}

	for _, cat := range categories {
		data := CategoryData{
			Code:         cat.Code,
			Name:         cat.Name,
			DisplayOrder: cat.DisplayOrder,
			Options:      make([]string, 0, len(cat.Options)),
		}
		if fields, ok := form.LookupCategory(cat.Code); ok {
			data.FlagField = fields.FlagField
			data.ListField = fields.ListField
		}
		for _, opt := range cat.Options {
			data.Options = append(data.Options, opt.Name)
		}
		resp.Categories = append(resp.Categories, data)
	}

	return resp
}
