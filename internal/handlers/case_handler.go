package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apierrors "github.com/stwalsh4118/casebridge/internal/errors"
	"github.com/stwalsh4118/casebridge/internal/form"
	"github.com/stwalsh4118/casebridge/internal/middleware"
	"github.com/stwalsh4118/casebridge/internal/services"
)

// CaseHandler handles case intake, retrieval and edit requests.
type CaseHandler struct {
	ingest      services.IngestService
	reconstruct services.ReconstructService
	edit        services.CaseEditService
}

// NewCaseHandler creates a new CaseHandler instance.
func NewCaseHandler(ingest services.IngestService, reconstruct services.ReconstructService, edit services.CaseEditService) *CaseHandler {
	return &CaseHandler{
		ingest:      ingest,
		reconstruct: reconstruct,
		edit:        edit,
	}
}

// IssueRequest names one issue option. POST reads it from the JSON body,
// DELETE from the query string.
type IssueRequest struct {
	Category string `json:"category" form:"category" binding:"required"`
	Option   string `json:"option" form:"option" binding:"required"`
}

// Create handles POST /api/v1/cases.
func (h *CaseHandler) Create(c *gin.Context) {
	var sub form.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respondBindError(c, err, "Invalid submission body")
		return
	}

	result, err := h.ingest.Ingest(c.Request.Context(), &sub)
	if err != nil {
		respondServiceError(c, err, "Failed to ingest submission")
		return
	}

	if result.SkippedIssueCount > 0 {
		if log := middleware.GetLogger(c); log != nil {
			log.Warn("Submission ingested with skipped issues", map[string]interface{}{
				"case_id":       result.CaseID.String(),
				"skipped_count": result.SkippedIssueCount,
			})
		}
	}

	c.JSON(http.StatusCreated, result)
}

// Get handles GET /api/v1/cases/:id and returns the rebuilt document.
func (h *CaseHandler) Get(c *gin.Context) {
	caseID, ok := pathUUID(c, "id", "case")
	if !ok {
		return
	}

	doc, err := h.reconstruct.Rebuild(c.Request.Context(), caseID)
	if err != nil {
		respondServiceError(c, err, "Failed to rebuild case")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Raw handles GET /api/v1/cases/:id/raw and returns the submission as first received.
func (h *CaseHandler) Raw(c *gin.Context) {
	caseID, ok := pathUUID(c, "id", "case")
	if !ok {
		return
	}

	raw, err := h.reconstruct.RawPayload(c.Request.Context(), caseID)
	if err != nil {
		respondServiceError(c, err, "Failed to load raw payload")
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Refresh handles POST /api/v1/cases/:id/refresh.
func (h *CaseHandler) Refresh(c *gin.Context) {
	caseID, ok := pathUUID(c, "id", "case")
	if !ok {
		return
	}

	doc, err := h.reconstruct.PersistLatest(c.Request.Context(), caseID)
	if err != nil {
		respondServiceError(c, err, "Failed to refresh latest payload")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// UpdateParty handles PATCH /api/v1/cases/:id/parties/:partyId.
func (h *CaseHandler) UpdateParty(c *gin.Context) {
	caseID, partyID, ok := partyPath(c)
	if !ok {
		return
	}

	var update services.NameUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBindError(c, err, "Invalid name update body")
		return
	}
	if update.First == nil && update.Last == nil && update.FirstAndLast == nil {
		apierrors.BadRequest(c, "At least one of first, last or full is required", nil)
		return
	}

	doc, err := h.edit.UpdatePartyName(c.Request.Context(), caseID, partyID, update)
	if err != nil {
		respondServiceError(c, err, "Failed to update party")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// AddIssue handles POST /api/v1/cases/:id/parties/:partyId/issues.
func (h *CaseHandler) AddIssue(c *gin.Context) {
	caseID, partyID, ok := partyPath(c)
	if !ok {
		return
	}

	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Invalid issue body")
		return
	}

	doc, err := h.edit.AddIssue(c.Request.Context(), caseID, partyID, req.Category, req.Option)
	if err != nil {
		respondServiceError(c, err, "Failed to add issue")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// RemoveIssue handles DELETE /api/v1/cases/:id/parties/:partyId/issues?category=..&option=..
func (h *CaseHandler) RemoveIssue(c *gin.Context) {
	caseID, partyID, ok := partyPath(c)
	if !ok {
		return
	}

	var req IssueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return
	}

	doc, err := h.edit.RemoveIssue(c.Request.Context(), caseID, partyID, req.Category, req.Option)
	if err != nil {
		respondServiceError(c, err, "Failed to remove issue")
		return
	}

	c.JSON(http.StatusOK, doc)
}

func partyPath(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	caseID, ok := pathUUID(c, "id", "case")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	partyID, ok := pathUUID(c, "partyId", "party")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return caseID, partyID, true
}

// pathUUID parses a route parameter, answering 400 when it is malformed.
func pathUUID(c *gin.Context, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+label+" id", map[string]interface{}{
			param: c.Param(param),
		})
		return uuid.Nil, false
	}
	return id, true
}

func respondBindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, map[string]interface{}{
		"reason": err.Error(),
	})
}

// respondServiceError maps service sentinels onto HTTP statuses.
func respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrCaseNotFound):
		apierrors.NotFound(c, apierrors.ErrCaseNotFound, "Case not found")
	case errors.Is(err, services.ErrPartyNotFound):
		apierrors.NotFound(c, apierrors.ErrPartyNotFound, "Party not found")
	case errors.Is(err, services.ErrInvalidSubmission), errors.Is(err, services.ErrInvalidPartyName):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrUnknownIssueOption), errors.Is(err, services.ErrPartyNotPlaintiff):
		apierrors.UnprocessableEntity(c, err.Error())
	default:
		apierrors.InternalServerError(c, message, err)
	}
}
