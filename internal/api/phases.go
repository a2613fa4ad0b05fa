// internal/api/phases.go
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
)

// PhaseRequest is the create/update payload for a phase. Numeric fields
// accept string-or-number values from loosely typed clients.
type PhaseRequest struct {
	CropCode     string `json:"cropCode"`
	Label        string `json:"label"`
	SowingDate   string `json:"sowingDate"`
	FarmName     string `json:"farmName"`
	AreaHectares any    `json:"areaHectares"`
}

// PhaseResponse is the API representation of a phase.
type PhaseResponse struct {
	ID           uint    `json:"id"`
	CropCode     string  `json:"cropCode"`
	Label        string  `json:"label"`
	SowingDate   string  `json:"sowingDate"`
	FarmName     string  `json:"farmName"`
	AreaHectares float64 `json:"areaHectares"`
	Archived     bool    `json:"archived"`
}

// initPhaseRoutes registers phase CRUD endpoints.
func (c *Controller) initPhaseRoutes() {
	phases := c.Group.Group("/phases")
	phases.GET("", c.ListPhases)
	phases.POST("", c.CreatePhase)
	phases.GET("/:id", c.GetPhase)
	phases.PUT("/:id", c.UpdatePhase)
	phases.POST("/:id/archive", c.ArchivePhase)
}

func phaseResponse(m *datastore.Phase) PhaseResponse {
	return PhaseResponse{
		ID:           m.ID,
		CropCode:     m.CropCode,
		Label:        m.Label,
		SowingDate:   m.SowingDate,
		FarmName:     m.FarmName,
		AreaHectares: m.AreaHectares,
		Archived:     m.Archived,
	}
}

// validatePhaseRequest checks and types a phase payload.
func validatePhaseRequest(req *PhaseRequest) (datastore.Phase, error) {
	if req.CropCode == "" {
		return datastore.Phase{}, validationErr("cropCode is required")
	}
	if req.Label == "" {
		return datastore.Phase{}, validationErr("label is required")
	}
	if _, err := parseDate("sowingDate", req.SowingDate); err != nil {
		return datastore.Phase{}, err
	}
	area, err := parseQuantity("areaHectares", req.AreaHectares)
	if err != nil {
		return datastore.Phase{}, err
	}
	if area < 0 {
		return datastore.Phase{}, validationErr("areaHectares must not be negative, got %v", area)
	}
	return datastore.Phase{
		CropCode:     req.CropCode,
		Label:        req.Label,
		SowingDate:   req.SowingDate,
		FarmName:     req.FarmName,
		AreaHectares: area,
	}, nil
}

// ListPhases handles GET /api/v1/phases
func (c *Controller) ListPhases(ctx echo.Context) error {
	includeArchived := ctx.QueryParam("include_archived") == "true"
	phases, err := c.DS.GetAllPhases(includeArchived)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to list phases")
	}

	resp := make([]PhaseResponse, 0, len(phases))
	for i := range phases {
		resp = append(resp, phaseResponse(&phases[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// CreatePhase handles POST /api/v1/phases
func (c *Controller) CreatePhase(ctx echo.Context) error {
	var req PhaseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	phase, err := validatePhaseRequest(&req)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase")
	}
	if err := c.DS.CreatePhase(&phase); err != nil {
		return c.handleTypedError(ctx, err, "Failed to create phase")
	}
	return ctx.JSON(http.StatusCreated, phaseResponse(&phase))
}

// GetPhase handles GET /api/v1/phases/:id
func (c *Controller) GetPhase(ctx echo.Context) error {
	id, err := parsePhaseID(ctx.Param("id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase ID")
	}
	phase, err := c.DS.GetPhase(id)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to get phase")
	}
	return ctx.JSON(http.StatusOK, phaseResponse(&phase))
}

// UpdatePhase handles PUT /api/v1/phases/:id
func (c *Controller) UpdatePhase(ctx echo.Context) error {
	id, err := parsePhaseID(ctx.Param("id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase ID")
	}
	existing, err := c.DS.GetPhase(id)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to get phase")
	}

	var req PhaseRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	phase, err := validatePhaseRequest(&req)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase")
	}
	phase.ID = existing.ID
	phase.Archived = existing.Archived
	if err := c.DS.UpdatePhase(&phase); err != nil {
		return c.handleTypedError(ctx, err, "Failed to update phase")
	}
	return ctx.JSON(http.StatusOK, phaseResponse(&phase))
}

// ArchivePhase handles POST /api/v1/phases/:id/archive
func (c *Controller) ArchivePhase(ctx echo.Context) error {
	id, err := parsePhaseID(ctx.Param("id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase ID")
	}
	if err := c.DS.ArchivePhase(id); err != nil {
		return c.handleTypedError(ctx, err, "Failed to archive phase")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func parsePhaseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, validationErr("phase ID %q is not a number", raw)
	}
	return uint(id), nil
}

// parsePhaseIDList parses a comma-separated phase scope.
func parsePhaseIDList(raw string) ([]uint, error) {
	if raw == "" {
		return nil, validationErr("phase scope is required")
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := parsePhaseID(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
