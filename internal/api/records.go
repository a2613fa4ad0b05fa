// internal/api/records.go
package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kibe0711-png/farm-erp-demo-sub000/internal/datastore"
)

// recordKinds are the accepted field record kinds.
var recordKinds = map[string]bool{
	"feeding":     true,
	"labor-log":   true,
	"harvest-log": true,
}

// FieldRecordRequest is the append payload for a field record. Quantity
// accepts string-or-number values.
type FieldRecordRequest struct {
	PhaseID       uint   `json:"phaseId"`
	Date          string `json:"date"`
	Kind          string `json:"kind"`
	ProductOrTask string `json:"productOrTask"`
	Quantity      any    `json:"quantity"`
	Notes         string `json:"notes"`
}

// FieldRecordResponse is the API representation of a field record.
type FieldRecordResponse struct {
	ID            string  `json:"id"`
	PhaseID       uint    `json:"phaseId"`
	Date          string  `json:"date"`
	Kind          string  `json:"kind"`
	ProductOrTask string  `json:"productOrTask"`
	Quantity      float64 `json:"quantity"`
	Notes         string  `json:"notes"`
}

// initRecordRoutes registers the field record endpoints. Records are
// append-only: create and delete, no update.
func (c *Controller) initRecordRoutes() {
	c.Group.POST("/records", c.CreateFieldRecord)
	c.Group.DELETE("/records/:id", c.DeleteFieldRecord)
	c.Group.GET("/phases/:id/records", c.ListFieldRecords)
}

func recordResponse(m *datastore.FieldRecord) FieldRecordResponse {
	return FieldRecordResponse{
		ID:            m.ID,
		PhaseID:       m.PhaseID,
		Date:          m.Date,
		Kind:          m.Kind,
		ProductOrTask: m.ProductOrTask,
		Quantity:      m.Quantity,
		Notes:         m.Notes,
	}
}

// CreateFieldRecord handles POST /api/v1/records
func (c *Controller) CreateFieldRecord(ctx echo.Context) error {
	var req FieldRecordRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if _, err := parseDate("date", req.Date); err != nil {
		return c.handleTypedError(ctx, err, "Invalid record")
	}
	if !recordKinds[req.Kind] {
		return c.handleTypedError(ctx, validationErr("unknown record kind %q", req.Kind), "Invalid record")
	}
	if req.ProductOrTask == "" {
		return c.handleTypedError(ctx, validationErr("productOrTask is required"), "Invalid record")
	}
	quantity, err := parseQuantity("quantity", req.Quantity)
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid record")
	}
	if quantity < 0 {
		return c.handleTypedError(ctx, validationErr("quantity must not be negative, got %v", quantity), "Invalid record")
	}
	// The phase must exist; records pin phases against hard deletion.
	if _, err := c.DS.GetPhase(req.PhaseID); err != nil {
		return c.handleTypedError(ctx, err, "Failed to get phase")
	}

	record := datastore.FieldRecord{
		ID:            uuid.NewString(),
		PhaseID:       req.PhaseID,
		Date:          req.Date,
		Kind:          req.Kind,
		ProductOrTask: req.ProductOrTask,
		Quantity:      quantity,
		Notes:         req.Notes,
	}
	if err := c.DS.CreateFieldRecord(&record); err != nil {
		return c.handleTypedError(ctx, err, "Failed to create field record")
	}
	return ctx.JSON(http.StatusCreated, recordResponse(&record))
}

// DeleteFieldRecord handles DELETE /api/v1/records/:id
func (c *Controller) DeleteFieldRecord(ctx echo.Context) error {
	if err := c.DS.DeleteFieldRecord(ctx.Param("id")); err != nil {
		return c.handleTypedError(ctx, err, "Failed to delete field record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ListFieldRecords handles GET /api/v1/phases/:id/records?from=&to=
func (c *Controller) ListFieldRecords(ctx echo.Context) error {
	id, err := parsePhaseID(ctx.Param("id"))
	if err != nil {
		return c.handleTypedError(ctx, err, "Invalid phase ID")
	}

	from, to := ctx.QueryParam("from"), ctx.QueryParam("to")
	if from != "" {
		if _, err := parseDate("from", from); err != nil {
			return c.handleTypedError(ctx, err, "Invalid date range")
		}
	}
	if to != "" {
		if _, err := parseDate("to", to); err != nil {
			return c.handleTypedError(ctx, err, "Invalid date range")
		}
	}

	records, err := c.DS.GetFieldRecords(id, from, to)
	if err != nil {
		return c.handleTypedError(ctx, err, "Failed to list field records")
	}
	resp := make([]FieldRecordResponse, 0, len(records))
	for i := range records {
		resp = append(resp, recordResponse(&records[i]))
	}
	return ctx.JSON(http.StatusOK, resp)
}
