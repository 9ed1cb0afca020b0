package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hass-bridge/internal/bridges/hass"
	"github.com/nerrad567/hass-bridge/internal/registry"
)

// pointInfo is the JSON representation of a register table entry.
type pointInfo struct {
	Name        string `json:"name"`
	EntityID    string `json:"entity_id"`
	EntityPoint string `json:"entity_point"`
	Domain      string `json:"domain"`
	Writable    bool   `json:"writable"`
	Type        string `json:"type"`
	Units       string `json:"units,omitempty"`
	Description string `json:"description,omitempty"`
	Value       any    `json:"value,omitempty"`
}

// pointValue is the JSON response for a point read or write.
type pointValue struct {
	Point     string    `json:"point"`
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// writeRequest is the JSON body for a point write.
type writeRequest struct {
	Value any `json:"value"`
}

// handleListPoints returns the register table with last known values.
//
// Query parameters:
//   - writable: "true" returns only writable points, "false" only read-only
func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	var points []*registry.PointDefinition

	switch r.URL.Query().Get("writable") {
	case "true":
		points = s.driver.Table().ListByAccess(false)
	case "false":
		points = s.driver.Table().ListByAccess(true)
	default:
		points = s.driver.Table().All()
	}

	infos := make([]pointInfo, 0, len(points))
	for _, p := range points {
		infos = append(infos, pointInfo{
			Name:        p.Name,
			EntityID:    p.EntityID,
			EntityPoint: p.EntityPoint,
			Domain:      string(p.Domain),
			Writable:    !p.ReadOnly,
			Type:        string(p.Type),
			Units:       p.Units,
			Description: p.Description,
			Value:       p.Value(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"points": infos, "count": len(infos)})
}

// handleGetPoint reads a single point from the hub.
func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	value, err := s.driver.GetPoint(r.Context(), name)
	if err != nil {
		writePointError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pointValue{
		Point:     name,
		Value:     value,
		Timestamp: time.Now().UTC(),
	})
}

// handleWritePoint writes a value to a single point.
func (s *Server) handleWritePoint(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	value, err := s.driver.WritePoint(r.Context(), name, req.Value)
	if err != nil {
		writePointError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pointValue{
		Point:     name,
		Value:     value,
		Timestamp: time.Now().UTC(),
	})
}

// handleScrape reads every point and returns the results.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	values, stats := s.driver.ScrapeAll(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"values": values,
		"stats": map[string]any{
			"points":      stats.Points,
			"scraped":     stats.Scraped,
			"failed":      stats.Failed,
			"duration_ms": stats.Duration.Milliseconds(),
		},
	})
}

// writePointError maps driver errors to HTTP responses.
func writePointError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrPointNotFound):
		writeNotFound(w, "point not found")
	case errors.Is(err, hass.ErrReadOnly):
		writeForbidden(w, "point is read-only")
	case errors.Is(err, registry.ErrTypeMismatch),
		errors.Is(err, hass.ErrValidation),
		errors.Is(err, hass.ErrUnsupportedDomain),
		errors.Is(err, hass.ErrUnsupportedPoint):
		writeValidationError(w, err.Error())
	case errors.Is(err, hass.ErrTransport),
		errors.Is(err, hass.ErrUnexpectedState):
		writeBadGateway(w, err.Error())
	default:
		writeInternalError(w, "point operation failed")
	}
}
