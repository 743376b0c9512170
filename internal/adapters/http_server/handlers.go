package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/simonkochhh-source/vacation-planner-sub005/internal/app"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/domain"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/dragdrop"
	"github.com/simonkochhh-source/vacation-planner-sub005/internal/travel"
)

type Handlers struct{ P *app.Planner }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/estimate", h.estimate)
	s.mux.Route("/v1/trips/{id}", func(r chi.Router) {
		r.Get("/timeline", h.getTimeline)
		r.Post("/destinations", h.insertDestination)
		r.Get("/drag", h.dragState)
		r.Post("/drag", h.beginDrag)
		r.Post("/drag/hover", h.hover)
		r.Post("/drag/drop", h.drop)
		r.Post("/drag/cancel", h.cancel)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors to problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrDropInFlight), errors.Is(err, domain.ErrNotDragging):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidPosition):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) getTimeline(w http.ResponseWriter, r *http.Request) {
	view, err := h.P.Timeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(view)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write timeline body")
	}
}

func (h *Handlers) dragState(w http.ResponseWriter, r *http.Request) {
	st, err := h.P.DragState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type beginRequest struct {
	DestinationID string `json:"destinationId"`
	SourceDay     string `json:"sourceDay"`
}

func (h *Handlers) beginDrag(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.DestinationID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "destinationId is required")
		return
	}
	st, err := h.P.BeginDrag(r.Context(), chi.URLParam(r, "id"), req.DestinationID, req.SourceDay)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type hoverRequest struct {
	Day         string `json:"day"`
	VisualIndex *int   `json:"visualIndex"`
}

func (h *Handlers) hover(w http.ResponseWriter, r *http.Request) {
	var req hoverRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Day == "" || req.VisualIndex == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "day and visualIndex are required")
		return
	}
	st, err := h.P.Hover(r.Context(), chi.URLParam(r, "id"), req.Day, *req.VisualIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// dropRequest without a targetIndex drops on the hovered slot.
type dropRequest struct {
	Day         string `json:"day"`
	TargetIndex *int   `json:"targetIndex"`
}

func (h *Handlers) drop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	idx := -1
	if req.TargetIndex != nil {
		if *req.TargetIndex < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid body", "targetIndex must not be negative")
			return
		}
		idx = *req.TargetIndex
	}
	res, err := h.P.Drop(r.Context(), chi.URLParam(r, "id"), req.Day, idx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	st, err := h.P.Cancel(r.Context(), chi.URLParam(r, "id"), dragdrop.ParseReason(req.Reason))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type insertRequest struct {
	Name            string              `json:"name"`
	Category        string              `json:"category"`
	Coordinates     *domain.Coordinates `json:"coordinates"`
	EndDate         string              `json:"endDate"`
	TransportToNext *struct {
		Mode     string   `json:"mode"`
		Duration *int     `json:"duration"`
		Distance *float64 `json:"distance"`
	} `json:"transportToNext"`
	Budget      *float64 `json:"budget"`
	Day         string   `json:"day"`
	Position    string   `json:"position"`
	AnchorIndex int      `json:"anchorIndex"`
}

type insertResponse struct {
	Destination domain.Destination  `json:"destination"`
	Timeline    domain.TimelineView `json:"timeline"`
}

func (h *Handlers) insertDestination(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if !decode(w, r, &req) {
		return
	}
	in := app.InsertRequest{
		Name:        req.Name,
		Category:    domain.Category(strings.ToUpper(strings.TrimSpace(req.Category))),
		Coordinates: req.Coordinates,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		Day:         req.Day,
		Position:    domain.InsertPosition(strings.ToLower(req.Position)),
		AnchorIndex: req.AnchorIndex,
	}
	if t := req.TransportToNext; t != nil {
		mode, ok := domain.ParseTransportMode(t.Mode)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid body", "unknown transport mode "+strconv.Quote(t.Mode))
			return
		}
		in.TransportToNext = &domain.TransportToNext{Mode: mode, Duration: t.Duration, Distance: t.Distance}
	}
	d, view, err := h.P.InsertDestination(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, insertResponse{Destination: d, Timeline: view})
}

type estimateResponse struct {
	travel.Estimate
	Mode domain.TransportMode `json:"mode"`
}

func (h *Handlers) estimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var vals [4]float64
	for i, k := range []string{"fromLat", "fromLng", "toLat", "toLng"} {
		f, err := strconv.ParseFloat(q.Get(k), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			writeProblem(w, http.StatusBadRequest, "Invalid query", k+" must be a finite number")
			return
		}
		vals[i] = f
	}
	mode := domain.Driving
	if m := q.Get("mode"); m != "" {
		var ok bool
		if mode, ok = domain.ParseTransportMode(m); !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid query", "unknown mode "+strconv.Quote(m))
			return
		}
	}
	est := travel.EstimateLeg(
		domain.Coordinates{Lat: vals[0], Lng: vals[1]},
		domain.Coordinates{Lat: vals[2], Lng: vals[3]},
		mode,
	)
	writeJSON(w, http.StatusOK, estimateResponse{Estimate: est, Mode: mode})
}
