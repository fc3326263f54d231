// Package api exposes the HTTP boundary: ingestion, resampled range
// queries, alert configuration, notifications, and the live stream.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"firewatch-backend/internal/alerting"
	"firewatch-backend/internal/bus"
	"firewatch-backend/internal/interp"
	"firewatch-backend/internal/model"
	"firewatch-backend/internal/storage"
	"firewatch-backend/internal/stream"
)

type Handler struct {
	Points *storage.PointStore
	State  *storage.StateStore
	Engine *alerting.Engine
	Hub    *stream.Hub
	Bus    *bus.Publisher
	Logger *slog.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/data", h.handleDataIngest)
	r.Get("/data", h.handleDataQuery)
	r.Get("/locations", h.handleLocations)
	r.Get("/getalerts/{deviceID}", h.handleGetAlerts)
	r.Post("/modify_alerts/{deviceID}", h.handleModifyAlerts)
	r.Get("/get_notifications", h.handleGetNotifications)
	r.Get("/help", h.handleHelp)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.Serve)
	}
}

func (h *Handler) handleDataIngest(w http.ResponseWriter, r *http.Request) {
	var point model.DataPoint
	if err := decodeJSON(r, &point); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	if err := h.Points.Append(point); err != nil {
		if storage.IsValidation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
			return
		}
		h.Logger.Error("append failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to store data point"})
		return
	}

	fired, err := h.Engine.Evaluate(point)
	if err != nil {
		// The point is already committed; counter persistence failure is
		// an operational problem, not a caller one.
		h.Logger.Error("alert evaluation failed",
			slog.String("device_id", point.DeviceID),
			slog.String("error", err.Error()))
	}

	if h.Hub != nil {
		h.Hub.BroadcastPoint(point)
		for _, n := range fired {
			h.Hub.BroadcastNotification(n)
		}
	}
	if err := h.Bus.Publish(bus.SubjectPointIngested, point); err != nil {
		h.Logger.Warn("bus publish failed", slog.String("error", err.Error()))
	}
	for _, n := range fired {
		if err := h.Bus.Publish(bus.SubjectAlertFired, n); err != nil {
			h.Logger.Warn("bus publish failed", slog.String("error", err.Error()))
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Data added successfully"})
}

func (h *Handler) handleDataQuery(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	startRaw := r.URL.Query().Get("start_time")
	endRaw := r.URL.Query().Get("end_time")
	if deviceID == "" || startRaw == "" || endRaw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "device_id, start_time and end_time are required"})
		return
	}
	start, err := model.ParseTimestamp(startRaw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "unparseable start_time"})
		return
	}
	end, err := model.ParseTimestamp(endRaw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "unparseable end_time"})
		return
	}
	interval := 1
	if raw := r.URL.Query().Get("interval"); raw != "" {
		interval, err = strconv.Atoi(raw)
		if err != nil || interval < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "interval must be a positive integer"})
			return
		}
	}

	points := h.Points.Query(deviceID, nil, nil)
	resampled := interp.Resample(points, start, end, time.Duration(interval)*time.Second)
	writeJSON(w, http.StatusOK, resampled)
}

func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.State.Locations())
}

func (h *Handler) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	cfg, err := h.State.AlertConfig(deviceID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "device not found"})
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) handleModifyAlerts(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	var patch model.AlertConfigPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	cfg, err := h.State.MergeAlertConfig(deviceID, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "device not found"})
			return
		}
		h.Logger.Error("alert config update failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "failed to update alerts"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Alerts updated successfully", "alerts": cfg})
}

func (h *Handler) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.State.Notifications())
}

func (h *Handler) handleHelp(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "firewatch-backend",
		"endpoints": []map[string]string{
			{"method": "POST", "path": "/data", "description": "Ingest one sensor reading"},
			{"method": "GET", "path": "/data", "description": "Query resampled readings (device_id, start_time, end_time, interval)"},
			{"method": "GET", "path": "/locations", "description": "Static device location registry"},
			{"method": "GET", "path": "/getalerts/{device_id}", "description": "Alert thresholds for a device"},
			{"method": "POST", "path": "/modify_alerts/{device_id}", "description": "Merge fields into a device's alert thresholds"},
			{"method": "GET", "path": "/get_notifications", "description": "Full notification log"},
			{"method": "GET", "path": "/ws", "description": "Live stream of readings and alerts"},
		},
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
