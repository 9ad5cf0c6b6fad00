package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"vehicle-catalog/internal/catalog"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Vehicles int    `json:"vehicles"`
	Meta     *Meta  `json:"meta,omitempty"`
}

type CreateVehicleRequest struct {
	Plate string `json:"plate"`
	Make  string `json:"make"`
	Model string `json:"model"`
	// Date defaults to catalog.DefaultDate when empty.
	Date string `json:"date,omitempty"`
}

type UpdateDateRequest struct {
	Date string `json:"date"`
}

type VehicleResponse struct {
	Plate string `json:"plate"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Date  string `json:"date"`
}

type ListResponse struct {
	Count    int               `json:"count"`
	Vehicles []VehicleResponse `json:"vehicles"`
}

type SaveResponse struct {
	Vehicles int `json:"vehicles"`
}

func toVehicleResponse(v catalog.Vehicle) VehicleResponse {
	return VehicleResponse{
		Plate: v.Plate(),
		Make:  v.Make(),
		Model: v.Model(),
		Date:  v.Date(),
	}
}

func toListResponse(c *catalog.Collection) ListResponse {
	resp := ListResponse{Vehicles: make([]VehicleResponse, 0, c.Size())}
	for v := range c.All() {
		resp.Vehicles = append(resp.Vehicles, toVehicleResponse(v))
	}
	resp.Count = len(resp.Vehicles)
	return resp
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	writeSuccess(ctx, w, http.StatusOK, message, data)
}

func WriteCreated(ctx context.Context, w http.ResponseWriter, message string, data any) {
	writeSuccess(ctx, w, http.StatusCreated, message, data)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
