package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"vehicle-catalog/internal/catalog"
	"vehicle-catalog/internal/logging"
)

// Persister writes the catalog to its backing file.
type Persister interface {
	Save(ctx context.Context, c *catalog.Collection) error
}

// Handler serves the catalog over HTTP. The collection itself is not safe for
// concurrent use, so every access goes through mu.
type Handler struct {
	catalog     *catalog.InstrumentedCollection
	store       Persister
	serviceName string
	mu          sync.RWMutex
}

func NewHandler(c *catalog.InstrumentedCollection, store Persister, serviceName string) *Handler {
	return &Handler{
		catalog:     c,
		store:       store,
		serviceName: serviceName,
	}
}

// Size reports the number of vehicles under the read lock.
func (h *Handler) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog.Size()
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Service:  h.serviceName,
		Vehicles: h.Size(),
		Meta:     extractMeta(r.Context()),
	})
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		preds []catalog.Predicate
		names []string
	)
	if plate := normalize(query.Get("plate")); plate != "" {
		preds = append(preds, catalog.ByPlate(plate))
		names = append(names, "plate")
	}
	if brand := normalize(query.Get("make")); brand != "" {
		preds = append(preds, catalog.ByMake(brand))
		names = append(names, "make")
	}
	if model := normalize(query.Get("model")); model != "" {
		preds = append(preds, catalog.ByModel(model))
		names = append(names, "model")
	}
	if raw := query.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(ctx, w, http.StatusBadRequest, "Year must be a number")
			return
		}
		preds = append(preds, catalog.ByYear(year))
		names = append(names, "year")
	}

	name := "all"
	if len(names) > 0 {
		name = strings.Join(names, "+")
	}

	h.mu.RLock()
	found := h.catalog.Filter(ctx, name, catalog.Every(preds...))
	h.mu.RUnlock()

	WriteSuccess(ctx, w, "Vehicles retrieved successfully", toListResponse(found))
}

func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plate := normalize(chi.URLParam(r, "plate"))

	h.mu.RLock()
	v, ok := h.catalog.FindByPlate(ctx, plate)
	h.mu.RUnlock()

	if !ok {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}
	WriteSuccess(ctx, w, "Vehicle found", toVehicleResponse(v))
}

func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		v   catalog.Vehicle
		err error
	)
	plate, brand, model := normalize(req.Plate), normalize(req.Make), normalize(req.Model)
	if date := strings.TrimSpace(req.Date); date == "" {
		v, err = catalog.NewVehicleWithDefaultDate(plate, brand, model)
	} else {
		v, err = catalog.NewVehicle(plate, brand, model, date)
	}
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	h.mu.Lock()
	err = h.catalog.Add(ctx, v)
	h.mu.Unlock()

	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	logging.Info(ctx, "vehicle added", slog.String("plate", v.Plate()))
	WriteCreated(ctx, w, "Vehicle added successfully", toVehicleResponse(v))
}

func (h *Handler) UpdateVehicleDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plate := normalize(chi.URLParam(r, "plate"))

	var req UpdateDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.mu.Lock()
	found, err := h.catalog.SetDate(ctx, plate, strings.TrimSpace(req.Date))
	v, _ := h.catalog.Collection.FindByPlate(plate)
	h.mu.Unlock()

	switch {
	case err != nil:
		WriteError(ctx, w, statusFor(err), err.Error())
	case !found:
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
	default:
		WriteSuccess(ctx, w, "Registration date updated", toVehicleResponse(v))
	}
}

func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plate := normalize(chi.URLParam(r, "plate"))

	h.mu.Lock()
	deleted := h.catalog.Delete(ctx, plate)
	h.mu.Unlock()

	if !deleted {
		WriteError(ctx, w, http.StatusNotFound, "Vehicle not found")
		return
	}

	logging.Info(ctx, "vehicle deleted", slog.String("plate", plate))
	WriteSuccess(ctx, w, "Vehicle deleted successfully", map[string]any{
		"plate": plate,
	})
}

func (h *Handler) SaveCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Exclusive lock: concurrent saves would race on the temp file.
	h.mu.Lock()
	err := h.store.Save(ctx, h.catalog.Collection)
	size := h.catalog.Size()
	h.mu.Unlock()

	if err != nil {
		logging.Error(ctx, "save failed", slog.Any("error", err))
		WriteError(ctx, w, http.StatusInternalServerError, "Failed to save catalog")
		return
	}
	WriteSuccess(ctx, w, "Catalog saved successfully", SaveResponse{Vehicles: size})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrDuplicateValue):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidAttribute):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// normalize matches what the shell does with typed input.
func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
