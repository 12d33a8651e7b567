package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"foodcourt/agg-svc/internal/domain"
	"foodcourt/agg-svc/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Analytics service.AnalyticsInterface
	Logger    *logrus.Logger
}

func NewHandler(svc service.AnalyticsInterface, logger *logrus.Logger) *Handler {
	return &Handler{Analytics: svc, Logger: logger}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "agg-svc"})
	}).Methods("GET")
	r.HandleFunc("/api/analytics/top-restaurants", h.getTopRestaurants).Methods("GET")
	r.HandleFunc("/api/analytics/daily", h.getDaily).Methods("GET")
	r.HandleFunc("/api/analytics/orders/{id}", h.getOrder).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Order not found", http.StatusNotFound)
	default:
		h.Logger.WithError(err).WithField("path", r.URL.Path).Error("analytics query failed")
		http.Error(w, "Failed to read analytics", http.StatusInternalServerError)
	}
}

func (h *Handler) getTopRestaurants(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	top, err := h.Analytics.TopRestaurants(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if top == nil {
		top = []domain.RestaurantPopularity{}
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *Handler) getDaily(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Analytics.Daily(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Analytics.Order(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
