package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medcal/internal/availability/service"
	httputil "medcal/pkg/http"
	"medcal/pkg/logger"
	"medcal/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) GetTemplate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	tmpl, err := h.service.GetTemplate(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, tmpl)
}

type setTemplateRequest struct {
	Days []model.DayAvailability `json:"days"`
}

func (h *AvailabilityHandler) SetTemplate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	var req setTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	tmpl, err := h.service.SetTemplate(r.Context(), id, req.Days)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, tmpl)
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "ID parameter is required",
		})
		return
	}

	startDate, endDate, err := httputil.ExtractDateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	slots, err := h.service.Available(r.Context(), id, startDate, endDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if slots == nil {
		slots = []model.DaySlots{}
	}
	httputil.WriteSuccess(w, slots)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability/professional/:id", h.GetTemplate)
	router.PUT("/api/v1/availability/professional/:id", h.SetTemplate)
	router.GET("/api/v1/availability/professional/:id/slots", h.Slots)
}
