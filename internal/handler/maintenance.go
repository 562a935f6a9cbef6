package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

// MaintenanceHandler serves repair requests
type MaintenanceHandler struct {
	maintenance *service.MaintenanceService
	pages       Pagination
	logger      *slog.Logger
}

// NewMaintenanceHandler creates the maintenance handler
func NewMaintenanceHandler(maintenance *service.MaintenanceService, pages Pagination, logger *slog.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceHandler{maintenance: maintenance, pages: pages, logger: logger}
}

type MaintenanceRequest struct {
	HouseID         string                      `json:"houseId"`
	Title           *string                     `json:"title"`
	Description     *string                     `json:"description"`
	Category        *string                     `json:"category"`
	Priority        *domain.MaintenancePriority `json:"priority"`
	Status          *domain.MaintenanceStatus   `json:"status"`
	ScheduledDate   *Date                       `json:"scheduledDate"`
	ResolutionNotes *string                     `json:"resolutionNotes"`
	Media           []string                    `json:"media"`
}

type MaintenanceResponse struct {
	ID              string                     `json:"id"`
	HouseID         string                     `json:"houseId"`
	TenantID        string                     `json:"tenantId"`
	LandlordID      string                     `json:"landlordId"`
	Title           string                     `json:"title"`
	Description     string                     `json:"description"`
	Category        string                     `json:"category"`
	Priority        domain.MaintenancePriority `json:"priority"`
	Status          domain.MaintenanceStatus   `json:"status"`
	ScheduledDate   *time.Time                 `json:"scheduledDate,omitempty"`
	CompletedAt     *time.Time                 `json:"completedAt,omitempty"`
	ResolutionNotes string                     `json:"resolutionNotes"`
	Media           []string                   `json:"media"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

func toMaintenanceResponse(m *domain.MaintenanceRequest) MaintenanceResponse {
	media := m.Media
	if media == nil {
		media = []string{}
	}
	return MaintenanceResponse{
		ID:              m.ID,
		HouseID:         m.HouseID,
		TenantID:        m.TenantID,
		LandlordID:      m.LandlordID,
		Title:           m.Title,
		Description:     m.Description,
		Category:        m.Category,
		Priority:        m.Priority,
		Status:          m.Status,
		ScheduledDate:   m.ScheduledDate,
		CompletedAt:     m.CompletedAt,
		ResolutionNotes: m.ResolutionNotes,
		Media:           media,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// Create handles POST /api/maintenance
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req MaintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	m, err := h.maintenance.Create(r.Context(), a, service.CreateMaintenanceInput{
		HouseID:       req.HouseID,
		Title:         deref(req.Title),
		Description:   deref(req.Description),
		Category:      deref(req.Category),
		Priority:      deref(req.Priority),
		ScheduledDate: req.ScheduledDate.ptr(),
		Media:         req.Media,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMaintenanceResponse(m))
}

// List handles GET /api/maintenance
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	q := r.URL.Query()
	f := domain.MaintenanceFilter{HouseID: q.Get("houseId")}
	if v := q.Get("status"); v != "" {
		s := domain.MaintenanceStatus(v)
		f.Status = &s
	}
	if v := q.Get("priority"); v != "" {
		p := domain.MaintenancePriority(v)
		f.Priority = &p
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.maintenance.List(r.Context(), a, f, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toMaintenanceResponse))
}

// Get handles GET /api/maintenance/{id}
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	m, err := h.maintenance.Get(r.Context(), a, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toMaintenanceResponse(m))
}

// Update handles PATCH /api/maintenance/{id}
func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req MaintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	m, err := h.maintenance.Update(r.Context(), a, r.PathValue("id"), domain.MaintenanceUpdate{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Priority:        req.Priority,
		Status:          req.Status,
		ScheduledDate:   req.ScheduledDate.ptr(),
		ResolutionNotes: req.ResolutionNotes,
		Media:           req.Media,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toMaintenanceResponse(m))
}

// Delete handles DELETE /api/maintenance/{id}
func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.maintenance.Delete(r.Context(), a, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "maintenance request deleted"})
}
