package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

// LeaseHandler serves lease records
type LeaseHandler struct {
	leases *service.LeaseService
	pages  Pagination
	logger *slog.Logger
}

// NewLeaseHandler creates the lease handler
func NewLeaseHandler(leases *service.LeaseService, pages Pagination, logger *slog.Logger) *LeaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaseHandler{leases: leases, pages: pages, logger: logger}
}

type LeaseRequest struct {
	HouseID       string              `json:"houseId"`
	TenantID      string              `json:"tenantId"`
	StartDate     *Date               `json:"startDate"`
	EndDate       *Date               `json:"endDate"`
	RentAmount    *decimal.Decimal    `json:"rentAmount"`
	DepositAmount *decimal.Decimal    `json:"depositAmount"`
	Terms         *string             `json:"terms"`
	Status        *domain.LeaseStatus `json:"status"`
	DocumentURL   *string             `json:"documentUrl"`
}

type LeaseResponse struct {
	ID            string             `json:"id"`
	HouseID       string             `json:"houseId"`
	TenantID      string             `json:"tenantId"`
	LandlordID    string             `json:"landlordId"`
	StartDate     time.Time          `json:"startDate"`
	EndDate       time.Time          `json:"endDate"`
	RentAmount    decimal.Decimal    `json:"rentAmount"`
	DepositAmount decimal.Decimal    `json:"depositAmount"`
	Terms         string             `json:"terms"`
	Status        domain.LeaseStatus `json:"status"`
	DocumentURL   *string            `json:"documentUrl,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func toLeaseResponse(l *domain.Lease) LeaseResponse {
	return LeaseResponse{
		ID:            l.ID,
		HouseID:       l.HouseID,
		TenantID:      l.TenantID,
		LandlordID:    l.LandlordID,
		StartDate:     l.StartDate,
		EndDate:       l.EndDate,
		RentAmount:    l.RentAmount,
		DepositAmount: l.DepositAmount,
		Terms:         l.Terms,
		Status:        l.Status,
		DocumentURL:   l.DocumentURL,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// Create handles POST /api/leases
func (h *LeaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req LeaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in := service.CreateLeaseInput{
		HouseID:       req.HouseID,
		TenantID:      req.TenantID,
		RentAmount:    deref(req.RentAmount),
		DepositAmount: deref(req.DepositAmount),
		Terms:         deref(req.Terms),
		Status:        deref(req.Status),
		DocumentURL:   req.DocumentURL,
	}
	if t := req.StartDate.ptr(); t != nil {
		in.StartDate = *t
	}
	if t := req.EndDate.ptr(); t != nil {
		in.EndDate = *t
	}
	lease, err := h.leases.Create(r.Context(), a, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaseResponse(lease))
}

// List handles GET /api/leases
func (h *LeaseHandler) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f := domain.LeaseFilter{HouseID: r.URL.Query().Get("houseId")}
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.LeaseStatus(v)
		f.Status = &s
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.leases.List(r.Context(), a, f, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toLeaseResponse))
}

// Get handles GET /api/leases/{id}
func (h *LeaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	lease, err := h.leases.Get(r.Context(), a, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseResponse(lease))
}

// Update handles PATCH /api/leases/{id}
func (h *LeaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req LeaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	lease, err := h.leases.Update(r.Context(), a, r.PathValue("id"), domain.LeaseUpdate{
		StartDate:     req.StartDate.ptr(),
		EndDate:       req.EndDate.ptr(),
		RentAmount:    req.RentAmount,
		DepositAmount: req.DepositAmount,
		Terms:         req.Terms,
		Status:        req.Status,
		DocumentURL:   req.DocumentURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseResponse(lease))
}

// Delete handles DELETE /api/leases/{id}
func (h *LeaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.leases.Delete(r.Context(), a, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "lease deleted"})
}
