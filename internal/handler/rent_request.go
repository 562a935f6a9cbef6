package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

// RentRequestHandler serves the rent request lifecycle
type RentRequestHandler struct {
	requests *service.RentRequestService
	pages    Pagination
	logger   *slog.Logger
}

// NewRentRequestHandler creates the rent request handler
func NewRentRequestHandler(requests *service.RentRequestService, pages Pagination, logger *slog.Logger) *RentRequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RentRequestHandler{requests: requests, pages: pages, logger: logger}
}

type CreateRentRequestRequest struct {
	HouseID string `json:"houseId"`
	Message string `json:"message"`
}

type UpdateRentRequestStatusRequest struct {
	Status domain.RentRequestStatus `json:"status"`
}

type RentRequestResponse struct {
	ID        string                   `json:"id"`
	UserID    string                   `json:"userId"`
	HouseID   string                   `json:"houseId"`
	Message   string                   `json:"message"`
	Status    domain.RentRequestStatus `json:"status"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// TransitionResponse reports the new state and its side effects
type TransitionResponse struct {
	Request          RentRequestResponse `json:"request"`
	PreviousStatus   string              `json:"previousStatus"`
	House            *HouseResponse      `json:"house,omitempty"`
	RejectedSiblings []string            `json:"rejectedSiblings"`
	HouseReleased    bool                `json:"houseReleased"`
}

func toRentRequestResponse(req *domain.RentRequest) RentRequestResponse {
	return RentRequestResponse{
		ID:        req.ID,
		UserID:    req.UserID,
		HouseID:   req.HouseID,
		Message:   req.Message,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}

// Create handles POST /api/rent-requests
func (h *RentRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req CreateRentRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	created, err := h.requests.Create(r.Context(), a, req.HouseID, req.Message)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRentRequestResponse(created))
}

// List handles GET /api/rent-requests. Tenants see their own requests,
// landlords the requests against their houses, admins everything. The
// counterparty filters are userId (requester) and landlordId.
func (h *RentRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var f domain.RentRequestFilter
	q := r.URL.Query()
	f.HouseID = q.Get("houseId")
	f.UserID = q.Get("userId")
	f.LandlordID = q.Get("landlordId")
	if v := q.Get("status"); v != "" {
		s := domain.RentRequestStatus(v)
		f.Status = &s
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.requests.List(r.Context(), a, f, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toRentRequestResponse))
}

// Get handles GET /api/rent-requests/{id}
func (h *RentRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req, err := h.requests.Get(r.Context(), a, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentRequestResponse(req))
}

// UpdateStatus handles PATCH /api/rent-requests/{id}/status
func (h *RentRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req UpdateRentRequestStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Status == "" {
		writeError(w, r, h.logger, domain.Validation("status is required"))
		return
	}

	res, err := h.requests.TransitionStatus(r.Context(), a, r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := TransitionResponse{
		Request:          toRentRequestResponse(res.Request),
		PreviousStatus:   string(res.From),
		RejectedSiblings: make([]string, 0, len(res.RejectedSiblings)),
		HouseReleased:    res.HouseReleased,
	}
	if res.House != nil {
		hr := toHouseResponse(res.House)
		out.House = &hr
	}
	for _, sib := range res.RejectedSiblings {
		out.RejectedSiblings = append(out.RejectedSiblings, sib.ID)
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /api/rent-requests/{id}
func (h *RentRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.requests.Delete(r.Context(), a, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "rent request deleted"})
}
