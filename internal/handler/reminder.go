package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

// ReminderHandler serves rent reminders
type ReminderHandler struct {
	reminders *service.ReminderService
	pages     Pagination
	logger    *slog.Logger
}

// NewReminderHandler creates the reminder handler
func NewReminderHandler(reminders *service.ReminderService, pages Pagination, logger *slog.Logger) *ReminderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderHandler{reminders: reminders, pages: pages, logger: logger}
}

type ReminderRequest struct {
	HouseID      string               `json:"houseId"`
	TenantID     string               `json:"tenantId"`
	PaymentID    *string              `json:"paymentId"`
	Type         *domain.ReminderType `json:"reminderType"`
	Message      *string              `json:"message"`
	ReminderDate *Date                `json:"reminderDate"`
}

type ReminderResponse struct {
	ID           string              `json:"id"`
	LandlordID   string              `json:"landlordId"`
	TenantID     string              `json:"tenantId"`
	HouseID      string              `json:"houseId"`
	PaymentID    *string             `json:"paymentId,omitempty"`
	Type         domain.ReminderType `json:"reminderType"`
	Message      string              `json:"message"`
	ReminderDate time.Time           `json:"reminderDate"`
	IsSent       bool                `json:"isSent"`
	SentAt       *time.Time          `json:"sentAt,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func toReminderResponse(rem *domain.RentReminder) ReminderResponse {
	return ReminderResponse{
		ID:           rem.ID,
		LandlordID:   rem.LandlordID,
		TenantID:     rem.TenantID,
		HouseID:      rem.HouseID,
		PaymentID:    rem.PaymentID,
		Type:         rem.Type,
		Message:      rem.Message,
		ReminderDate: rem.ReminderDate,
		IsSent:       rem.IsSent,
		SentAt:       rem.SentAt,
		CreatedAt:    rem.CreatedAt,
	}
}

// Create handles POST /api/reminders
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req ReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in := service.CreateReminderInput{
		HouseID:   req.HouseID,
		TenantID:  req.TenantID,
		PaymentID: req.PaymentID,
		Type:      deref(req.Type),
		Message:   deref(req.Message),
	}
	if t := req.ReminderDate.ptr(); t != nil {
		in.ReminderDate = *t
	}
	rem, err := h.reminders.Create(r.Context(), a, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReminderResponse(rem))
}

// List handles GET /api/reminders?houseId=&isSent=&from=&to=
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f := domain.ReminderFilter{HouseID: r.URL.Query().Get("houseId")}
	if f.IsSent, err = queryBool(r, "isSent"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if f.From, err = queryTime(r, "from"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if f.To, err = queryTime(r, "to"); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.reminders.List(r.Context(), a, f, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toReminderResponse))
}

// Get handles GET /api/reminders/{id}
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rem, err := h.reminders.Get(r.Context(), a, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

// Update handles PATCH /api/reminders/{id}
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req ReminderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rem, err := h.reminders.Update(r.Context(), a, r.PathValue("id"), domain.ReminderUpdate{
		Type:         req.Type,
		Message:      req.Message,
		ReminderDate: req.ReminderDate.ptr(),
		PaymentID:    req.PaymentID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

// MarkSent handles POST /api/reminders/{id}/sent
func (h *ReminderHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rem, err := h.reminders.MarkSent(r.Context(), a, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

// Delete handles DELETE /api/reminders/{id}
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.reminders.Delete(r.Context(), a, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reminder deleted"})
}
