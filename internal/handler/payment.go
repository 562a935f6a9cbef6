package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

// PaymentHandler serves the rent payment ledger
type PaymentHandler struct {
	payments *service.PaymentService
	pages    Pagination
	logger   *slog.Logger
}

// NewPaymentHandler creates the payment ledger handler
func NewPaymentHandler(payments *service.PaymentService, pages Pagination, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{payments: payments, pages: pages, logger: logger}
}

type CreatePaymentRequest struct {
	HouseID  string          `json:"houseId"`
	TenantID string          `json:"tenantId"`
	DueDate  *Date           `json:"dueDate"`
	Amount   decimal.Decimal `json:"amount"`
}

type ApplyPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	ReceiptURL    string          `json:"receiptUrl"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	TenantID      string               `json:"tenantId"`
	HouseID       string               `json:"houseId"`
	DueDate       time.Time            `json:"dueDate"`
	Amount        decimal.Decimal      `json:"amount"`
	PaidAmount    decimal.Decimal      `json:"paidAmount"`
	Outstanding   decimal.Decimal      `json:"outstanding"`
	Status        domain.PaymentStatus `json:"status"`
	PaymentMethod *string              `json:"paymentMethod,omitempty"`
	PaymentDate   *time.Time           `json:"paymentDate,omitempty"`
	ReceiptURL    *string              `json:"receiptUrl,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func toPaymentResponse(p *domain.RentPayment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		HouseID:       p.HouseID,
		DueDate:       p.DueDate,
		Amount:        p.Amount,
		PaidAmount:    p.PaidAmount,
		Outstanding:   p.Outstanding(),
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		PaymentDate:   p.PaymentDate,
		ReceiptURL:    p.ReceiptURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Create handles POST /api/payments
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in := service.CreatePaymentInput{HouseID: req.HouseID, TenantID: req.TenantID, Amount: req.Amount}
	if t := req.DueDate.ptr(); t != nil {
		in.DueDate = *t
	}
	p, err := h.payments.Create(r.Context(), a, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

// List handles GET /api/payments
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f := domain.PaymentFilter{HouseID: r.URL.Query().Get("houseId")}
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.PaymentStatus(v)
		f.Status = &s
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.payments.List(r.Context(), a, f, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toPaymentResponse))
}

// Get handles GET /api/payments/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.payments.Get(r.Context(), a, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// Apply handles POST /api/payments/{id}/apply
func (h *PaymentHandler) Apply(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req ApplyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.payments.ApplyPayment(r.Context(), a, r.PathValue("id"), service.ApplyPaymentInput{
		Amount:     req.Amount,
		Method:     req.PaymentMethod,
		ReceiptURL: req.ReceiptURL,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// Delete handles DELETE /api/payments/{id}
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.payments.Delete(r.Context(), a, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "payment deleted"})
}
