package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/service"
)

// HouseHandler serves the house registry
type HouseHandler struct {
	houses *service.HouseService
	pages  Pagination
	logger *slog.Logger
}

// NewHouseHandler creates the house registry handler
func NewHouseHandler(houses *service.HouseService, pages Pagination, logger *slog.Logger) *HouseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HouseHandler{houses: houses, pages: pages, logger: logger}
}

// HouseRequest is the body of create and update. Absent fields are left
// unchanged on update.
type HouseRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	Address         *string          `json:"address"`
	City            *string          `json:"city"`
	Rent            *decimal.Decimal `json:"rent"`
	Bedrooms        *int             `json:"bedrooms"`
	Bathrooms       *int             `json:"bathrooms"`
	IsActive        *bool            `json:"isActive"`
	RentalStartDate *Date            `json:"rentalStartDate"`

	// accepted only to be refused: occupancy changes through rent requests
	TenantID *string             `json:"tenantId"`
	Status   *domain.HouseStatus `json:"status"`
}

// HouseResponse is the public view of a house
type HouseResponse struct {
	ID              string             `json:"id"`
	LandlordID      string             `json:"landlordId"`
	TenantID        *string            `json:"tenantId"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Address         string             `json:"address"`
	City            string             `json:"city"`
	Rent            decimal.Decimal    `json:"rent"`
	Bedrooms        int                `json:"bedrooms"`
	Bathrooms       int                `json:"bathrooms"`
	Status          domain.HouseStatus `json:"status"`
	IsActive        bool               `json:"isActive"`
	RentalStartDate *time.Time         `json:"rentalStartDate,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

func toHouseResponse(h *domain.House) HouseResponse {
	return HouseResponse{
		ID:              h.ID,
		LandlordID:      h.LandlordID,
		TenantID:        h.TenantID,
		Title:           h.Title,
		Description:     h.Description,
		Address:         h.Address,
		City:            h.City,
		Rent:            h.Rent,
		Bedrooms:        h.Bedrooms,
		Bathrooms:       h.Bathrooms,
		Status:          h.Status,
		IsActive:        h.IsActive,
		RentalStartDate: h.RentalStartDate,
		CreatedAt:       h.CreatedAt,
		UpdatedAt:       h.UpdatedAt,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Create handles POST /api/houses
func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req HouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.TenantID != nil || req.Status != nil {
		writeError(w, r, h.logger, domain.Validation("tenantId and status cannot be set when listing a house"))
		return
	}

	house, err := h.houses.Create(r.Context(), a, domain.HouseAttributes{
		Title:           deref(req.Title),
		Description:     deref(req.Description),
		Address:         deref(req.Address),
		City:            deref(req.City),
		Rent:            deref(req.Rent),
		Bedrooms:        deref(req.Bedrooms),
		Bathrooms:       deref(req.Bathrooms),
		RentalStartDate: req.RentalStartDate.ptr(),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHouseResponse(house))
}

func (h *HouseHandler) filter(r *http.Request) (domain.HouseFilter, error) {
	var f domain.HouseFilter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		s := domain.HouseStatus(v)
		if !s.Valid() {
			return f, domain.Validation("invalid status %q", v)
		}
		f.Status = &s
	}
	for key, dst := range map[string]**decimal.Decimal{"minRent": &f.MinRent, "maxRent": &f.MaxRent} {
		if v := q.Get(key); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return f, domain.Validation("%s must be a number", key)
			}
			*dst = &d
		}
	}
	var err error
	if f.Bedrooms, err = queryInt(r, "bedrooms"); err != nil {
		return f, err
	}
	if f.Bathrooms, err = queryInt(r, "bathrooms"); err != nil {
		return f, err
	}
	if f.IsActive, err = queryBool(r, "isActive"); err != nil {
		return f, err
	}
	return f, nil
}

// List handles GET /api/houses
func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if f.IsActive == nil {
		active := true
		f.IsActive = &active
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.houses.List(r.Context(), f, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toHouseResponse))
}

// Mine handles GET /api/houses/mine
func (h *HouseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f, err := h.filter(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := h.pages.page(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.houses.ListByLandlord(r.Context(), a.UserID, f, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(res, toHouseResponse))
}

// Get handles GET /api/houses/{id}
func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	house, err := h.houses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toHouseResponse(house))
}

// Update handles PATCH /api/houses/{id}
func (h *HouseHandler) Update(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req HouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	house, err := h.houses.Update(r.Context(), a, r.PathValue("id"), domain.HouseUpdate{
		Title:           req.Title,
		Description:     req.Description,
		Address:         req.Address,
		City:            req.City,
		Rent:            req.Rent,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		IsActive:        req.IsActive,
		RentalStartDate: req.RentalStartDate.ptr(),
		TenantID:        req.TenantID,
		Status:          req.Status,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toHouseResponse(house))
}

// Delete handles DELETE /api/houses/{id}
func (h *HouseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.houses.Delete(r.Context(), a, r.PathValue("id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "house deleted"})
}
