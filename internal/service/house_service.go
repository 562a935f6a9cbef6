package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
	"github.com/aryan0dhankhar/rentdesk/internal/security/audit"
)

// HouseService is the house registry. Occupancy (status and tenant) is not
// writable here; it changes only through rent request transitions.
type HouseService struct {
	houses domain.HouseRepository
	policy *security.Policy
	audit  *audit.Logger
	logger *slog.Logger
}

// NewHouseService creates the house registry
func NewHouseService(houses domain.HouseRepository, policy *security.Policy, auditLog *audit.Logger, logger *slog.Logger) *HouseService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = security.NewPolicy(logger)
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &HouseService{houses: houses, policy: policy, audit: auditLog, logger: logger}
}

func validateHouseAttributes(a domain.HouseAttributes) error {
	if strings.TrimSpace(a.Title) == "" {
		return domain.Validation("title is required")
	}
	if !a.Rent.IsPositive() {
		return domain.Validation("rent must be greater than zero")
	}
	if err := domain.CheckMoneyScale("rent", a.Rent); err != nil {
		return err
	}
	if a.Bedrooms < 0 || a.Bathrooms < 0 {
		return domain.Validation("bedroom and bathroom counts cannot be negative")
	}
	return nil
}

// Create lists a new house owned by actor, available and active
func (s *HouseService) Create(ctx context.Context, actor domain.Actor, attrs domain.HouseAttributes) (*domain.House, error) {
	if err := s.policy.CreateHouse(actor); err != nil {
		return nil, err
	}
	if err := validateHouseAttributes(attrs); err != nil {
		return nil, err
	}

	house := &domain.House{
		LandlordID:      actor.UserID,
		Title:           strings.TrimSpace(attrs.Title),
		Description:     attrs.Description,
		Address:         attrs.Address,
		City:            attrs.City,
		Rent:            attrs.Rent,
		Bedrooms:        attrs.Bedrooms,
		Bathrooms:       attrs.Bathrooms,
		Status:          domain.HouseAvailable,
		IsActive:        true,
		RentalStartDate: attrs.RentalStartDate,
	}
	if err := s.houses.Create(ctx, house); err != nil {
		return nil, err
	}

	s.logger.Info("house created",
		slog.String("house_id", house.ID),
		slog.String("landlord_id", house.LandlordID),
	)
	return house, nil
}

// Get returns any house to any authenticated caller
func (s *HouseService) Get(ctx context.Context, id string) (*domain.House, error) {
	return s.houses.GetByID(ctx, id)
}

// List returns houses matching filter, newest first
func (s *HouseService) List(ctx context.Context, filter domain.HouseFilter, page domain.Page) (*domain.ListResult[*domain.House], error) {
	if filter.MinRent != nil && filter.MaxRent != nil && filter.MinRent.GreaterThan(*filter.MaxRent) {
		return nil, domain.Validation("min_rent cannot exceed max_rent")
	}
	page = page.Normalize()
	items, total, err := s.houses.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[*domain.House]{Items: items, Total: total, Page: page}, nil
}

// ListByLandlord is List scoped to one landlord's houses
func (s *HouseService) ListByLandlord(ctx context.Context, landlordID string, filter domain.HouseFilter, page domain.Page) (*domain.ListResult[*domain.House], error) {
	filter.LandlordID = landlordID
	return s.List(ctx, filter, page)
}

// Update applies a whitelisted partial update
func (s *HouseService) Update(ctx context.Context, actor domain.Actor, id string, upd domain.HouseUpdate) (*domain.House, error) {
	if upd.TenantID != nil || upd.Status != nil {
		return nil, domain.Validation("occupancy can only change through rent request transitions")
	}
	if upd.Empty() {
		return nil, domain.Validation("no updatable fields provided")
	}

	house, err := s.houses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ManageHouse(actor, house); err != nil {
		return nil, err
	}

	attrs := domain.HouseAttributes{
		Title: house.Title, Description: house.Description, Address: house.Address, City: house.City,
		Rent: house.Rent, Bedrooms: house.Bedrooms, Bathrooms: house.Bathrooms, RentalStartDate: house.RentalStartDate,
	}
	if upd.Title != nil {
		attrs.Title = *upd.Title
	}
	if upd.Description != nil {
		attrs.Description = *upd.Description
	}
	if upd.Address != nil {
		attrs.Address = *upd.Address
	}
	if upd.City != nil {
		attrs.City = *upd.City
	}
	if upd.Rent != nil {
		attrs.Rent = *upd.Rent
	}
	if upd.Bedrooms != nil {
		attrs.Bedrooms = *upd.Bedrooms
	}
	if upd.Bathrooms != nil {
		attrs.Bathrooms = *upd.Bathrooms
	}
	if upd.RentalStartDate != nil {
		attrs.RentalStartDate = upd.RentalStartDate
	}
	if err := validateHouseAttributes(attrs); err != nil {
		return nil, err
	}

	house.Title = strings.TrimSpace(attrs.Title)
	house.Description = attrs.Description
	house.Address = attrs.Address
	house.City = attrs.City
	house.Rent = attrs.Rent
	house.Bedrooms = attrs.Bedrooms
	house.Bathrooms = attrs.Bathrooms
	house.RentalStartDate = attrs.RentalStartDate
	if upd.IsActive != nil {
		house.IsActive = *upd.IsActive
	}

	if err := s.houses.Update(ctx, house); err != nil {
		return nil, err
	}
	return house, nil
}

// Delete removes the house; its requests, leases and payments go with it
func (s *HouseService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	house, err := s.houses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.ManageHouse(actor, house); err != nil {
		return err
	}
	err = s.houses.Delete(ctx, id)
	s.audit.LogDeletion(ctx, actor, "house", id, err)
	return err
}
