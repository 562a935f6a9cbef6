package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
)

type CreateMaintenanceInput struct {
	HouseID       string
	Title         string
	Description   string
	Category      string
	Priority      domain.MaintenancePriority
	ScheduledDate *time.Time
	Media         []string
}

// MaintenanceService tracks repair requests between tenants and landlords
type MaintenanceService struct {
	requests domain.MaintenanceRepository
	houses   domain.HouseRepository
	notifier Notifier
	policy   *security.Policy
	logger   *slog.Logger
	now      func() time.Time
}

// NewMaintenanceService creates the maintenance tracker
func NewMaintenanceService(
	requests domain.MaintenanceRepository,
	houses domain.HouseRepository,
	notifier Notifier,
	policy *security.Policy,
	logger *slog.Logger,
) *MaintenanceService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = security.NewPolicy(logger)
	}
	return &MaintenanceService{requests: requests, houses: houses, notifier: notifier, policy: policy, logger: logger, now: time.Now}
}

// Create files a request for a house. The reporter must be its tenant
// unless they are an admin.
func (s *MaintenanceService) Create(ctx context.Context, actor domain.Actor, in CreateMaintenanceInput) (*domain.MaintenanceRequest, error) {
	if in.HouseID == "" {
		return nil, domain.Validation("house_id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Validation("title is required")
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, domain.Validation("invalid priority %q", in.Priority)
	}

	house, err := s.houses.GetCurrent(ctx, in.HouseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ReportMaintenance(actor, house); err != nil {
		return nil, err
	}

	tenantID := actor.UserID
	if actor.IsAdmin() && house.TenantID != nil {
		tenantID = *house.TenantID
	}
	m := &domain.MaintenanceRequest{
		HouseID:       house.ID,
		TenantID:      tenantID,
		LandlordID:    house.LandlordID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Category:      in.Category,
		Priority:      in.Priority,
		Status:        domain.MaintenanceNew,
		ScheduledDate: in.ScheduledDate,
		Media:         in.Media,
	}
	if err := s.requests.Create(ctx, m); err != nil {
		return nil, err
	}

	notifyAll(ctx, s.notifier, s.logger, notification(house.LandlordID, domain.NotifMaintenanceUpdate, m.ID,
		fmt.Sprintf("New maintenance request for %q: %s", house.Title, m.Title)))
	return m, nil
}

// Get returns a request visible to actor
func (s *MaintenanceService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.MaintenanceRequest, error) {
	m, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ViewMaintenance(actor, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List scopes the listing by actor's role
func (s *MaintenanceService) List(ctx context.Context, actor domain.Actor, filter domain.MaintenanceFilter, page domain.Page) (*domain.ListResult[*domain.MaintenanceRequest], error) {
	switch actor.Role {
	case domain.RoleTenant:
		filter.TenantID = actor.UserID
	case domain.RoleLandlord:
		filter.LandlordID = actor.UserID
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.Validation("invalid status %q", *filter.Status)
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, domain.Validation("invalid priority %q", *filter.Priority)
	}
	page = page.Normalize()
	items, total, err := s.requests.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[*domain.MaintenanceRequest]{Items: items, Total: total, Page: page}, nil
}

// Update applies upd. Moving to Completed stamps completed_at; moving away clears it.
func (s *MaintenanceService) Update(ctx context.Context, actor domain.Actor, id string, upd domain.MaintenanceUpdate) (*domain.MaintenanceRequest, error) {
	if upd.Empty() {
		return nil, domain.Validation("no updatable fields provided")
	}
	m, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.UpdateMaintenance(actor, m, upd); err != nil {
		return nil, err
	}

	prev := m.Status
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, domain.Validation("title cannot be empty")
		}
		m.Title = title
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	if upd.Category != nil {
		m.Category = *upd.Category
	}
	if upd.Priority != nil {
		if !upd.Priority.Valid() {
			return nil, domain.Validation("invalid priority %q", *upd.Priority)
		}
		m.Priority = *upd.Priority
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, domain.Validation("invalid status %q", *upd.Status)
		}
		m.Status = *upd.Status
	}
	if upd.ScheduledDate != nil {
		m.ScheduledDate = upd.ScheduledDate
	}
	if upd.ResolutionNotes != nil {
		m.ResolutionNotes = *upd.ResolutionNotes
	}
	if upd.Media != nil {
		m.Media = upd.Media
	}
	switch {
	case m.Status == domain.MaintenanceCompleted && prev != domain.MaintenanceCompleted:
		at := s.now().UTC()
		m.CompletedAt = &at
	case m.Status != domain.MaintenanceCompleted:
		m.CompletedAt = nil
	}

	if err := s.requests.Update(ctx, m); err != nil {
		return nil, err
	}
	if m.Status != prev && m.TenantID != actor.UserID {
		notifyAll(ctx, s.notifier, s.logger, notification(m.TenantID, domain.NotifMaintenanceUpdate, m.ID,
			fmt.Sprintf("Maintenance request %q is now %s", m.Title, m.Status)))
	}
	return m, nil
}

// Delete removes a request; tenants cannot
func (s *MaintenanceService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	m, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.DeleteMaintenance(actor, m); err != nil {
		return err
	}
	return s.requests.Delete(ctx, id)
}
