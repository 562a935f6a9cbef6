package domain

import (
	"context"
	"time"
)

type MaintenanceStatus string

const (
	MaintenanceNew        MaintenanceStatus = "New"
	MaintenanceInProgress MaintenanceStatus = "In Progress"
	MaintenanceCompleted  MaintenanceStatus = "Completed"
	MaintenanceCancelled  MaintenanceStatus = "Cancelled"
)

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceNew, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

type MaintenancePriority string

const (
	PriorityLow    MaintenancePriority = "Low"
	PriorityMedium MaintenancePriority = "Medium"
	PriorityHigh   MaintenancePriority = "High"
	PriorityUrgent MaintenancePriority = "Urgent"
)

func (p MaintenancePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaintenanceRequest is a repair ticket a tenant raises against a house
type MaintenanceRequest struct {
	ID              string
	HouseID         string
	TenantID        string
	LandlordID      string
	Title           string
	Description     string
	Category        string
	Priority        MaintenancePriority
	Status          MaintenanceStatus
	ScheduledDate   *time.Time
	CompletedAt     *time.Time
	ResolutionNotes string
	Media           []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MaintenanceUpdate is a partial update. Tenants may only set Description and Media.
type MaintenanceUpdate struct {
	Title           *string
	Description     *string
	Category        *string
	Priority        *MaintenancePriority
	Status          *MaintenanceStatus
	ScheduledDate   *time.Time
	ResolutionNotes *string
	Media           []string
}

// Empty reports whether no field is set
func (u MaintenanceUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Priority == nil &&
		u.Status == nil && u.ScheduledDate == nil && u.ResolutionNotes == nil && u.Media == nil
}

// TenantEditable reports whether only tenant-editable fields are set
func (u MaintenanceUpdate) TenantEditable() bool {
	return u.Title == nil && u.Category == nil && u.Priority == nil && u.Status == nil &&
		u.ScheduledDate == nil && u.ResolutionNotes == nil
}

type MaintenanceFilter struct {
	HouseID    string
	TenantID   string
	LandlordID string
	Status     *MaintenanceStatus
	Priority   *MaintenancePriority
}

// MaintenanceRepository defines data access for maintenance requests
type MaintenanceRepository interface {
	Create(ctx context.Context, req *MaintenanceRequest) error
	GetByID(ctx context.Context, id string) (*MaintenanceRequest, error)
	List(ctx context.Context, filter MaintenanceFilter, page Page) ([]*MaintenanceRequest, int, error)
	Update(ctx context.Context, req *MaintenanceRequest) error
	Delete(ctx context.Context, id string) error
}
