package domain

import (
	"context"
	"time"
)

// RentRequestStatus is the lifecycle state of a rent request
type RentRequestStatus string

const (
	RentRequestPending   RentRequestStatus = "pending"
	RentRequestAccepted  RentRequestStatus = "accepted"
	RentRequestRejected  RentRequestStatus = "rejected"
	RentRequestCancelled RentRequestStatus = "cancelled"
)

// Valid reports whether s is one of the four lifecycle states
func (s RentRequestStatus) Valid() bool {
	switch s {
	case RentRequestPending, RentRequestAccepted, RentRequestRejected, RentRequestCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s is accepted, rejected or cancelled
func (s RentRequestStatus) IsTerminal() bool {
	return s == RentRequestAccepted || s == RentRequestRejected || s == RentRequestCancelled
}

// RentRequest is a tenant's application to occupy a house
type RentRequest struct {
	ID        string
	UserID    string
	HouseID   string
	Message   string
	Status    RentRequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateRentRequestTransition checks the state machine only; who may
// request a transition is decided by the authorization policy.
//
//	pending  -> accepted | rejected | cancelled
//	accepted -> cancelled, or rejected when elevated
//	rejected | cancelled -> pending when elevated (revert)
func ValidateRentRequestTransition(from, to RentRequestStatus, elevated bool) error {
	if !to.Valid() {
		return Validation("invalid rent request status %q", to)
	}
	if from == to {
		return InvalidState("rent request is already %s", from)
	}
	switch from {
	case RentRequestPending:
		if to != RentRequestPending {
			return nil
		}
	case RentRequestAccepted:
		if to == RentRequestCancelled || (to == RentRequestRejected && elevated) {
			return nil
		}
	case RentRequestRejected, RentRequestCancelled:
		if to == RentRequestPending && elevated {
			return nil
		}
	}
	return InvalidState("cannot change rent request from %s to %s", from, to)
}

// RentRequestFilter narrows a rent request listing
type RentRequestFilter struct {
	UserID     string
	HouseID    string
	LandlordID string
	Status     *RentRequestStatus
}

// RentRequestRepository defines data access for rent requests
type RentRequestRepository interface {
	Create(ctx context.Context, req *RentRequest) error
	GetByID(ctx context.Context, id string) (*RentRequest, error)
	// HasPending reports whether userID has a pending request for houseID other than excludeID
	HasPending(ctx context.Context, userID, houseID, excludeID string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status RentRequestStatus) error
	// RejectPendingSiblings marks every other pending request for the house rejected
	// and returns the requests it changed
	RejectPendingSiblings(ctx context.Context, houseID, exceptID string) ([]*RentRequest, error)
	List(ctx context.Context, filter RentRequestFilter, page Page) ([]*RentRequest, int, error)
	Delete(ctx context.Context, id string) error
}
