package security

import (
	"log/slog"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceHouse       ResourceType = "house"
	ResourceRentRequest ResourceType = "rent request"
	ResourceLease       ResourceType = "lease"
	ResourcePayment     ResourceType = "payment"
	ResourceReminder    ResourceType = "reminder"
	ResourceMaintenance ResourceType = "maintenance request"
)

// Policy answers "may this actor do this to that resource". Each method
// returns nil or a KindAuthorization error; state checks belong to the
// callers.
type Policy struct {
	authz  *AuthorizationService
	logger *slog.Logger
}

// NewPolicy creates a policy backed by the role permission map
func NewPolicy(logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{authz: NewAuthorizationService(logger), logger: logger}
}

// deny logs and builds the authorization error
func (p *Policy) deny(actor domain.Actor, resource ResourceType, id, msg string) error {
	p.logger.Warn("resource access denied",
		slog.String("user_id", actor.UserID),
		slog.String("role", string(actor.Role)),
		slog.String("resource_type", string(resource)),
		slog.String("resource_id", id),
	)
	return domain.Forbidden("%s", msg)
}

// owned allows admins and the owner holding perm
func (p *Policy) owned(actor domain.Actor, perm Permission, resource ResourceType, id, ownerID string) error {
	if err := p.authz.ValidatePermission(actor.Role, perm); err != nil {
		return err
	}
	if actor.IsAdmin() || ownerID == actor.UserID {
		return nil
	}
	return p.deny(actor, resource, id, "you do not own this "+string(resource))
}

// party allows admins and any of the listed participants
func (p *Policy) party(actor domain.Actor, resource ResourceType, id string, parties ...string) error {
	if actor.IsAdmin() {
		return nil
	}
	for _, uid := range parties {
		if uid != "" && uid == actor.UserID {
			return nil
		}
	}
	return p.deny(actor, resource, id, "you are not a party to this "+string(resource))
}

// CreateHouse allows landlords and admins to list houses
func (p *Policy) CreateHouse(actor domain.Actor) error {
	return p.authz.ValidatePermission(actor.Role, PermManageHouses)
}

// ManageHouse covers update and delete of a listing
func (p *Policy) ManageHouse(actor domain.Actor, house *domain.House) error {
	return p.owned(actor, PermManageHouses, ResourceHouse, house.ID, house.LandlordID)
}

// CreateRentRequest requires tenant capability and forbids renting one's own house
func (p *Policy) CreateRentRequest(actor domain.Actor, house *domain.House) error {
	if err := p.authz.ValidatePermission(actor.Role, PermRequestRent); err != nil {
		return err
	}
	if house != nil && house.LandlordID == actor.UserID {
		return domain.Validation("landlords cannot request their own house")
	}
	return nil
}

// ViewRentRequest allows the requester, the house landlord and admins
func (p *Policy) ViewRentRequest(actor domain.Actor, req *domain.RentRequest, house *domain.House) error {
	return p.party(actor, ResourceRentRequest, req.ID, req.UserID, house.LandlordID)
}

// TransitionRentRequest decides who may move req to status to:
// the house's landlord accepts or rejects, the requester cancels, and
// admins may do anything including reverting to pending.
func (p *Policy) TransitionRentRequest(actor domain.Actor, req *domain.RentRequest, house *domain.House, to domain.RentRequestStatus) error {
	if actor.IsAdmin() {
		if to == domain.RentRequestPending {
			return p.authz.ValidatePermission(actor.Role, PermRevertRentRequests)
		}
		return nil
	}
	switch to {
	case domain.RentRequestAccepted, domain.RentRequestRejected:
		return p.owned(actor, PermDecideRentRequests, ResourceRentRequest, req.ID, house.LandlordID)
	case domain.RentRequestCancelled:
		if req.UserID == actor.UserID {
			return nil
		}
		return p.deny(actor, ResourceRentRequest, req.ID, "only the requester can cancel a rent request")
	case domain.RentRequestPending:
		return p.deny(actor, ResourceRentRequest, req.ID, "only an admin can revert a rent request")
	}
	return domain.Validation("invalid rent request status %q", to)
}

// DeleteRentRequest allows the requester, the house's landlord and admins.
// Which statuses may be deleted is decided by the lifecycle.
func (p *Policy) DeleteRentRequest(actor domain.Actor, req *domain.RentRequest, house *domain.House) error {
	return p.party(actor, ResourceRentRequest, req.ID, req.UserID, house.LandlordID)
}

// ManageLease covers create, update and delete of leases on house
func (p *Policy) ManageLease(actor domain.Actor, house *domain.House) error {
	return p.owned(actor, PermManageLeases, ResourceLease, house.ID, house.LandlordID)
}

// ViewLease allows the lease parties and admins
func (p *Policy) ViewLease(actor domain.Actor, lease *domain.Lease) error {
	return p.party(actor, ResourceLease, lease.ID, lease.TenantID, lease.LandlordID)
}

// ManagePayment covers scheduling and deleting payments on house
func (p *Policy) ManagePayment(actor domain.Actor, house *domain.House) error {
	return p.owned(actor, PermManagePayments, ResourcePayment, house.ID, house.LandlordID)
}

// ViewPayment allows the paying tenant, the house landlord and admins
func (p *Policy) ViewPayment(actor domain.Actor, payment *domain.RentPayment, house *domain.House) error {
	return p.party(actor, ResourcePayment, payment.ID, payment.TenantID, house.LandlordID)
}

// ApplyPayment lets the paying tenant or the landlord record money received
func (p *Policy) ApplyPayment(actor domain.Actor, payment *domain.RentPayment, house *domain.House) error {
	if err := p.authz.ValidatePermission(actor.Role, PermPayRent); err != nil {
		return err
	}
	return p.party(actor, ResourcePayment, payment.ID, payment.TenantID, house.LandlordID)
}

// ManageReminder checks ownership of reminders belonging to landlordID
func (p *Policy) ManageReminder(actor domain.Actor, id, landlordID string) error {
	return p.owned(actor, PermManageReminders, ResourceReminder, id, landlordID)
}

// ViewReminder allows the reminder parties and admins
func (p *Policy) ViewReminder(actor domain.Actor, rem *domain.RentReminder) error {
	return p.party(actor, ResourceReminder, rem.ID, rem.TenantID, rem.LandlordID)
}

// ReportMaintenance allows the current tenant of house to open a request
func (p *Policy) ReportMaintenance(actor domain.Actor, house *domain.House) error {
	if err := p.authz.ValidatePermission(actor.Role, PermReportMaintenance); err != nil {
		return err
	}
	if actor.IsAdmin() || house.HasTenant(actor.UserID) {
		return nil
	}
	return p.deny(actor, ResourceMaintenance, house.ID, "only the current tenant can report maintenance")
}

// ViewMaintenance allows the reporting tenant, the landlord and admins
func (p *Policy) ViewMaintenance(actor domain.Actor, m *domain.MaintenanceRequest) error {
	return p.party(actor, ResourceMaintenance, m.ID, m.TenantID, m.LandlordID)
}

// UpdateMaintenance gives landlords and admins full control; the tenant who
// opened the request may only touch description and media while it is New.
func (p *Policy) UpdateMaintenance(actor domain.Actor, m *domain.MaintenanceRequest, update domain.MaintenanceUpdate) error {
	if actor.IsAdmin() || (actor.IsLandlord() && m.LandlordID == actor.UserID) {
		return nil
	}
	if m.TenantID != actor.UserID {
		return p.deny(actor, ResourceMaintenance, m.ID, "you are not a party to this "+string(ResourceMaintenance))
	}
	if !update.TenantEditable() {
		return p.deny(actor, ResourceMaintenance, m.ID, "tenants may only change description and media")
	}
	if m.Status != domain.MaintenanceNew {
		return domain.InvalidState("maintenance request can no longer be edited by the tenant")
	}
	return nil
}

// DeleteMaintenance allows the landlord and admins
func (p *Policy) DeleteMaintenance(actor domain.Actor, m *domain.MaintenanceRequest) error {
	return p.owned(actor, PermManageMaintenance, ResourceMaintenance, m.ID, m.LandlordID)
}
