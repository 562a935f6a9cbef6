package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

var (
	admin    = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	landlord = domain.Actor{UserID: "landlord-1", Role: domain.RoleLandlord}
	other    = domain.Actor{UserID: "landlord-2", Role: domain.RoleLandlord}
	tenant   = domain.Actor{UserID: "tenant-1", Role: domain.RoleTenant}
	stranger = domain.Actor{UserID: "tenant-2", Role: domain.RoleTenant}
)

func kind(err error) domain.Kind {
	if err == nil {
		return ""
	}
	return domain.KindOf(err)
}

func TestTransitionRentRequestPolicy(t *testing.T) {
	p := NewPolicy(nil)
	house := &domain.House{ID: "h1", LandlordID: landlord.UserID}
	req := &domain.RentRequest{ID: "r1", UserID: tenant.UserID, HouseID: house.ID}

	cases := []struct {
		name  string
		actor domain.Actor
		to    domain.RentRequestStatus
		want  domain.Kind
	}{
		{"landlord accepts", landlord, domain.RentRequestAccepted, ""},
		{"landlord rejects", landlord, domain.RentRequestRejected, ""},
		{"other landlord accepts", other, domain.RentRequestAccepted, domain.KindAuthorization},
		{"tenant accepts own", tenant, domain.RentRequestAccepted, domain.KindAuthorization},
		{"tenant cancels own", tenant, domain.RentRequestCancelled, ""},
		{"stranger cancels", stranger, domain.RentRequestCancelled, domain.KindAuthorization},
		{"landlord cancels", landlord, domain.RentRequestCancelled, domain.KindAuthorization},
		{"landlord reverts", landlord, domain.RentRequestPending, domain.KindAuthorization},
		{"admin reverts", admin, domain.RentRequestPending, ""},
		{"admin accepts", admin, domain.RentRequestAccepted, ""},
		{"unknown status", tenant, "approved", domain.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, kind(p.TransitionRentRequest(tc.actor, req, house, tc.to)))
		})
	}
}

func TestCreateRentRequestPolicy(t *testing.T) {
	p := NewPolicy(nil)
	house := &domain.House{ID: "h1", LandlordID: landlord.UserID}

	assert.NoError(t, p.CreateRentRequest(tenant, house))
	assert.Equal(t, domain.KindAuthorization, kind(p.CreateRentRequest(landlord, house)))
	assert.Equal(t, domain.KindAuthorization, kind(p.CreateRentRequest(admin, house)))

	// a tenant-role account that owns the listing still cannot request it
	selfOwned := &domain.House{ID: "h2", LandlordID: tenant.UserID}
	assert.Equal(t, domain.KindValidation, kind(p.CreateRentRequest(tenant, selfOwned)))
}

func TestHouseAndLedgerOwnership(t *testing.T) {
	p := NewPolicy(nil)
	house := &domain.House{ID: "h1", LandlordID: landlord.UserID}

	assert.NoError(t, p.CreateHouse(landlord))
	assert.Equal(t, domain.KindAuthorization, kind(p.CreateHouse(tenant)))
	assert.NoError(t, p.ManageHouse(landlord, house))
	assert.NoError(t, p.ManageHouse(admin, house))
	assert.Equal(t, domain.KindAuthorization, kind(p.ManageHouse(other, house)))

	assert.NoError(t, p.ManageLease(landlord, house))
	assert.Equal(t, domain.KindAuthorization, kind(p.ManageLease(tenant, house)))

	lease := &domain.Lease{ID: "l1", TenantID: tenant.UserID, LandlordID: landlord.UserID}
	assert.NoError(t, p.ViewLease(tenant, lease))
	assert.Equal(t, domain.KindAuthorization, kind(p.ViewLease(stranger, lease)))

	payment := &domain.RentPayment{ID: "p1", TenantID: tenant.UserID, HouseID: house.ID}
	assert.NoError(t, p.ApplyPayment(tenant, payment, house))
	assert.NoError(t, p.ApplyPayment(landlord, payment, house))
	assert.Equal(t, domain.KindAuthorization, kind(p.ApplyPayment(stranger, payment, house)))
	assert.Equal(t, domain.KindAuthorization, kind(p.ManagePayment(tenant, house)))
}

func TestMaintenancePolicy(t *testing.T) {
	p := NewPolicy(nil)
	tid := tenant.UserID
	house := &domain.House{ID: "h1", LandlordID: landlord.UserID, TenantID: &tid}
	m := &domain.MaintenanceRequest{ID: "m1", TenantID: tid, LandlordID: landlord.UserID, Status: domain.MaintenanceNew}

	assert.NoError(t, p.ReportMaintenance(tenant, house))
	assert.Equal(t, domain.KindAuthorization, kind(p.ReportMaintenance(stranger, house)))

	desc := "leak is worse"
	status := domain.MaintenanceCompleted
	assert.NoError(t, p.UpdateMaintenance(tenant, m, domain.MaintenanceUpdate{Description: &desc}))
	assert.Equal(t, domain.KindAuthorization, kind(p.UpdateMaintenance(tenant, m, domain.MaintenanceUpdate{Status: &status})))
	assert.NoError(t, p.UpdateMaintenance(landlord, m, domain.MaintenanceUpdate{Status: &status}))

	inProgress := *m
	inProgress.Status = domain.MaintenanceInProgress
	assert.Equal(t, domain.KindInvalidState, kind(p.UpdateMaintenance(tenant, &inProgress, domain.MaintenanceUpdate{Description: &desc})))

	assert.Equal(t, domain.KindAuthorization, kind(p.DeleteMaintenance(tenant, m)))
	assert.NoError(t, p.DeleteMaintenance(landlord, m))
}

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(nil)
	assert.True(t, as.HasPermission(domain.RoleTenant, PermRequestRent))
	assert.False(t, as.HasPermission(domain.RoleLandlord, PermRequestRent))
	assert.True(t, as.HasPermission(domain.RoleAdmin, PermRevertRentRequests))
	assert.False(t, as.HasPermission(domain.Role("guest"), PermListHouses))
	assert.Equal(t, domain.KindAuthorization, kind(as.ValidatePermission(domain.RoleTenant, PermManageHouses)))
}
