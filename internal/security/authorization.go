package security

import (
	"log/slog"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermListHouses         Permission = "list_houses"
	PermManageHouses       Permission = "manage_houses"
	PermRequestRent        Permission = "request_rent"
	PermDecideRentRequests Permission = "decide_rent_requests"
	PermRevertRentRequests Permission = "revert_rent_requests"
	PermManageLeases       Permission = "manage_leases"
	PermManagePayments     Permission = "manage_payments"
	PermPayRent            Permission = "pay_rent"
	PermManageReminders    Permission = "manage_reminders"
	PermReportMaintenance  Permission = "report_maintenance"
	PermManageMaintenance  Permission = "manage_maintenance"
	PermViewAll            Permission = "view_all"
)

// RolePermissions maps roles to their permissions. Ownership of the
// individual resource is checked separately by Policy.
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermListHouses,
		PermManageHouses,
		PermDecideRentRequests,
		PermRevertRentRequests,
		PermManageLeases,
		PermManagePayments,
		PermPayRent,
		PermManageReminders,
		PermReportMaintenance,
		PermManageMaintenance,
		PermViewAll,
	},
	domain.RoleLandlord: {
		PermListHouses,
		PermManageHouses,
		PermDecideRentRequests,
		PermManageLeases,
		PermManagePayments,
		PermPayRent,
		PermManageReminders,
		PermManageMaintenance,
	},
	domain.RoleTenant: {
		PermListHouses,
		PermRequestRent,
		PermPayRent,
		PermReportMaintenance,
	},
}

// AuthorizationService handles role-level permission checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return domain.Forbidden("%s role cannot %s", role, permission)
	}
	return nil
}
