package vouchers

import "github.com/redeemly/redeemly-backend/pkg/enums"

// CanManageVouchers reports whether the role may create, update, or cancel
// vouchers.
func CanManageVouchers(role enums.UserRole) bool {
	return role == enums.UserRoleAdmin || role == enums.UserRoleManager
}

// CanDeleteVouchers reports whether the role may delete vouchers outright.
func CanDeleteVouchers(role enums.UserRole) bool {
	return role == enums.UserRoleAdmin
}

// CanViewAllUsages reports whether the role may read every usage record, not
// just their own.
func CanViewAllUsages(role enums.UserRole) bool {
	return role == enums.UserRoleAdmin || role == enums.UserRoleManager
}
