package constants

// Operator permissions for the admin/debug surface
const (
	PermSuperAdminFull = "qrcred-recovery.super-admin.full-permit"
	PermOperatorFull   = "qrcred-recovery.operator.full-permit"

	// Special permissions
	PermAny = "any"
)

// OperatorPermissions are the claims that open the admin surface
var OperatorPermissions = []string{
	PermSuperAdminFull,
	PermOperatorFull,
}
