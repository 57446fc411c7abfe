package auth

// Roles carried in the token
const (
	RoleCustomer = "CUSTOMER"
	RoleVendor   = "VENDOR"
)

// Claims is who a request acts for
type Claims struct {
	UserID string
	Email  string
	Role   string
}

func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleVendor
}
