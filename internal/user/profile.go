// Package user defines the profile projection the checkout calculators
// consume. Account storage and authentication live in the storefront backend;
// only the fields that influence pricing and risk cross this boundary.
package user

// Role identifies the storefront role attached to a profile.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleReseller Role = "reseller"
	RoleAdmin    Role = "admin"
)

// Profile is the minimal user projection required at checkout time.
type Profile struct {
	ID            string `json:"id"`
	Role          Role   `json:"role"`
	WalletBalance int64  `json:"walletBalance,omitempty"`
	ReferralCode  string `json:"referralCode,omitempty"`
}

// IsReseller reports whether tier pricing applies to the profile.
func (p Profile) IsReseller() bool {
	return p.Role == RoleReseller
}
