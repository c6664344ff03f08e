package helpers

type EnhancedClaims struct {
	*CustomClaims
	Role        string `json:"role"`
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	Fullname    string `json:"full_name,omitempty"`
	PhoneNumber string `json:"phone,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Role == "admin"
}

func (ec *EnhancedClaims) IsVenueOwner() bool {
	return ec.Role == "owner"
}

func (ec *EnhancedClaims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if ec.Role == r {
			return true
		}
	}
	return false
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec.UserID == userID
}

func (ec *EnhancedClaims) GetSafeRole() string {
	if ec.Role == "" {
		return "renter"
	}
	return ec.Role
}
