// internal/models/user.go
package models

// User is the normalized identity of an authenticated session.
// AdminType is empty unless Role is RoleAdmin.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email,omitempty"`
	Name       string     `json:"name,omitempty"`
	Role       Role       `json:"role"`
	AdminType  AdminType  `json:"adminType,omitempty"`
	IsVerified bool       `json:"isVerified"`
	Status     UserStatus `json:"status,omitempty"`
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
