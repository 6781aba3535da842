package model

import "time"

// Role classifies an authenticated party.
type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleFactory Role = "factory"
	RoleAdmin   Role = "admin"
)

// User is an authenticated party. FactoryID is set only for factory users.
type User struct {
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	FactoryID string    `json:"factoryId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) IsBuyer() bool   { return u.Role == RoleBuyer }
func (u *User) IsFactory() bool { return u.Role == RoleFactory }
func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
