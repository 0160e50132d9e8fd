package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is a user's access level
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is a team member. IRacingCustomerID is set once the user links their account.
type User struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	Role              Role      `db:"role" json:"role"`
	IRacingCustomerID *string   `db:"iracing_customer_id" json:"iracing_customer_id,omitempty"`
	DiscordID         *string   `db:"discord_id" json:"discord_id,omitempty"`
}

// MemberInfo is the provider's license snapshot for one customer.
type MemberInfo struct {
	CustomerID  int       `json:"cust_id"`
	DisplayName string    `json:"display_name"`
	Licenses    []License `json:"licenses"`
}

// License is one license category of a member.
type License struct {
	CategoryID   int             `json:"category_id"`
	Category     string          `json:"category"`
	LicenseLevel int             `json:"license_level"`
	SafetyRating decimal.Decimal `json:"safety_rating"`
	IRating      int             `json:"irating"`
	GroupName    string          `json:"group_name"`
}

// DriverStats is the persisted license row, unique per (user, category).
type DriverStats struct {
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	CategoryID   int             `db:"category_id" json:"category_id"`
	Category     string          `db:"category" json:"category"`
	LicenseLevel int             `db:"license_level" json:"license_level"`
	SafetyRating decimal.Decimal `db:"safety_rating" json:"safety_rating"`
	IRating      int             `db:"irating" json:"irating"`
	GroupName    string          `db:"group_name" json:"group_name"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Registration links a user to a race they signed up for.
type Registration struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	RaceID     uuid.UUID  `db:"race_id" json:"race_id"`
	CarClassID *uuid.UUID `db:"car_class_id" json:"car_class_id,omitempty"`
	User       *User      `db:"-" json:"user,omitempty"`
}
