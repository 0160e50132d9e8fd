package models

import (
	"time"

	"github.com/google/uuid"
)

// CarClass is provider car-class reference data.
type CarClass struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID int       `db:"external_id" json:"external_id"`
	Name       string    `db:"name" json:"name"`
	ShortName  string    `db:"short_name" json:"short_name"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName prefers the short name.
func (c CarClass) DisplayName() string {
	if c.ShortName != "" {
		return c.ShortName
	}
	return c.Name
}
