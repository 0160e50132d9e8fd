package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/pitwall/internal/database"
	"github.com/yourusername/pitwall/internal/models"
)

// PostgresRegistrationRepository implements RegistrationRepository for PostgreSQL
type PostgresRegistrationRepository struct {
	db *database.DB
}

// NewPostgresRegistrationRepository creates a new registration repository
func NewPostgresRegistrationRepository(db *database.DB) RegistrationRepository {
	return &PostgresRegistrationRepository{db: db}
}

// ListByEvent returns every sign-up across the event's races with the user attached
func (r *PostgresRegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	query := `
		SELECT reg.id, reg.user_id, reg.race_id, reg.car_class_id,
		       u.id, u.name, u.email, u.role, u.iracing_customer_id, u.discord_id
		FROM registrations reg
		JOIN races ra ON ra.id = reg.race_id
		JOIN users u ON u.id = reg.user_id
		WHERE ra.event_id = $1
		ORDER BY ra.start_time ASC, u.name ASC
	`

	rows, err := r.db.Querier().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		reg := models.Registration{User: &models.User{}}
		u := reg.User
		err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.RaceID, &reg.CarClassID,
			&u.ID, &u.Name, &u.Email, &u.Role, &u.IRacingCustomerID, &u.DiscordID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	return regs, rows.Err()
}
