package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/pitwall/internal/database"
	"github.com/yourusername/pitwall/internal/models"
)

const selectUserColumns = `id, name, email, role, iracing_customer_id, discord_id`

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *database.DB
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *database.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE id = $1`

	u := &models.User{}
	err := r.db.Querier().QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.IRacingCustomerID, &u.DiscordID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// ListWithCustomerID retrieves every user who linked an iRacing account
func (r *PostgresUserRepository) ListWithCustomerID(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT ` + selectUserColumns + `
		FROM users
		WHERE iracing_customer_id IS NOT NULL AND iracing_customer_id <> ''
		ORDER BY name ASC
	`

	rows, err := r.db.Querier().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IRacingCustomerID, &u.DiscordID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// UpdateName sets the display name reported by the provider
func (r *PostgresUserRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := r.db.Querier().Exec(ctx, `UPDATE users SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
