package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// UserRepo is the read side of the users table.  Account management lives
// outside this service.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	const op = "repository.UserRepo.GetByID"

	var u model.User
	err := conn(ctx, r.db).QueryRowContext(ctx,
		"SELECT id, email, name, role FROM users WHERE id = ? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	return u, nil
}
