package store

import (
	"context"
	"database/sql"
	"errors"

	models "storefront/model"
)

const selectUserSQL = `SELECT id, name, phone, address FROM users WHERE id = $1`

// GetUser reads the current profile. Callers pass only the user id around and
// resolve the profile here when they need it.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx, selectUserSQL, id).Scan(&u.ID, &u.Name, &u.Phone, &u.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, storageErr("get user", err)
	}
	return u, nil
}
