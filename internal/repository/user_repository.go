package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/utils"
)

const userColumns = "id,email,COALESCE(password_hash,''),name,role,provider,is_active,created_at,updated_at"

// UserRepo persists application users.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  password may be empty for
// OAuth-only accounts; in that case no hash is stored.
func (r *UserRepo) Create(ctx context.Context, email, password, name, provider string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var hash sql.NullString
	if password != "" {
		h, err := utils.HashPassword(password, cost)
		if err != nil {
			return 0, err
		}
		hash = sql.NullString{String: h, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, role, provider) VALUES (?,?,?,?,?)",
		email, hash, name, model.RoleUser, provider)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Provider, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// List returns a page of users together with the total count.  Admin only.
func (r *UserRepo) List(ctx context.Context, lq ListQuery) ([]model.User, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+lq.Cond(), lq.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + userColumns + " FROM users WHERE " + lq.Cond() +
		" ORDER BY " + lq.Order + " LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, q, append(append([]any{}, lq.Args...), lq.Limit, lq.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.User, 0, lq.Limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Provider, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// UpdateProfile changes the display name.  Returns ErrNotFound when the user
// does not exist.  MySQL reports zero affected rows when the name is already
// the stored value, so a zero count is confirmed against the row first.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.confirmExists(ctx, id)
	}
	return nil
}

// UpdatePassword rehashes and stores a new password.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.confirmExists(ctx, id)
	}
	return nil
}

// confirmExists disambiguates a zero RowsAffected count: nil when the row is
// there (value-unchanged update), ErrNotFound when it is not.
func (r *UserRepo) confirmExists(ctx context.Context, id uint64) error {
	var exists uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE id=?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a user row.  Owned restaurants are not touched here; the
// handler refuses deletion while restaurants remain.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
