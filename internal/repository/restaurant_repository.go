// Package repository contains data access logic separated from HTTP handlers.
// This file defines repository methods for restaurants, including the weekly
// hours child table and the transactional cascade delete down to menu items.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qrbites/qrbites/internal/model"
)

const restaurantColumns = `id, owner_id, name, COALESCE(phone,''), COALESCE(email,''), COALESCE(website,''),
	street, house_number, city, zip, COALESCE(logo_url,''), is_active, created_at, updated_at`

// RestaurantRepo encapsulates all database queries related to restaurants.
type RestaurantRepo struct {
	db *sql.DB
}

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

// Create inserts a restaurant and its 7-row weekly hours table in one
// transaction.  On success the ID and timestamp fields are populated.
func (r *RestaurantRepo) Create(ctx context.Context, rest *model.Restaurant) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO restaurants (owner_id, name, phone, email, website, street, house_number, city, zip)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		rest.OwnerID, rest.Name, nullable(rest.Phone), nullable(rest.Email), nullable(rest.Website),
		rest.Street, rest.HouseNumber, rest.City, rest.Zip)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rest.ID = uint64(id)

	if err = insertHours(ctx, tx, rest.ID, rest.Hours); err != nil {
		return err
	}

	err = tx.QueryRowContext(ctx,
		"SELECT is_active, created_at, updated_at FROM restaurants WHERE id = ?", rest.ID).
		Scan(&rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	return err
}

// GetByID fetches a restaurant with its hours table.  Returns ErrNotFound
// when no row exists.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	var rest model.Restaurant
	err := r.db.QueryRowContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", id).
		Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Phone, &rest.Email, &rest.Website,
			&rest.Street, &rest.HouseNumber, &rest.City, &rest.Zip, &rest.LogoURL,
			&rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	hours, err := r.loadHours(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	rest.Hours = hours[id]
	return &rest, nil
}

// List returns a page of restaurants and the total count.  ownerID narrows
// the result to one owner; pass nil for an admin listing across all owners.
func (r *RestaurantRepo) List(ctx context.Context, ownerID *uint64, lq ListQuery) ([]*model.Restaurant, int64, error) {
	where := lq.Cond()
	args := append([]any{}, lq.Args...)
	if ownerID != nil {
		where += " AND owner_id = ?"
		args = append(args, *ownerID)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM restaurants WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE "+where+
			" ORDER BY "+lq.Order+" LIMIT ? OFFSET ?",
		append(args, lq.Limit, lq.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Restaurant, 0, lq.Limit)
	ids := make([]uint64, 0, lq.Limit)
	for rows.Next() {
		rest := new(model.Restaurant)
		if err := rows.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Phone, &rest.Email, &rest.Website,
			&rest.Street, &rest.HouseNumber, &rest.City, &rest.Zip, &rest.LogoURL,
			&rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rest)
		ids = append(ids, rest.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	hours, err := r.loadHours(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, rest := range out {
		rest.Hours = hours[rest.ID]
	}
	return out, total, nil
}

// Update rewrites the restaurant row and replaces its hours table in one
// transaction.  ErrNotFound when the row does not exist.
func (r *RestaurantRepo) Update(ctx context.Context, rest *model.Restaurant) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE restaurants
		 SET name=?, phone=?, email=?, website=?, street=?, house_number=?, city=?, zip=?, is_active=?,
		     updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		rest.Name, nullable(rest.Phone), nullable(rest.Email), nullable(rest.Website),
		rest.Street, rest.HouseNumber, rest.City, rest.Zip, rest.IsActive, rest.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and a no-op update, so
		// confirm existence before reporting not found.
		var exists uint64
		if scanErr := tx.QueryRowContext(ctx, "SELECT id FROM restaurants WHERE id=?", rest.ID).Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				err = ErrNotFound
				return err
			}
			err = scanErr
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM restaurant_hours WHERE restaurant_id=?", rest.ID); err != nil {
		return err
	}
	err = insertHours(ctx, tx, rest.ID, rest.Hours)
	return err
}

// UpdateLogo stores the public URL of an uploaded logo.  A zero row count
// can also mean a value-unchanged update, so existence is confirmed before
// reporting not found.
func (r *RestaurantRepo) UpdateLogo(ctx context.Context, id uint64, url string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE restaurants SET logo_url=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if scanErr := r.db.QueryRowContext(ctx, "SELECT id FROM restaurants WHERE id=?", id).Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrNotFound
			}
			return scanErr
		}
	}
	return nil
}

// Delete removes a restaurant and cascades through its menus, menu images,
// menu items and hours inside a single transaction.
func (r *RestaurantRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists uint64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM restaurants WHERE id=?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE mi FROM menu_items mi
		 JOIN menus m ON m.id = mi.menu_id
		 WHERE m.restaurant_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE img FROM menu_images img
		 JOIN menus m ON m.id = img.menu_id
		 WHERE m.restaurant_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM menus WHERE restaurant_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM restaurant_hours WHERE restaurant_id = ?", id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM restaurants WHERE id = ?", id)
	return err
}

// OwnerOf resolves a restaurant id to its owning user id.  It implements the
// resolver contract of the ownership guard.
func (r *RestaurantRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM restaurants WHERE id = ?", id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return ownerID, err
}

// ExistsByOwner reports whether the user still owns any restaurant.
func (r *RestaurantRepo) ExistsByOwner(ctx context.Context, ownerID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM restaurants WHERE owner_id = ? LIMIT 1", ownerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// loadHours fetches hours rows for a set of restaurants grouped by id,
// ordered by day.  Every map value is non-nil so JSON output is an array.
func (r *RestaurantRepo) loadHours(ctx context.Context, ids []uint64) (map[uint64][]model.OpeningHour, error) {
	out := make(map[uint64][]model.OpeningHour, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	for _, id := range ids {
		out[id] = []model.OpeningHour{}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT restaurant_id, day, closed, COALESCE(opens,''), COALESCE(closes,'')
		 FROM restaurant_hours WHERE restaurant_id IN (`+placeholders+`) ORDER BY restaurant_id, day`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rid uint64
			h   model.OpeningHour
		)
		if err := rows.Scan(&rid, &h.Day, &h.Closed, &h.Opens, &h.Closes); err != nil {
			return nil, err
		}
		out[rid] = append(out[rid], h)
	}
	return out, rows.Err()
}

func insertHours(ctx context.Context, tx *sql.Tx, restaurantID uint64, hours []model.OpeningHour) error {
	for _, h := range hours {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO restaurant_hours (restaurant_id, day, closed, opens, closes)
			 VALUES (?,?,?,?,?)`,
			restaurantID, h.Day, h.Closed, nullable(h.Opens), nullable(h.Closes)); err != nil {
			return err
		}
	}
	return nil
}

// nullable converts "" to NULL so optional columns stay NULL instead of
// storing empty strings.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
