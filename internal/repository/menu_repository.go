package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/qrbites/qrbites/internal/model"
)

const menuColumns = `m.id, m.restaurant_id, m.name, COALESCE(m.description,''), m.is_active,
	COALESCE(m.categories,''), COALESCE(m.qr_code_url,''), m.created_at, m.updated_at`

// MenuRepo encapsulates all database queries related to menus and their
// image rows.
type MenuRepo struct {
	db *sql.DB
}

func NewMenuRepo(db *sql.DB) *MenuRepo {
	return &MenuRepo{db: db}
}

// Create inserts a menu and its image rows in one transaction.  On success
// the ID and timestamp fields are populated.  The QR code URL is attached
// later by the creation sequence; a failure there compensates by calling
// Delete on the fresh row.
func (r *MenuRepo) Create(ctx context.Context, m *model.Menu) (err error) {
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
		`INSERT INTO menus (restaurant_id, name, description, categories)
		 VALUES (?,?,?,?)`,
		m.RestaurantID, m.Name, nullable(m.Description), nullable(joinTags(m.Categories)))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	for pos, url := range m.ImageURLs {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO menu_images (menu_id, url, position) VALUES (?,?,?)",
			m.ID, url, pos); err != nil {
			return err
		}
	}

	err = tx.QueryRowContext(ctx,
		"SELECT is_active, created_at, updated_at FROM menus WHERE id = ?", m.ID).
		Scan(&m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return err
}

// GetByID fetches a menu with its image URLs.  Items are not loaded here;
// use GetWithItems for the detail view.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (*model.Menu, error) {
	var (
		m    model.Menu
		cats string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT "+menuColumns+" FROM menus m WHERE m.id = ?", id).
		Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.IsActive,
			&cats, &m.QRCodeURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Categories = splitTags(cats)
	m.Items = []model.MenuItem{}
	if m.ImageURLs, err = r.imageURLs(ctx, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetWithItems fetches a menu together with all of its items.
func (r *MenuRepo) GetWithItems(ctx context.Context, id uint64) (*model.Menu, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items mi WHERE mi.menu_id = ? ORDER BY mi.id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		m.Items = append(m.Items, *item)
	}
	return m, rows.Err()
}

// List returns a page of menus and the total count.  ownerID narrows the
// result to menus of restaurants owned by that user (admin listing passes
// nil).  Items are left empty.
func (r *MenuRepo) List(ctx context.Context, ownerID *uint64, lq ListQuery) ([]*model.Menu, int64, error) {
	where := lq.Cond()
	args := append([]any{}, lq.Args...)
	join := ""
	if ownerID != nil {
		join = " JOIN restaurants r ON r.id = m.restaurant_id"
		where += " AND r.owner_id = ?"
		args = append(args, *ownerID)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM menus m"+join+" WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+menuColumns+" FROM menus m"+join+" WHERE "+where+
			" ORDER BY "+lq.Order+" LIMIT ? OFFSET ?",
		append(args, lq.Limit, lq.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Menu, 0, lq.Limit)
	for rows.Next() {
		var (
			m    model.Menu
			cats string
		)
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.IsActive,
			&cats, &m.QRCodeURL, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		m.Categories = splitTags(cats)
		m.Items = []model.MenuItem{}
		m.ImageURLs = []string{}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, m := range out {
		if m.ImageURLs, err = r.imageURLs(ctx, m.ID); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// ListActiveByRestaurant returns the active menus of a restaurant for the
// public browse endpoint.
func (r *MenuRepo) ListActiveByRestaurant(ctx context.Context, restaurantID uint64) ([]*model.Menu, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+menuColumns+" FROM menus m WHERE m.restaurant_id = ? AND m.is_active = 1 ORDER BY m.id",
		restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Menu
	for rows.Next() {
		var (
			m    model.Menu
			cats string
		)
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.IsActive,
			&cats, &m.QRCodeURL, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Categories = splitTags(cats)
		m.Items = []model.MenuItem{}
		m.ImageURLs = []string{}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Update rewrites the mutable menu fields.  ErrNotFound when missing.
func (r *MenuRepo) Update(ctx context.Context, m *model.Menu) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menus SET name=?, description=?, is_active=?, categories=?, updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		m.Name, nullable(m.Description), m.IsActive, nullable(joinTags(m.Categories)), m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if scanErr := r.db.QueryRowContext(ctx, "SELECT id FROM menus WHERE id=?", m.ID).Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrNotFound
			}
			return scanErr
		}
	}
	return nil
}

// SetQRCodeURL overwrites the stored QR image URL.  MySQL reports zero
// affected rows for a value-unchanged update, so a zero count is confirmed
// against the row before it becomes ErrNotFound.
func (r *MenuRepo) SetQRCodeURL(ctx context.Context, id uint64, url string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE menus SET qr_code_url=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if scanErr := r.db.QueryRowContext(ctx, "SELECT id FROM menus WHERE id=?", id).Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrNotFound
			}
			return scanErr
		}
	}
	return nil
}

// AddImages appends uploaded image URLs after the existing positions.
func (r *MenuRepo) AddImages(ctx context.Context, id uint64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	var next int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position)+1, 0) FROM menu_images WHERE menu_id=?", id).Scan(&next); err != nil {
		return err
	}
	for i, url := range urls {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO menu_images (menu_id, url, position) VALUES (?,?,?)",
			id, url, next+i); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a menu and cascades to its items and image rows in one
// transaction.  It doubles as the compensating delete of the creation
// sequence when QR generation fails.
func (r *MenuRepo) Delete(ctx context.Context, id uint64) (err error) {
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
	if err = tx.QueryRowContext(ctx, "SELECT id FROM menus WHERE id=?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM menu_items WHERE menu_id = ?", id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM menu_images WHERE menu_id = ?", id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM menus WHERE id = ?", id)
	return err
}

// OwnerOf resolves a menu id to the owning user of its restaurant.  It
// implements the resolver contract of the ownership guard.
func (r *MenuRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT r.owner_id FROM menus m JOIN restaurants r ON r.id = m.restaurant_id WHERE m.id = ?`,
		id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return ownerID, err
}

// RestaurantOf returns the parent restaurant id of a menu.
func (r *MenuRepo) RestaurantOf(ctx context.Context, id uint64) (uint64, error) {
	var restaurantID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT restaurant_id FROM menus WHERE id = ?", id).Scan(&restaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return restaurantID, err
}

func (r *MenuRepo) imageURLs(ctx context.Context, menuID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT url FROM menu_images WHERE menu_id = ? ORDER BY position", menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// joinTags flattens a tag list into the comma-joined column form.
func joinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

// splitTags expands the comma-joined column form; "" becomes an empty list.
func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
