package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/qrbites/qrbites/internal/model"
)

const menuItemColumns = `mi.id, mi.menu_id, mi.name, COALESCE(mi.description,''), mi.price_cents,
	COALESCE(mi.category,''), COALESCE(mi.calories,0), COALESCE(mi.allergens,''), COALESCE(mi.tags,''),
	mi.is_available, COALESCE(mi.image_url,''), mi.created_at, mi.updated_at`

// MenuItemRepo encapsulates all database queries related to menu items.
type MenuItemRepo struct {
	db *sql.DB
}

func NewMenuItemRepo(db *sql.DB) *MenuItemRepo {
	return &MenuItemRepo{db: db}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuItem(s rowScanner) (*model.MenuItem, error) {
	var (
		item            model.MenuItem
		allergens, tags string
	)
	if err := s.Scan(&item.ID, &item.MenuID, &item.Name, &item.Description, &item.PriceCents,
		&item.Category, &item.Calories, &allergens, &tags,
		&item.IsAvailable, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Allergens = splitTags(allergens)
	item.Tags = splitTags(tags)
	item.SyncPrice()
	return &item, nil
}

// Create inserts a menu item.  On success the ID and timestamps are set.
func (r *MenuItemRepo) Create(ctx context.Context, item *model.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (menu_id, name, description, price_cents, category, calories, allergens, tags, is_available)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		item.MenuID, item.Name, nullable(item.Description), item.PriceCents,
		nullable(item.Category), item.Calories, nullable(joinTags(item.Allergens)),
		nullable(joinTags(item.Tags)), item.IsAvailable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = uint64(id)

	return r.db.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM menu_items WHERE id = ?", item.ID).
		Scan(&item.CreatedAt, &item.UpdatedAt)
}

// GetByID fetches a menu item.  Returns ErrNotFound when no row exists.
func (r *MenuItemRepo) GetByID(ctx context.Context, id uint64) (*model.MenuItem, error) {
	item, err := scanMenuItem(r.db.QueryRowContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items mi WHERE mi.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// List returns a page of menu items and the total count, scoped to the
// owner's restaurants unless ownerID is nil (admin).
func (r *MenuItemRepo) List(ctx context.Context, ownerID *uint64, lq ListQuery) ([]*model.MenuItem, int64, error) {
	where := lq.Cond()
	args := append([]any{}, lq.Args...)
	join := ""
	if ownerID != nil {
		join = " JOIN menus m ON m.id = mi.menu_id JOIN restaurants r ON r.id = m.restaurant_id"
		where += " AND r.owner_id = ?"
		args = append(args, *ownerID)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM menu_items mi"+join+" WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items mi"+join+" WHERE "+where+
			" ORDER BY "+lq.Order+" LIMIT ? OFFSET ?",
		append(args, lq.Limit, lq.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.MenuItem, 0, lq.Limit)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	return out, total, rows.Err()
}

// ListAvailableByMenu returns the available items of a menu for the public
// browse endpoint.
func (r *MenuItemRepo) ListAvailableByMenu(ctx context.Context, menuID uint64) ([]model.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items mi WHERE mi.menu_id = ? AND mi.is_available = 1 ORDER BY mi.id",
		menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

// Update rewrites the mutable item fields.  ErrNotFound when missing.
func (r *MenuItemRepo) Update(ctx context.Context, item *model.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menu_items
		 SET name=?, description=?, price_cents=?, category=?, calories=?, allergens=?, tags=?, is_available=?,
		     updated_at=CURRENT_TIMESTAMP
		 WHERE id=?`,
		item.Name, nullable(item.Description), item.PriceCents, nullable(item.Category),
		item.Calories, nullable(joinTags(item.Allergens)), nullable(joinTags(item.Tags)),
		item.IsAvailable, item.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if scanErr := r.db.QueryRowContext(ctx, "SELECT id FROM menu_items WHERE id=?", item.ID).Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrNotFound
			}
			return scanErr
		}
	}
	return nil
}

// SetImageURL stores the public URL of an uploaded item photo.  A zero row
// count can also mean a value-unchanged update, so existence is confirmed
// before reporting not found.
func (r *MenuItemRepo) SetImageURL(ctx context.Context, id uint64, url string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE menu_items SET image_url=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists uint64
		if scanErr := r.db.QueryRowContext(ctx, "SELECT id FROM menu_items WHERE id=?", id).Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return ErrNotFound
			}
			return scanErr
		}
	}
	return nil
}

// Delete removes a menu item.
func (r *MenuItemRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM menu_items WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// OwnerOf resolves a menu item to the owning user of its restaurant by
// walking the MenuItem→Menu→Restaurant chain.  It implements the resolver
// contract of the ownership guard.
func (r *MenuItemRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT r.owner_id
		 FROM menu_items mi
		 JOIN menus m ON m.id = mi.menu_id
		 JOIN restaurants r ON r.id = m.restaurant_id
		 WHERE mi.id = ?`, id).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return ownerID, err
}
