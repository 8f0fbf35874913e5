package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/qrbites/qrbites/internal/model"
)

// FederatedRepo persists OAuth identity links.  (provider, provider_user_id)
// is unique, so one external identity maps to exactly one user.
type FederatedRepo struct{ DB *sql.DB }

func NewFederatedRepo(db *sql.DB) *FederatedRepo { return &FederatedRepo{DB: db} }

// GetByProvider looks up a credential by provider name and the provider's
// own user id.  Returns ErrNotFound when the identity is not linked yet.
func (r *FederatedRepo) GetByProvider(ctx context.Context, provider, providerUserID string) (model.FederatedCredential, error) {
	var fc model.FederatedCredential
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, provider, provider_user_id, access_token_enc, refresh_token_enc, created_at, updated_at
		 FROM federated_credentials WHERE provider=? AND provider_user_id=? LIMIT 1`,
		provider, providerUserID).
		Scan(&fc.ID, &fc.UserID, &fc.Provider, &fc.ProviderUserID, &fc.AccessTokenEnc, &fc.RefreshTokenEnc, &fc.CreatedAt, &fc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fc, ErrNotFound
	}
	return fc, err
}

// Upsert links an external identity to a user, refreshing the sealed provider
// tokens when the link already exists.
func (r *FederatedRepo) Upsert(ctx context.Context, fc *model.FederatedCredential) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO federated_credentials (user_id, provider, provider_user_id, access_token_enc, refresh_token_enc)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE access_token_enc=VALUES(access_token_enc),
		                         refresh_token_enc=VALUES(refresh_token_enc),
		                         updated_at=CURRENT_TIMESTAMP`,
		fc.UserID, fc.Provider, fc.ProviderUserID, fc.AccessTokenEnc, fc.RefreshTokenEnc)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		fc.ID = uint64(id)
	}
	return nil
}
