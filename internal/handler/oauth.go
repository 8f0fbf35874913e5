package handler

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"

	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/model"
	"github.com/qrbites/qrbites/internal/repository"
	"github.com/qrbites/qrbites/internal/utils"
)

// OAuthHandler runs the federated sign-in handshake via goth.  A completed
// callback resolves to a local user three ways, in order: an existing
// federated credential for (provider, provider user id), an existing local
// account with the same email (auto-link), or a freshly created OAuth-only
// account with no password.
type OAuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Feds   *repository.FederatedRepo
	Tokens *repository.TokenRepo
}

func NewOAuthHandler(cfg config.Config, u *repository.UserRepo, f *repository.FederatedRepo, t *repository.TokenRepo) *OAuthHandler {
	return &OAuthHandler{Cfg: cfg, Users: u, Feds: f, Tokens: t}
}

// Begin redirects the browser to the provider's consent page.  gothic reads
// the provider name from the :provider route param.
func (h *OAuthHandler) Begin(c echo.Context) error {
	req := gothic.GetContextWithProvider(c.Request(), c.Param("provider"))
	// Already authenticated sessions skip the handshake.
	if gu, err := gothic.CompleteUserAuth(c.Response(), req); err == nil {
		return h.finish(c, gu)
	}
	gothic.BeginAuthHandler(c.Response(), req)
	return nil
}

// Callback completes the handshake and responds with a local JWT pair.
func (h *OAuthHandler) Callback(c echo.Context) error {
	req := gothic.GetContextWithProvider(c.Request(), c.Param("provider"))
	gu, err := gothic.CompleteUserAuth(c.Response(), req)
	if err != nil {
		return httperr.Unauthorized("oauth handshake failed")
	}
	return h.finish(c, gu)
}

func (h *OAuthHandler) finish(c echo.Context, gu goth.User) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.resolveUser(ctx, gu)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return httperr.Unauthorized("account deactivated")
	}
	if err := h.saveCredential(ctx, u.ID, gu); err != nil {
		// Token sealing problems must not block sign-in.
		log.Printf("oauth: persist credential for user %d failed: %v", u.ID, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTL)
	if err != nil {
		return err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return err
	}
	u.PasswordHash = ""
	return ok(c, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

func (h *OAuthHandler) resolveUser(ctx context.Context, gu goth.User) (model.User, error) {
	// 1. Known federated identity.
	if fc, err := h.Feds.GetByProvider(ctx, gu.Provider, gu.UserID); err == nil {
		return h.Users.GetByID(ctx, fc.UserID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))
	if email == "" {
		return model.User{}, httperr.BadRequest("provider returned no email")
	}

	// 2. Auto-link to an existing account by email.
	if u, err := h.Users.GetByEmail(ctx, email); err == nil {
		return u, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, err
	}

	// 3. First sign-in: create an OAuth-only account without a password.
	name := strings.TrimSpace(gu.Name)
	if name == "" {
		name = email
	}
	uid, err := h.Users.Create(ctx, email, "", name, gu.Provider, h.Cfg.BcryptRounds)
	if err != nil {
		return model.User{}, err
	}
	return h.Users.GetByID(ctx, uid)
}

func (h *OAuthHandler) saveCredential(ctx context.Context, userID uint64, gu goth.User) error {
	accessEnc, err := utils.Seal(h.Cfg.TokenCryptKey, gu.AccessToken)
	if err != nil {
		return err
	}
	refreshEnc := ""
	if gu.RefreshToken != "" {
		if refreshEnc, err = utils.Seal(h.Cfg.TokenCryptKey, gu.RefreshToken); err != nil {
			return err
		}
	}
	return h.Feds.Upsert(ctx, &model.FederatedCredential{
		UserID:          userID,
		Provider:        gu.Provider,
		ProviderUserID:  gu.UserID,
		AccessTokenEnc:  accessEnc,
		RefreshTokenEnc: refreshEnc,
	})
}
