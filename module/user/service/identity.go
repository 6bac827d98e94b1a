package service

import (
	"context"
	"strings"
	"time"

	"HealthSeva/logger"
	"HealthSeva/module/user/model"
	"HealthSeva/module/user/session"
	"HealthSeva/module/user/store"
	"HealthSeva/tools/errs"
	"HealthSeva/tools/safe"
	"HealthSeva/tools/security"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// identityNamespace scopes the name-based identity ids.
var identityNamespace = uuid.MustParse("6f1c9a2e-4b57-4d0e-9a52-7c3f8e1d2b90")

// IdentityID derives the stable identity id for an email address.
func IdentityID(email string) string {
	return uuid.NewSHA1(identityNamespace, []byte(strings.ToLower(strings.TrimSpace(email)))).String()
}

// SignInParams is what the login form submits.
type SignInParams struct {
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	BloodType string     `json:"bloodType"`
	IP        string     `json:"-"`
	UserAgent string     `json:"-"`
}

type SignInResult struct {
	Token    string           `json:"token"`
	ExpireAt time.Time        `json:"expireAt"`
	Identity session.Identity `json:"identity"`
	Profile  *model.Profile   `json:"profile"`
}

// Identity issues, verifies and revokes access tokens.
type Identity struct {
	opts     security.Options
	profiles store.ProfileStore
	tokens   store.TokenRegistry
	history  store.SessionLog
	now      func() time.Time
}

// NewIdentity wires the identity adapter; history may be nil.
func NewIdentity(opts security.Options, profiles store.ProfileStore, tokens store.TokenRegistry, history store.SessionLog) *Identity {
	safe.MustNotNil(profiles, "profile store")
	safe.MustNotNil(tokens, "token registry")
	return &Identity{opts: opts, profiles: profiles, tokens: tokens, history: history, now: time.Now}
}

// SignIn creates the profile when missing, otherwise stores the selected
// role on it, and issues a token for the identity.
func (s *Identity) SignIn(ctx context.Context, in SignInParams) (*SignInResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errs.ErrArgs.WrapMsg("valid email required")
	}
	role := in.Role
	if !role.Valid() {
		role = model.RoleUser
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	ident := session.Identity{ID: IdentityID(email), Email: email, Name: name}

	profile, err := s.profiles.SignIn(ctx, &model.Profile{
		ID:            ident.ID,
		Email:         email,
		Name:          name,
		Role:          role,
		BloodType:     in.BloodType,
		Notifications: model.DefaultNotifications(),
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}

	token, hash, exp, err := security.Generate(s.opts, ident.ID, map[string]any{
		"email": ident.Email,
		"name":  ident.Name,
	})
	if err != nil {
		return nil, errs.ErrInternal.WrapMsg("sign token", "err", err)
	}
	now := s.now()
	rec := &model.UserSession{
		SessionID:       uuid.NewString(),
		UserID:          ident.ID,
		Email:           ident.Email,
		Name:            ident.Name,
		Role:            role,
		AccessTokenHash: hash,
		IP:              in.IP,
		UserAgent:       in.UserAgent,
		LoginTime:       now,
		ExpireAt:        exp,
		Status:          model.SessionOnline,
	}
	if err := s.tokens.Put(ctx, rec, exp.Sub(now)); err != nil {
		return nil, err
	}
	s.record(ctx, rec)

	logger.Info("[Identity] signed in", zap.String("identity", ident.ID), zap.String("role", string(role)))
	return &SignInResult{Token: token, ExpireAt: exp, Identity: ident, Profile: profile}, nil
}

// Verify checks the token signature, expiry and that it was not revoked.
func (s *Identity) Verify(ctx context.Context, token string) (*session.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, errs.ErrNotLoggedIn.Wrap()
	}
	claims, err := security.Verify(s.opts, token, "")
	if err != nil {
		return nil, err
	}
	rec, err := s.tokens.Get(ctx, security.HashToken(token))
	if err != nil {
		return nil, err
	}
	if rec.UserID != claims.Subject() {
		return nil, errs.ErrTokenInvalid.WrapMsg("subject mismatch")
	}
	return &session.Identity{ID: claims.Subject(), Email: claims.Claim("email"), Name: claims.Claim("name")}, nil
}

// SignOut revokes token. Revoking an unknown token is not an error.
func (s *Identity) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	rec, err := s.tokens.Revoke(ctx, security.HashToken(token))
	if err != nil {
		if errs.Code(err) == errs.TokenInvalidError {
			return nil
		}
		return err
	}
	now := s.now()
	rec.LogoutTime = &now
	rec.Status = model.SessionOffline
	rec.Reason = "signout"
	s.record(ctx, rec)
	logger.Info("[Identity] signed out", zap.String("identity", rec.UserID))
	return nil
}

func (s *Identity) record(ctx context.Context, rec *model.UserSession) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, rec); err != nil {
		logger.Warn("[Identity] session history write failed", zap.String("session", rec.SessionID), zap.Error(err))
	}
}
