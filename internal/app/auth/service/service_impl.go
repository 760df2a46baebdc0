package service

import (
	"context"
	"errors"
	"time"

	"github.com/filevault/auth-service/internal/adapters/transport/http/dto"
	"github.com/filevault/auth-service/internal/app/auth/password"
	customErrors "github.com/filevault/auth-service/internal/domain/auth/errors"
	"github.com/filevault/auth-service/internal/domain/auth/model"
	"github.com/filevault/auth-service/internal/domain/auth/repo"
	"github.com/filevault/auth-service/internal/domain/auth/token"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// IdentifierRule is the validator tag name for the email-or-phone login
// format check; main registers it against identity.Valid.
const IdentifierRule = "loginid"

type Service interface {
	SignUp(context.Context, dto.SignUpDTO) (string, error)
	SignIn(context.Context, dto.SignInDTO) (model.TokenPair, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	Logout(context.Context, dto.LogoutDTO) error

	// Validate is the uniform liveness check: signature, expiry, and the
	// session row itself. Every privileged operation goes through it, a
	// cryptographically valid token whose session was revoked is refused.
	Validate(ctx context.Context, accessToken string) (model.Session, error)

	GetSessionData(ctx context.Context, sessionID string) (model.Session, bool, error)
	GetUserData(ctx context.Context, accountID string) (model.AccountView, bool, error)
}

type authService struct {
	users    repo.UserRepo
	sessions repo.SessionRepo
	hasher   *password.Hasher
	codec    token.Codec
	v        *validator.Validate
}

func New(
	ur repo.UserRepo,
	sr repo.SessionRepo,
	h *password.Hasher,
	c token.Codec,
	v *validator.Validate,
) Service {
	return &authService{
		users: ur, sessions: sr, hasher: h, codec: c, v: v,
	}
}

func (a *authService) SignUp(ctx context.Context, d dto.SignUpDTO) (string, error) {
	if d.ID == "" || d.Password == "" {
		return "", customErrors.ErrMissingCredentials
	}
	if err := a.v.Var(d.ID, IdentifierRule); err != nil {
		return "", customErrors.ErrInvalidIdentifier
	}

	_, err := a.users.GetByID(ctx, d.ID)
	switch {
	case err == nil:
		return "", customErrors.ErrAlreadyExists
	case !errors.Is(err, customErrors.ErrNotFound):
		return "", customErrors.WrapInternal(err, "SignUp")
	}

	hash, err := a.hasher.Hash(d.Password)
	if err != nil {
		return "", customErrors.WrapInternal(err, "SignUp")
	}

	if err := a.users.Create(ctx, model.Account{ID: d.ID, PasswordHash: hash}); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return "", customErrors.ErrAlreadyExists
		}
		return "", customErrors.WrapInternal(err, "SignUp")
	}

	return "user successfully created", nil
}

func (a *authService) SignIn(ctx context.Context, d dto.SignInDTO) (model.TokenPair, error) {
	if d.ID == "" || d.Password == "" {
		return model.TokenPair{}, customErrors.ErrMissingCredentials
	}

	user, err := a.users.GetByID(ctx, d.ID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "SignIn")
	}

	if !a.hasher.Verify(d.Password, user.PasswordHash) {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	// The session row must be durably created before minting: the tokens
	// embed its id.
	sess, err := a.sessions.Create(ctx, user.ID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "SignIn")
	}

	return a.issueTokens(user.ID, sess.ID)
}

func (a *authService) Refresh(ctx context.Context, d dto.RefreshDTO) (model.TokenPair, error) {
	claims, err := a.codec.VerifyRefresh(d.RefreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	sid, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	sess, err := a.sessions.GetByID(ctx, sid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrSessionNotFound
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	if sess.AccountID != claims.Subject {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	// The presented refresh token is not invalidated here: it stays
	// usable until its own expiry. The session row is the only
	// revocation handle.
	return a.issueTokens(claims.Subject, sess.ID)
}

func (a *authService) Logout(ctx context.Context, d dto.LogoutDTO) error {
	if d.AccessToken == "" {
		return customErrors.ErrMissingToken
	}

	claims, err := a.codec.VerifyAccess(d.AccessToken)
	if err != nil {
		return err
	}

	sid, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return customErrors.ErrInvalidToken
	}

	affected, err := a.sessions.DeleteByID(ctx, sid)
	if err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	if affected == 0 {
		// Second logout with the same token lands here; surfaced, not
		// swallowed.
		return customErrors.ErrSessionNotFound
	}
	return nil
}

func (a *authService) Validate(ctx context.Context, accessToken string) (model.Session, error) {
	if accessToken == "" {
		return model.Session{}, customErrors.ErrMissingToken
	}

	claims, err := a.codec.VerifyAccess(accessToken)
	if err != nil {
		return model.Session{}, err
	}

	sid, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return model.Session{}, customErrors.ErrInvalidToken
	}

	sess, err := a.sessions.GetByID(ctx, sid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Session{}, customErrors.ErrSessionNotFound
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "Validate")
	}

	if sess.AccountID != claims.Subject {
		return model.Session{}, customErrors.ErrInvalidToken
	}
	return sess, nil
}

func (a *authService) GetSessionData(ctx context.Context, sessionID string) (model.Session, bool, error) {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return model.Session{}, false, nil
	}

	sess, err := a.sessions.GetByID(ctx, sid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Session{}, false, nil
	case err != nil:
		return model.Session{}, false, customErrors.WrapInternal(err, "GetSessionData")
	}
	return sess, true, nil
}

func (a *authService) GetUserData(ctx context.Context, accountID string) (model.AccountView, bool, error) {
	user, err := a.users.GetByID(ctx, accountID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.AccountView{}, false, nil
	case err != nil:
		return model.AccountView{}, false, customErrors.WrapInternal(err, "GetUserData")
	}
	return user.View(), true, nil
}

func (a *authService) issueTokens(accountID string, sessionID uuid.UUID) (model.TokenPair, error) {
	at, atExp, err := a.codec.SignAccess(accountID, sessionID.String())
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "SignAccess")
	}
	rt, rtExp, err := a.codec.SignRefresh(accountID, sessionID.String())
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "SignRefresh")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		AccountID:    accountID,
		SessionID:    sessionID,
	}, nil
}
