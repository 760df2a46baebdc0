package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/filevault/auth-service/internal/adapters/transport/http/dto"
	"github.com/filevault/auth-service/internal/app/auth/identity"
	"github.com/filevault/auth-service/internal/app/auth/password"
	appsvc "github.com/filevault/auth-service/internal/app/auth/service"
	apptoken "github.com/filevault/auth-service/internal/app/auth/token"
	authErrors "github.com/filevault/auth-service/internal/domain/auth/errors"
	"github.com/filevault/auth-service/internal/domain/auth/model"
	"github.com/filevault/auth-service/internal/infra/config"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct {
	mu    sync.Mutex
	users map[string]model.Account
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]model.Account)}
}

func (u *userRepoStub) Create(_ context.Context, m model.Account) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.users[m.ID]; ok {
		return authErrors.ErrAlreadyExists
	}
	m.CreatedAt = time.Now()
	u.users[m.ID] = m
	return nil
}

func (u *userRepoStub) GetByID(_ context.Context, id string) (model.Account, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	m, ok := u.users[id]
	if !ok {
		return model.Account{}, authErrors.ErrNotFound
	}
	return m, nil
}

type sessionRepoStub struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]model.Session
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{sessions: make(map[uuid.UUID]model.Session)}
}

func (s *sessionRepoStub) Create(_ context.Context, accountID string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := model.Session{ID: uuid.New(), AccountID: accountID, CreatedAt: time.Now()}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *sessionRepoStub) GetByID(_ context.Context, id uuid.UUID) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, authErrors.ErrNotFound
	}
	return sess, nil
}

func (s *sessionRepoStub) DeleteByID(_ context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return 0, nil
	}
	delete(s.sessions, id)
	return 1, nil
}

/* ───────────────────────────── helpers ───────────────────────────── */

func newSvc(t *testing.T) (appsvc.Service, *apptoken.JWTCodec, *sessionRepoStub) {
	t.Helper()

	codec, err := apptoken.NewJWTCodec(&config.Config{
		AccessSecret:    "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  10 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	v := validator.New()
	require.NoError(t, v.RegisterValidation(appsvc.IdentifierRule, func(fl validator.FieldLevel) bool {
		return identity.Valid(fl.Field().String())
	}))

	sessions := newSessionRepoStub()
	svc := appsvc.New(newUserRepoStub(), sessions, hasher, codec, v)
	return svc, codec, sessions
}

func signUpAndIn(t *testing.T, svc appsvc.Service, id, pwd string) model.TokenPair {
	t.Helper()
	ctx := context.Background()

	_, err := svc.SignUp(ctx, dto.SignUpDTO{ID: id, Password: pwd})
	require.NoError(t, err)

	pair, err := svc.SignIn(ctx, dto.SignInDTO{ID: id, Password: pwd})
	require.NoError(t, err)
	return pair
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestSignUpThenSignIn(t *testing.T) {
	svc, codec, _ := newSvc(t)
	ctx := context.Background()

	msg, err := svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)
	require.Equal(t, "user successfully created", msg)

	pair, err := svc.SignIn(ctx, dto.SignInDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", claims.Subject)
	require.Equal(t, pair.SessionID.String(), claims.SessionID)

	// Session the token points at must already exist.
	sess, ok, err := svc.GetSessionData(ctx, claims.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a@b.com", sess.AccountID)
}

func TestSignUp_MissingCredentials(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, dto.SignUpDTO{ID: "", Password: "p"})
	require.True(t, authErrors.IsMissingCredentials(err))

	_, err = svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: ""})
	require.True(t, authErrors.IsMissingCredentials(err))
}

func TestSignUp_InvalidIdentifier(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, err := svc.SignUp(context.Background(), dto.SignUpDTO{ID: "not-an-id", Password: "p"})
	require.True(t, authErrors.IsInvalidIdentifier(err))
}

func TestSignUp_PhoneIdentifier(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, err := svc.SignUp(context.Background(), dto.SignUpDTO{ID: "1234567890", Password: "p"})
	require.NoError(t, err)
}

func TestSignUp_NotIdempotent(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)

	// Same password or not, the second call must fail.
	_, err = svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Secret1"})
	require.True(t, authErrors.IsAlreadyExists(err))

	_, err = svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Other2"})
	require.True(t, authErrors.IsAlreadyExists(err))
}

func TestSignIn_WrongPassword(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, dto.SignInDTO{ID: "a@b.com", Password: "wrong"})
	require.True(t, authErrors.IsInvalidCredentials(err))
	require.False(t, authErrors.IsUserNotFound(err))
}

func TestSignIn_UnknownAccount(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, err := svc.SignIn(context.Background(), dto.SignInDTO{ID: "ghost@b.com", Password: "p"})
	require.True(t, authErrors.IsUserNotFound(err))
}

func TestSignIn_MissingCredentials(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, err := svc.SignIn(context.Background(), dto.SignInDTO{})
	require.True(t, authErrors.IsMissingCredentials(err))
}

func TestSignIn_ConcurrentSessionsCoexist(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)

	first, err := svc.SignIn(ctx, dto.SignInDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)
	second, err := svc.SignIn(ctx, dto.SignInDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)

	// Logging out of one session leaves the other live.
	require.NoError(t, svc.Logout(ctx, dto.LogoutDTO{AccessToken: first.AccessToken}))
	_, err = svc.Validate(ctx, second.AccessToken)
	require.NoError(t, err)
}

func TestRefresh_IssuesNewPair(t *testing.T) {
	svc, codec, _ := newSvc(t)
	ctx := context.Background()

	pair := signUpAndIn(t, svc, "a@b.com", "Secret1")

	next, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.Equal(t, pair.SessionID, next.SessionID)

	claims, err := codec.VerifyAccess(next.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", claims.Subject)
	require.Equal(t, pair.SessionID.String(), claims.SessionID)
}

func TestRefresh_InvalidToken(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, err := svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: "bad"})
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	svc, _, _ := newSvc(t)
	pair := signUpAndIn(t, svc, "a@b.com", "Secret1")

	// An access token presented where a refresh token is expected must
	// fail signature verification, not silently succeed.
	_, err := svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: pair.AccessToken})
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestRefresh_AfterLogout(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	pair := signUpAndIn(t, svc, "a@b.com", "Secret1")
	require.NoError(t, svc.Logout(ctx, dto.LogoutDTO{AccessToken: pair.AccessToken}))

	// The refresh token still verifies cryptographically; the missing
	// session row is what rejects it.
	_, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.True(t, authErrors.IsSessionNotFound(err))
}

func TestRefresh_OldTokenStillValid(t *testing.T) {
	// Current behavior: refresh does not rotate, the consumed refresh
	// token keeps working until its own expiry.
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	pair := signUpAndIn(t, svc, "a@b.com", "Secret1")

	_, err := svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
}

func TestLogout_MissingToken(t *testing.T) {
	svc, _, _ := newSvc(t)
	err := svc.Logout(context.Background(), dto.LogoutDTO{})
	require.True(t, authErrors.IsMissingToken(err))
}

func TestLogout_InvalidToken(t *testing.T) {
	svc, _, _ := newSvc(t)
	err := svc.Logout(context.Background(), dto.LogoutDTO{AccessToken: "bad"})
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestLogout_NotIdempotent(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	pair := signUpAndIn(t, svc, "a@b.com", "Secret1")

	require.NoError(t, svc.Logout(ctx, dto.LogoutDTO{AccessToken: pair.AccessToken}))

	err := svc.Logout(ctx, dto.LogoutDTO{AccessToken: pair.AccessToken})
	require.True(t, authErrors.IsSessionNotFound(err))
}

func TestValidate_LivenessAfterLogout(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	pair := signUpAndIn(t, svc, "a@b.com", "Secret1")

	sess, err := svc.Validate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", sess.AccountID)

	require.NoError(t, svc.Logout(ctx, dto.LogoutDTO{AccessToken: pair.AccessToken}))

	// Signature and expiry are still fine; the revoked session is not.
	_, err = svc.Validate(ctx, pair.AccessToken)
	require.True(t, authErrors.IsSessionNotFound(err))
}

func TestValidate_ExpiredToken(t *testing.T) {
	expired, err := apptoken.NewJWTCodec(&config.Config{
		AccessSecret:    "test-access-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  -time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	svc, _, _ := newSvc(t)
	raw, _, err := expired.SignAccess("a@b.com", uuid.NewString())
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), raw)
	require.True(t, authErrors.IsExpiredToken(err))
}

func TestGetUserData_NeverLeaksHash(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)

	view, ok, err := svc.GetUserData(ctx, "a@b.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a@b.com", view.ID)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "password")
	require.NotContains(t, string(raw), "hash")
}

func TestGetUserData_Absent(t *testing.T) {
	svc, _, _ := newSvc(t)
	_, ok, err := svc.GetUserData(context.Background(), "ghost@b.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetSessionData_Absent(t *testing.T) {
	svc, _, _ := newSvc(t)
	ctx := context.Background()

	_, ok, err := svc.GetSessionData(ctx, uuid.NewString())
	require.NoError(t, err)
	require.False(t, ok)

	// Malformed ids are absence, not an error.
	_, ok, err = svc.GetSessionData(ctx, "not-a-uuid")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEndToEndScenario(t *testing.T) {
	svc, codec, _ := newSvc(t)
	ctx := context.Background()

	msg, err := svc.SignUp(ctx, dto.SignUpDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	pair, err := svc.SignIn(ctx, dto.SignInDTO{ID: "a@b.com", Password: "Secret1"})
	require.NoError(t, err)

	claims, err := codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", claims.Subject)

	_, ok, err := svc.GetSessionData(ctx, claims.SessionID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.Logout(ctx, dto.LogoutDTO{AccessToken: pair.AccessToken}))

	_, ok, err = svc.GetSessionData(ctx, claims.SessionID)
	require.NoError(t, err)
	require.False(t, ok)

	err = svc.Logout(ctx, dto.LogoutDTO{AccessToken: pair.AccessToken})
	require.True(t, authErrors.IsSessionNotFound(err))
}
