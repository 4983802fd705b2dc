package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/data/repos/testutil"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
)

func newAuthService(t *testing.T) AuthService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewAuthService(db, log,
		repos.NewUserRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret", time.Hour, 24*time.Hour)
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.New().String()[:8])
}

func TestAuthSignupIssuesTokens(t *testing.T) {
	svc := newAuthService(t)
	email := uniqueEmail("signup")

	user, pair, err := svc.Signup(context.Background(), email, "longenough", "")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatalf("signup user id not set")
	}
	if user.Email != email {
		t.Fatalf("email: want=%q got=%q", email, user.Email)
	}
	if user.DisplayName == "" {
		t.Fatalf("display name should default from the email local part")
	}
	if user.Password == "longenough" {
		t.Fatalf("password stored in plain text")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("token pair incomplete: %+v", pair)
	}

	authed, err := svc.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	rd := ctxutil.GetRequestData(authed)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("request data user: want=%s got=%+v", user.ID, rd)
	}
}

func TestAuthSignupDuplicateEmailConflicts(t *testing.T) {
	svc := newAuthService(t)
	email := uniqueEmail("dup")

	if _, _, err := svc.Signup(context.Background(), email, "longenough", ""); err != nil {
		t.Fatalf("first Signup: %v", err)
	}
	_, _, err := svc.Signup(context.Background(), email, "longenough", "")
	if !errors.Is(err, repos.ErrConflict) {
		t.Fatalf("duplicate signup error: want ErrConflict got %v", err)
	}
}

func TestAuthSignupRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)

	if _, _, err := svc.Signup(context.Background(), "not-an-email", "longenough", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad email error: want ErrInvalidArgument got %v", err)
	}
	if _, _, err := svc.Signup(context.Background(), uniqueEmail("short"), "short", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("short password error: want ErrInvalidArgument got %v", err)
	}
}

func TestAuthLogin(t *testing.T) {
	svc := newAuthService(t)
	email := uniqueEmail("login")
	if _, _, err := svc.Signup(context.Background(), email, "longenough", "Someone"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	user, pair, err := svc.Login(context.Background(), "  "+email+"  ", "longenough")
	if err != nil {
		t.Fatalf("Login with padded email: %v", err)
	}
	if user.Email != email {
		t.Fatalf("login email: want=%q got=%q", email, user.Email)
	}
	if pair.AccessToken == "" {
		t.Fatalf("login issued no access token")
	}

	if _, _, err := svc.Login(context.Background(), email, "wrongpassword"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong password error: want ErrUnauthorized got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), uniqueEmail("ghost"), "longenough"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown email error: want ErrUnauthorized got %v", err)
	}
}

func TestAuthRefreshRotates(t *testing.T) {
	svc := newAuthService(t)
	email := uniqueEmail("refresh")
	_, pair, err := svc.Signup(context.Background(), email, "longenough", "")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	// The old refresh token must be dead after rotation.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("reused refresh token error: want ErrUnauthorized got %v", err)
	}
	// The new one still works.
	if _, err := svc.Refresh(context.Background(), next.RefreshToken); err != nil {
		t.Fatalf("Refresh with rotated token: %v", err)
	}
}

func TestAuthRefreshUnknownToken(t *testing.T) {
	svc := newAuthService(t)
	if _, err := svc.Refresh(context.Background(), uuid.New().String()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown refresh token error: want ErrUnauthorized got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "  "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank refresh token error: want ErrInvalidArgument got %v", err)
	}
}

func TestAuthLogoutRevokesAccessToken(t *testing.T) {
	svc := newAuthService(t)
	email := uniqueEmail("logout")
	user, pair, err := svc.Signup(context.Background(), email, "longenough", "")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		TokenString: pair.AccessToken,
		UserID:      user.ID,
	})
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	// Logging out twice is fine; the row is simply gone.
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	// The refresh token issued alongside was deleted with the row.
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("refresh after logout: want ErrUnauthorized got %v", err)
	}
}

func TestAuthAuthenticateRejectsForgedToken(t *testing.T) {
	svc := newAuthService(t)
	other := NewAuthService(testutil.DB(t), testutil.Logger(t),
		repos.NewUserRepo(testutil.DB(t), testutil.Logger(t)),
		repos.NewUserTokenRepo(testutil.DB(t), testutil.Logger(t)),
		"different-secret", time.Hour, 24*time.Hour)

	_, pair, err := other.Signup(context.Background(), uniqueEmail("forged"), "longenough", "")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("cross-secret token error: want ErrUnauthorized got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("empty token error: want ErrUnauthorized got %v", err)
	}
}

func TestAuthExpiredAccessTokenRejected(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewAuthService(db, log,
		repos.NewUserRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		"test-secret", -time.Minute, 24*time.Hour)

	_, pair, err := svc.Signup(context.Background(), uniqueEmail("expired"), "longenough", "")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token error: want ErrUnauthorized got %v", err)
	}
}
