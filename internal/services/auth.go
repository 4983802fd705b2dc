package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// TokenPair is what every successful auth operation hands back.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type AuthService interface {
	Signup(ctx context.Context, email, password, displayName string) (*types.User, TokenPair, error)
	Login(ctx context.Context, email, password string) (*types.User, TokenPair, error)
	// Refresh rotates a refresh token: the old row is deleted in the same
	// transaction that creates the new pair.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context) error
	// Authenticate validates a bearer token and attaches RequestData to the
	// context. Purely JWT; no DB hit on the request path.
	Authenticate(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) Signup(ctx context.Context, email, password, displayName string) (*types.User, TokenPair, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if err := validateCredentials(email, password); err != nil {
		return nil, TokenPair{}, err
	}
	if displayName == "" {
		displayName = email[:strings.Index(email, "@")]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	var user *types.User
	var pair TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(inner, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return fmt.Errorf("email already registered: %w", repos.ErrConflict)
		}
		user = &types.User{
			Email:       email,
			Password:    string(hash),
			DisplayName: displayName,
		}
		if _, err := as.userRepo.Create(inner, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		pair, err = as.issueTokens(inner, user)
		return err
	})
	if err != nil {
		return nil, TokenPair{}, err
	}
	as.log.Info("User signed up", "user_id", user.ID)
	return user, pair, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, TokenPair{}, fmt.Errorf("email and password required: %w", ErrInvalidArgument)
	}

	users, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("fetch user by email: %w", err)
	}
	if len(users) == 0 || users[0] == nil {
		return nil, TokenPair{}, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, TokenPair{}, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}

	var pair TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userTokenRepo.FullDeleteExpired(inner, time.Now()); err != nil {
			as.log.Warn("Failed to prune expired tokens", "error", err)
		}
		var issueErr error
		pair, issueErr = as.issueTokens(inner, user)
		return issueErr
	})
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, fmt.Errorf("refresh token required: %w", ErrInvalidArgument)
	}

	var pair TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.GetByRefreshToken(inner, refreshToken)
		if err != nil {
			return fmt.Errorf("fetch refresh token: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("unknown refresh token: %w", ErrUnauthorized)
		}
		if existing.ExpiresAt.Before(time.Now()) {
			if err := as.userTokenRepo.FullDeleteByIDs(inner, []uuid.UUID{existing.ID}); err != nil {
				as.log.Warn("Failed to delete expired refresh token", "error", err)
			}
			return fmt.Errorf("refresh token expired: %w", ErrUnauthorized)
		}
		user, err := as.userRepo.GetByID(inner, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user no longer exists: %w", ErrUnauthorized)
		}
		pair, err = as.issueTokens(inner, user)
		if err != nil {
			return err
		}
		return as.userTokenRepo.FullDeleteByIDs(inner, []uuid.UUID{existing.ID})
	})
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return fmt.Errorf("no authenticated request: %w", ErrUnauthorized)
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		token, err := as.userTokenRepo.GetByAccessToken(inner, rd.TokenString)
		if err != nil {
			return fmt.Errorf("fetch access token: %w", err)
		}
		if token == nil {
			// Already gone; logout is idempotent.
			return nil
		}
		return as.userTokenRepo.FullDeleteByIDs(inner, []uuid.UUID{token.ID})
	})
}

func (as *authService) Authenticate(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, fmt.Errorf("missing bearer token: %w", ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok {
		return ctx, fmt.Errorf("invalid token claims: %w", ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid subject in token: %w", ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }

func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (TokenPair, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	pair := TokenPair{
		AccessToken:  accessToken,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    now.Add(as.refreshTTL),
	}
	row := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return TokenPair{}, fmt.Errorf("persist token: %w", err)
	}
	return pair, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return fmt.Errorf("invalid email: %w", ErrInvalidArgument)
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", ErrInvalidArgument)
	}
	return nil
}
