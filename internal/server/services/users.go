package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/common"
	"github.com/dmitrijs2005/factfeed/internal/server/auth"
	"github.com/dmitrijs2005/factfeed/internal/server/config"
	"github.com/dmitrijs2005/factfeed/internal/server/models"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/factfeed/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// Session is a freshly minted token pair for User.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	ExpiresAt    time.Time
	User         *models.User
}

// UserService provides authentication-related operations:
// - Signup: create users, signing them in when auto-confirm is on
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Logout: revoke every refresh token of a user
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	tokens                       refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	autoConfirm                  bool
	now                          func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens refreshtokens.Repository, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		tokens:                       tokens,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		autoConfirm:                  cfg.AutoConfirm,
		now:                          time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: unable to validate email address", common.ErrorValidation)
	}
	return email, nil
}

// Signup creates an account. With auto-confirm on, the new user is signed
// in and a Session is returned; otherwise the session is nil and the
// account waits for email confirmation. A taken email yields
// common.ErrorAlreadyExists.
func (s *UserService) Signup(ctx context.Context, email, password string) (*models.User, *Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if s.autoConfirm {
		now := s.now().UTC()
		user.ConfirmedAt = &now
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	if !user.Confirmed() {
		return user, nil, nil
	}

	session, err := s.generateSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login verifies credentials. Unknown emails and wrong passwords both yield
// common.ErrorUnauthorized; unconfirmed accounts yield
// common.ErrEmailNotConfirmed.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if !user.Confirmed() {
		return nil, common.ErrEmailNotConfirmed
	}

	return s.generateSession(ctx, user)
}

// RefreshToken exchanges a refresh token for a new Session. The old token
// is consumed, so each refresh token works once. Unknown or expired tokens
// yield common.ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	token, err := s.tokens.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if !token.ExpiresAt.IsZero() && token.ExpiresAt.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return s.generateSession(ctx, user)
}

// Logout revokes every refresh token issued to userID. Access tokens stay
// valid until they expire.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return nil
}

// GetUser returns the account behind an access token's subject.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user, nil
}

func (s *UserService) generateSession(ctx context.Context, user *models.User) (*Session, error) {
	accessToken, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	refreshToken, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	rec := &models.RefreshToken{Token: refreshToken, UserID: user.ID, Email: user.Email}
	if err := s.tokens.Create(ctx, rec, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenValidityDuration / time.Second),
		ExpiresAt:    s.now().Add(s.accessTokenValidityDuration),
		User:         user,
	}, nil
}
