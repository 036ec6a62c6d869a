package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/idcard-api/internal/models"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

// AuthConfig defines configuration for session tokens.
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
	Issuer      string
}

type aggregator interface {
	Aggregate(ctx context.Context, creds models.Credentials) (*Aggregate, error)
}

// AuthService turns a records API login into a card session.
type AuthService struct {
	sessions  aggregator
	store     *StateStore
	themes    *ThemeService
	avatars   *AvatarService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(sessions aggregator, store *StateStore, themes *ThemeService, avatars *AvatarService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.TokenExpiry <= 0 {
		config.TokenExpiry = 2 * time.Hour
	}
	return &AuthService{
		sessions:  sessions,
		store:     store,
		themes:    themes,
		avatars:   avatars,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Login aggregates the student record, opens a session with the default scheme and a fresh avatar,
// and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	if err := s.validator.Struct(creds); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}

	agg, err := s.sessions.Aggregate(ctx, creds)
	if err != nil {
		return nil, err
	}

	session := agg.Session
	session.ID = uuid.NewString()
	picked := s.avatars.PickAvatar()
	picked.Generation = 1

	state := s.store.Put(models.AppState{
		Session: session,
		Record:  agg.Record,
		Scheme:  s.themes.DefaultScheme(),
		Avatar:  picked,
	})
	s.avatars.Schedule(session.ID, state.Avatar)

	token, expiresAt, err := s.issueToken(session.ID)
	if err != nil {
		s.store.Delete(session.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	s.logger.Info("card session opened", zap.String("session_id", session.ID), zap.String("avatar_seed", picked.Seed))
	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Record:    state.Record,
		Scheme:    state.Scheme,
	}, nil
}

// Logout drops the session and everything held for it.
func (s *AuthService) Logout(sessionID string) error {
	if !s.store.Delete(sessionID) {
		return appErrors.ErrSessionNotFound
	}
	s.logger.Info("card session closed", zap.String("session_id", sessionID))
	return nil
}

// ValidateToken parses a session token and checks that its session is still held.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if _, err := s.store.Get(claims.SessionID); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) issueToken(sessionID string) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.JWTClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
