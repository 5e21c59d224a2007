package service

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clumsypasta/abans-form/internal/models"
	"github.com/clumsypasta/abans-form/pkg/config"
	appErrors "github.com/clumsypasta/abans-form/pkg/errors"
)

const authIssuer = "abans-form"

// AuthService authenticates the single configured reviewer account and
// issues short-lived JWTs for the admin review surface.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.AdminConfig
}

// NewAuthService constructs an AuthService.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, cfg config.AdminConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 12 * time.Hour
	}
	return &AuthService{validator: validate, logger: logger, cfg: cfg}
}

// Login verifies credentials against the configured reviewer account.
func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	if !s.cfg.Enabled || s.cfg.Email == "" || s.cfg.PasswordHash == "" {
		return nil, appErrors.Clone(appErrors.ErrNotConfigured, "admin review is not enabled")
	}
	if !strings.EqualFold(req.Email, s.cfg.Email) {
		// Run the hash comparison anyway so a wrong email costs the same as
		// a wrong password.
		_ = bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password))
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.cfg.TokenExpiry)
	claims := models.AdminClaims{
		Email: s.cfg.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    authIssuer,
			Subject:   s.cfg.Email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}

	s.logger.Info("reviewer logged in", zap.String("email", s.cfg.Email))
	return &models.LoginResponse{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken parses and verifies a reviewer access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.AdminClaims, error) {
	claims := &models.AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithIssuer(authIssuer))
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}
