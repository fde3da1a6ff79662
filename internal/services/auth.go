package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ananth-NQI/clubhub-backend/internal/config"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

// AdminClaims are carried by admin session tokens
type AdminClaims struct {
	AdminID  string `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginResult is returned to the admin console after a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}

type AuthService struct {
	store    storage.Store
	sessions SessionStore
	cfg      config.AuthConfig
	now      func() time.Time
	// cost is the bcrypt work factor for new admins
	cost int
}

func NewAuthService(store storage.Store, sessions SessionStore, cfg config.AuthConfig) *AuthService {
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 8 * time.Hour
	}
	return &AuthService{store: store, sessions: sessions, cfg: cfg, now: time.Now, cost: bcrypt.DefaultCost}
}

// CreateAdmin stores a new admin with a bcrypt-hashed password
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, newValidationError("username", "username is required")
	}
	if len(password) < 8 {
		return nil, newValidationError("password", "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &models.Admin{Username: username, PasswordHash: string(hash)}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, newValidationError("username", "admin %q already exists", username)
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("👤 Admin created", "username", username)
	return admin, nil
}

// Login checks credentials and issues a signed session token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := s.store.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.SessionTTL)
	claims := AdminClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   admin.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	slog.Info("🔐 Admin logged in", "username", admin.Username)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Username: admin.Username}, nil
}

// ValidateToken parses a session token and rejects revoked ones
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*AdminClaims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, parserOpts...)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *AdminClaims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.ID, ttl)
}
