package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/gosuda/growplate/internal/domain"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// MinPasswordLength is the shortest password CreateUser accepts.
const MinPasswordLength = 8

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Tokens is the pair returned by Login.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Service provides staff authentication for a tenant.
type Service struct {
	userRepo   domain.UserRepository
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates a new auth service.
func NewService(userRepo domain.UserRepository, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// CreateUser adds a staff account to the tenant. Email is stored lowercased
// and the password is hashed with argon2id.
func (s *Service) CreateUser(ctx context.Context, tenantID uuid.UUID, email, password, name, role string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validateNewUser(email, password, name, role); err != nil {
		return nil, fmt.Errorf("auth.CreateUser: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth.CreateUser: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth.CreateUser: %w", err)
	}

	return user, nil
}

func validateNewUser(email, password, name, role string) error {
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.Invalidf("email is invalid")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return domain.Invalidf("password must be at least %d characters", MinPasswordLength)
	}
	if name == "" || utf8.RuneCountInString(name) > domain.MaxNameLength {
		return domain.Invalidf("name must be 1 to %d characters", domain.MaxNameLength)
	}
	if !domain.IsValidRole(role) {
		return domain.Invalidf("role must be one of owner, manager, staff")
	}
	return nil
}

// Login validates email/password within the tenant and returns access and
// refresh tokens.
func (s *Service) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*Tokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, tenantID, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		// Same argon2 cost as a real check, so response time does not
		// reveal which emails exist.
		verifyPassword(password, dummyHash())
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	access, err := IssueAccessToken(s.jwtSecret, user.TenantID, user.ID, user.Role, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	refresh, err := IssueRefreshToken(s.jwtSecret, user.TenantID, user.ID, user.Role, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	return &Tokens{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.accessTTL}, nil
}

// RefreshToken validates a refresh token issued for tenantID and returns a
// new access token carrying the user's current role.
func (s *Service) RefreshToken(ctx context.Context, tenantID uuid.UUID, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	if claims.TokenType != TokenTypeRefresh {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}

	tokenTenant, userID, err := claims.IDs()
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}
	if tokenTenant != tenantID {
		return "", fmt.Errorf("auth.RefreshToken: %w", domain.ErrTenantMismatch)
	}

	// The user may have been removed since the refresh token was issued.
	user, err := s.userRepo.GetByID(ctx, tenantID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("auth.RefreshToken: %w", ErrInvalidToken)
	}
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	newAccess, err := IssueAccessToken(s.jwtSecret, user.TenantID, user.ID, user.Role, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}

	return newAccess, nil
}

// ValidateAccessToken parses an access token and rejects refresh tokens.
func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtSecret, token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("auth.ValidateAccessToken: %w", ErrInvalidToken)
	}
	return claims, nil
}

// hashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// dummyHash is verified against on the unknown-email path of Login.
var dummyHash = sync.OnceValue(func() string {
	h, err := hashPassword("growplate-unknown-user")
	if err != nil {
		panic(fmt.Sprintf("auth: dummy hash: %v", err))
	}
	return h
})

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	salt, expectedHash, ok := decodeHash(encoded)
	if !ok {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(computed, expectedHash) == 1
}

func decodeHash(encoded string) (salt, hash []byte, ok bool) {
	saltHex, hashHex, found := strings.Cut(encoded, "$")
	if !found || saltHex == "" || hashHex == "" {
		return nil, nil, false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, nil, false
	}

	hash, err = hex.DecodeString(hashHex)
	if err != nil {
		return nil, nil, false
	}
	return salt, hash, true
}
