package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eterna/internal/domain"
	"eterna/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// DefaultTokenExpiration is how long a session token stays valid
	DefaultTokenExpiration = 7 * 24 * time.Hour
)

// AuthService issues and verifies admin session tokens
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, admin *domain.Admin, err error)
	IssueToken(adminID uuid.UUID, email string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	CurrentAdmin(ctx context.Context, claims *Claims) (*domain.Admin, error)
	UpdateCredentials(ctx context.Context, adminID uuid.UUID, email, password string) (*domain.Admin, error)
	SeedAdmin(ctx context.Context, email, password, name string) (admin *domain.Admin, created bool, err error)
}

// Claims represents the JWT claims
type Claims struct {
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email"`
	jwt.RegisteredClaims
}

// DemoAdmin is an offline credential that exists outside the admin store.
// It is only honoured when explicitly configured.
type DemoAdmin struct {
	Email        string
	PasswordHash string
	Name         string
}

// ID is stable for a given email so issued tokens keep verifying across restarts.
func (d *DemoAdmin) ID() uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("eterna-demo-admin:"+d.Email))
}

func (d *DemoAdmin) admin() *domain.Admin {
	return &domain.Admin{ID: d.ID(), Email: d.Email, PasswordHash: d.PasswordHash, Name: d.Name}
}

type authService struct {
	adminRepo repository.AdminRepository
	jwtSecret []byte
	expiry    time.Duration
	demo      *DemoAdmin
	now       func() time.Time
}

// AuthOption customizes an AuthService
type AuthOption func(*authService)

// WithTokenExpiry overrides the session lifetime
func WithTokenExpiry(d time.Duration) AuthOption {
	return func(s *authService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithDemoAdmin enables the offline demo credential
func WithDemoAdmin(demo *DemoAdmin) AuthOption {
	return func(s *authService) {
		if demo != nil {
			demo.Email = NormalizeEmail(demo.Email)
		}
		s.demo = demo
	}
}

func withClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(adminRepo repository.AdminRepository, jwtSecret string, opts ...AuthOption) AuthService {
	s := &authService{
		adminRepo: adminRepo,
		jwtSecret: []byte(jwtSecret),
		expiry:    DefaultTokenExpiration,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// dummyHash keeps unknown-email logins as slow as wrong-password logins.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("eterna-timing-equalizer"), BcryptCost)

// Login authenticates an admin and returns a signed session token. Unknown
// emails and wrong passwords produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	email = NormalizeEmail(email)

	var admin *domain.Admin
	if s.demo != nil && email == s.demo.Email {
		admin = s.demo.admin()
	} else {
		found, err := s.adminRepo.FindByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, repository.ErrAdminNotFound) {
				return "", nil, fmt.Errorf("failed to find admin: %w", err)
			}
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, ErrInvalidCredentials
		}
		admin = found
	}

	if err := verifyPassword(admin.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(admin.ID, admin.Email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, admin, nil
}

// IssueToken signs an HS256 token carrying the admin id and email
func (s *authService) IssueToken(adminID uuid.UUID, email string) (string, error) {
	now := s.now()
	claims := &Claims{
		AdminID: adminID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims. Every failure
// is reported as ErrInvalidToken.
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AdminID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// CurrentAdmin resolves the admin a validated token belongs to
func (s *authService) CurrentAdmin(ctx context.Context, claims *Claims) (*domain.Admin, error) {
	if s.demo != nil && claims.AdminID == s.demo.ID() {
		return s.demo.admin(), nil
	}

	admin, err := s.adminRepo.FindByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// UpdateCredentials replaces the email and password of an existing admin
func (s *authService) UpdateCredentials(ctx context.Context, adminID uuid.UUID, email, password string) (*domain.Admin, error) {
	if s.demo != nil && adminID == s.demo.ID() {
		return nil, ErrDemoAdminReadOnly
	}

	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin.Email = NormalizeEmail(email)
	admin.PasswordHash = hashed
	admin.UpdatedAt = s.now()

	if err := s.adminRepo.UpdateCredentials(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdminAlreadyExists) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to update admin: %w", err)
	}

	return admin, nil
}

// SeedAdmin creates the admin account unless one with the email exists
func (s *authService) SeedAdmin(ctx context.Context, email, password, name string) (*domain.Admin, bool, error) {
	email = NormalizeEmail(email)

	existing, err := s.adminRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrAdminNotFound) {
		return nil, false, fmt.Errorf("failed to check existing admin: %w", err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	admin := &domain.Admin{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrAdminAlreadyExists) {
			return nil, false, ErrEmailTaken
		}
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}

	return admin, true, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	return hashPassword(password)
}

func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
