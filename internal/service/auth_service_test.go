package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"eterna/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/crypto/bcrypt"
)

func seedAdmin(t *testing.T, repo *mockAdminRepository, email, password string) *domain.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admin := &domain.Admin{ID: uuid.New(), Email: email, PasswordHash: string(hash), Name: "Admin"}
	repo.admins[email] = admin
	return admin
}

func bcryptParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 20
	return params
}

func TestProperty_LoginThenVerifyReturnsSameAdmin(t *testing.T) {
	properties := gopter.NewProperties(bcryptParameters())

	properties.Property("a token from login resolves to the admin that logged in", prop.ForAll(
		func(email string, password string) bool {
			repo := newMockAdminRepository()
			service := NewAuthService(repo, "test-secret")
			ctx := context.Background()

			admin, created, err := service.SeedAdmin(ctx, email, password, "Admin")
			if err != nil || !created {
				t.Logf("FAIL: seed failed: %v", err)
				return false
			}

			token, loggedIn, err := service.Login(ctx, "  "+email+"  ", password)
			if err != nil {
				t.Logf("FAIL: login failed: %v", err)
				return false
			}
			if loggedIn.ID != admin.ID {
				return false
			}

			claims, err := service.ValidateToken(token)
			if err != nil {
				t.Logf("FAIL: token validation failed: %v", err)
				return false
			}
			if claims.AdminID != admin.ID || claims.Email != admin.Email {
				return false
			}

			current, err := service.CurrentAdmin(ctx, claims)
			if err != nil {
				return false
			}
			return current.ID == admin.ID && current.Email == admin.Email
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PasswordsAreStoredHashed(t *testing.T) {
	properties := gopter.NewProperties(bcryptParameters())

	properties.Property("seeded passwords are bcrypt hashes, never plaintext", prop.ForAll(
		func(email string, password string) bool {
			repo := newMockAdminRepository()
			service := NewAuthService(repo, "test-secret")

			admin, _, err := service.SeedAdmin(context.Background(), email, password, "Admin")
			if err != nil {
				return false
			}
			if admin.PasswordHash == password {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(repo.admins[email].PasswordHash), []byte(password)) == nil
		},
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	repo := newMockAdminRepository()
	seedAdmin(t, repo, "admin@eterna.com", "correct-horse")
	service := NewAuthService(repo, "test-secret")
	ctx := context.Background()

	_, _, errUnknown := service.Login(ctx, "nobody@eterna.com", "correct-horse")
	_, _, errWrong := service.Login(ctx, "admin@eterna.com", "wrong-password")

	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("failure messages differ: %q vs %q", errUnknown, errWrong)
	}
}

func TestLogin_NormalizesEmail(t *testing.T) {
	repo := newMockAdminRepository()
	seedAdmin(t, repo, "admin@eterna.com", "correct-horse")
	service := NewAuthService(repo, "test-secret")

	if _, _, err := service.Login(context.Background(), " Admin@Eterna.COM ", "correct-horse"); err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
}

func TestLogin_StorageFailureIsNotInvalidCredentials(t *testing.T) {
	repo := newMockAdminRepository()
	repo.err = errors.New("connection refused")
	service := NewAuthService(repo, "test-secret")

	_, _, err := service.Login(context.Background(), "admin@eterna.com", "whatever")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected a server error, got %v", err)
	}
}

func TestLogin_DemoAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("demo-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	demo := &DemoAdmin{Email: "Demo@Eterna.com", PasswordHash: string(hash), Name: "Demo"}

	t.Run("accepted without touching the store", func(t *testing.T) {
		repo := newMockAdminRepository()
		repo.err = errors.New("store offline")
		service := NewAuthService(repo, "test-secret", WithDemoAdmin(demo))

		token, admin, err := service.Login(context.Background(), "demo@eterna.com", "demo-pass")
		if err != nil {
			t.Fatalf("expected demo login to succeed, got %v", err)
		}

		claims, err := service.ValidateToken(token)
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		current, err := service.CurrentAdmin(context.Background(), claims)
		if err != nil {
			t.Fatalf("current admin: %v", err)
		}
		if current.ID != admin.ID || current.Name != "Demo" {
			t.Fatalf("unexpected admin %+v", current)
		}
	})

	t.Run("wrong demo password is rejected", func(t *testing.T) {
		service := NewAuthService(newMockAdminRepository(), "test-secret", WithDemoAdmin(demo))
		_, _, err := service.Login(context.Background(), "demo@eterna.com", "nope")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("storage failure never falls back to demo", func(t *testing.T) {
		repo := newMockAdminRepository()
		repo.err = errors.New("store offline")
		service := NewAuthService(repo, "test-secret", WithDemoAdmin(demo))

		_, _, err := service.Login(context.Background(), "admin@eterna.com", "demo-pass")
		if err == nil || errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected a server error, got %v", err)
		}
	})

	t.Run("demo credentials cannot be changed", func(t *testing.T) {
		repo := newMockAdminRepository()
		service := NewAuthService(repo, "test-secret", WithDemoAdmin(demo))

		_, err := service.UpdateCredentials(context.Background(), demo.ID(), "other@eterna.com", "new-password")
		if !errors.Is(err, ErrDemoAdminReadOnly) {
			t.Fatalf("expected ErrDemoAdminReadOnly, got %v", err)
		}
	})

	t.Run("disabled demo mode consults the store", func(t *testing.T) {
		service := NewAuthService(newMockAdminRepository(), "test-secret")
		_, _, err := service.Login(context.Background(), "demo@eterna.com", "demo-pass")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestValidateToken_Rejections(t *testing.T) {
	service := NewAuthService(newMockAdminRepository(), "test-secret")
	adminID := uuid.New()

	good, err := service.IssueToken(adminID, "admin@eterna.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherSecret, _ := NewAuthService(newMockAdminRepository(), "other-secret").IssueToken(adminID, "admin@eterna.com")

	past := time.Now().Add(-8 * 24 * time.Hour)
	expired, _ := NewAuthService(newMockAdminRepository(), "test-secret",
		withClock(func() time.Time { return past })).IssueToken(adminID, "admin@eterna.com")

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"wrong secret": otherSecret,
		"expired":      expired,
		"alg none":     unsigned,
		"malformed":    "not.a.token",
		"tampered":     good + "x",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := service.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	claims, err := service.ValidateToken(good)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultTokenExpiration {
		t.Fatalf("expected 7 day expiry, got %v", got)
	}
}

func TestCurrentAdmin_DeletedAdmin(t *testing.T) {
	service := NewAuthService(newMockAdminRepository(), "test-secret")
	claims := &Claims{AdminID: uuid.New()}

	if _, err := service.CurrentAdmin(context.Background(), claims); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}

func TestUpdateCredentials(t *testing.T) {
	repo := newMockAdminRepository()
	admin := seedAdmin(t, repo, "admin@eterna.com", "old-password")
	seedAdmin(t, repo, "other@eterna.com", "other-password")
	service := NewAuthService(repo, "test-secret")
	ctx := context.Background()

	if _, err := service.UpdateCredentials(ctx, admin.ID, "Other@Eterna.com", "new-password"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	updated, err := service.UpdateCredentials(ctx, admin.ID, " New@Eterna.com ", "new-password")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Email != "new@eterna.com" {
		t.Fatalf("expected normalized email, got %q", updated.Email)
	}

	if _, _, err := service.Login(ctx, "new@eterna.com", "new-password"); err != nil {
		t.Fatalf("login with new credentials: %v", err)
	}
	if _, _, err := service.Login(ctx, "admin@eterna.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old credentials should fail, got %v", err)
	}
}

func TestSeedAdmin_IsIdempotent(t *testing.T) {
	repo := newMockAdminRepository()
	service := NewAuthService(repo, "test-secret")
	ctx := context.Background()

	first, created, err := service.SeedAdmin(ctx, "admin@eterna.com", "password123", "Admin")
	if err != nil || !created {
		t.Fatalf("first seed: created=%v err=%v", created, err)
	}

	second, created, err := service.SeedAdmin(ctx, "ADMIN@eterna.com", "different", "Other")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("expected existing admin to be reported, got created=%v", created)
	}
}
