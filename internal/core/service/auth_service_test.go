package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gradeidea/roast-service/internal/core/domain"
)

type stubAuthRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	nextID  int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{byEmail: make(map[string]*domain.User)}
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	created := *user
	created.ID = fmt.Sprintf("user_%d", r.nextID)
	r.byEmail[user.Email] = &created
	clone := created
	return &clone, nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func newAuthFixture(signupCredit int) (*AuthService, *stubAuthRepo, *stubLedger) {
	repo := newStubAuthRepo()
	ledger := newStubLedger()
	svc := NewAuthService(repo, ledger, "secret", time.Hour, signupCredit, discardLogger)
	return svc, repo, ledger
}

func TestAuthService_Register_GrantsSignupCredit(t *testing.T) {
	svc, _, ledger := newAuthFixture(1)

	user, err := svc.Register(context.Background(), "Alice@Example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Fatal("user id must be assigned")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email must be normalized, got %q", user.Email)
	}

	balance, _ := ledger.Balance(context.Background(), user.ID)
	if balance != 1 {
		t.Errorf("expected signup credit of 1, got %d", balance)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newAuthFixture(1)

	if _, err := svc.Register(context.Background(), "a@example.com", "hunter2secret"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), "a@example.com", "otherpassword")
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Register_EmptyFields(t *testing.T) {
	svc, _, _ := newAuthFixture(1)

	for _, tc := range []struct{ email, password string }{
		{"", "hunter2secret"},
		{"a@example.com", ""},
		{"", ""},
	} {
		_, err := svc.Register(context.Background(), tc.email, tc.password)
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("(%q,%q): expected ErrInvalidCredentials, got %v", tc.email, tc.password, err)
		}
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _ := newAuthFixture(0)

	registered, err := svc.Register(context.Background(), "a@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "a@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user mismatch: %s vs %s", user.ID, registered.ID)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if sub, _ := claims["sub"].(string); sub != registered.ID {
		t.Errorf("sub claim %q, want %q", sub, registered.ID)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(0)

	if _, err := svc.Register(context.Background(), "a@example.com", "hunter2secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login(context.Background(), "a@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture(0)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
