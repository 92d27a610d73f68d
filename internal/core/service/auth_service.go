package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gradeidea/roast-service/internal/core/domain"
	"github.com/gradeidea/roast-service/internal/core/ports"
)

// AuthService implements registration and login. Newly registered users get a
// one-time signup token credit so their first roast is free.
type AuthService struct {
	repo         ports.AuthRepository
	ledger       ports.TokenLedger
	jwtSecret    string
	tokenTTL     time.Duration
	signupCredit int
	log          zerolog.Logger
}

func NewAuthService(
	repo ports.AuthRepository,
	ledger ports.TokenLedger,
	jwtSecret string,
	tokenTTL time.Duration,
	signupCredit int,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:         repo,
		ledger:       ledger,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		signupCredit: signupCredit,
		log:          log,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if s.signupCredit > 0 {
		if err := s.ledger.Credit(ctx, created.ID, s.signupCredit); err != nil {
			// The account stays usable; the credit can be re-granted by support.
			s.log.Warn().Err(err).Str("owner", created.ID).Msg("failed to grant signup credit")
		}
	}

	s.log.Info().Str("owner", created.ID).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
