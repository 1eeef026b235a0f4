package service

import (
	"context"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/config"
	"bookpos/internal/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// OperatorSubject is the JWT subject of the single shop operator.
const OperatorSubject = "operator"

// AuthService logs the operator in with the shop PIN.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	cfg *config.Config
	now Clock
}

func NewAuthService(cfg *config.Config, clock Clock) AuthService {
	return &authService{cfg: cfg, now: clockOrDefault(clock)}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.cfg.OperatorPINHash == "" {
		log.Warn().Msg("login attempted but OPERATOR_PIN_HASH is not configured")
		return nil, apperror.New(apperror.KindUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorPINHash), []byte(req.PIN)); err != nil {
		return nil, apperror.New(apperror.KindUnauthorized, "invalid credentials")
	}

	ttl := time.Duration(s.cfg.JWTExpirationHours) * time.Hour
	token, err := s.generateToken(ttl)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(ttl.Seconds()),
	}, nil
}

func (s *authService) generateToken(ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   OperatorSubject,
		Issuer:    "bookpos",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
