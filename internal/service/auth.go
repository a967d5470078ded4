package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"facturas_api/internal/utils"
	"facturas_api/pkg/config"
)

var ErrCredencialesInvalidas = errors.New("Contraseña incorrecta")

const adminSubject = "admin"

// AuthService 以配置中的 bcrypt 雜湊驗證管理密碼並簽發 token
type AuthService struct {
	passwordHash []byte
	tokens       *utils.TokenManager
}

func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		passwordHash: []byte(cfg.PasswordHash),
		tokens:       utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
	}
}

// Login 驗證密碼，成功時回傳 JWT
func (s *AuthService) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrCredencialesInvalidas
	}
	return s.tokens.GenerateToken(adminSubject, adminSubject)
}

// Tokens 回傳供中間件驗證使用的 TokenManager
func (s *AuthService) Tokens() *utils.TokenManager {
	return s.tokens
}

// HashPassword 產生可寫入 auth.password_hash 的 bcrypt 雜湊
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
