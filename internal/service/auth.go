package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hostelhub-backend/internal/model"
	"hostelhub-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidUsername    = errors.New("username must be 3-32 characters")
)

const accessTokenDuration = 24 * time.Hour

type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret []byte
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
	}
}

func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if len(req.Username) < 3 || len(req.Username) > 32 {
		return nil, ErrInvalidUsername
	}
	if len(req.Password) < 6 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Username, req.Email, string(hash), req.IsHost)
	if err != nil {
		return nil, err
	}

	token, err := s.generateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	_ = s.userRepo.UpdateLoginTime(ctx, user.ID)

	return &model.AuthResponse{AccessToken: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	_ = s.userRepo.UpdateLoginTime(ctx, user.ID)

	return &model.AuthResponse{AccessToken: token, User: user}, nil
}

// ValidateAccessToken returns the user id and username carried by a token.
// Both the REST middleware and the websocket handshake go through here; a
// connection with no valid identity is refused before any state is created.
func (s *AuthService) ValidateAccessToken(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID == 0 {
		return 0, "", ErrInvalidToken
	}

	return userID, username, nil
}

func (s *AuthService) generateAccessToken(userID int64, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(userID, 10),
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(accessTokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
