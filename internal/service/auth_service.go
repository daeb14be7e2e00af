package service

import (
	"context"
	"errors"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	resetTokenTTL     = time.Hour
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
	Tokens   TokenStore
	Mailer   Mailer
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config, tokens TokenStore, mailer Mailer) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
		Tokens:   tokens,
		Mailer:   mailer,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Locale   string `json:"locale" binding:"omitempty,locale"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", util.NewValidationError("password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, util.NewValidationError("name and email are required")
	}

	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.NewValidationError("email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ClassifyError(err)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     model.Learner,
		Locale:   req.Locale,
	}
	if user.Locale == "" {
		user.Locale = "de"
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, util.ClassifyError(err)
	}
	logger.Log.Info("User registered", zap.Uint("userId", user.ID))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewAuthenticationError("invalid credentials")
		}
		return nil, util.ClassifyError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.NewAuthenticationError("invalid credentials")
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, util.WrapError(util.KindServer, "token generation failed", err)
	}

	user.LastLogin = time.Now()
	if err := s.UserRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login": user.LastLogin}); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}
	return &LoginResult{Token: token, User: user}, nil
}

// GetSession 根据令牌中的用户 ID 取当前用户，已注销的账号视为未登录
func (s *AuthService) GetSession(ctx context.Context, userID uint) (*model.User, error) {
	if userID == 0 {
		return nil, util.NewAuthenticationError("not authenticated")
	}
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewAuthenticationError("account no longer exists")
		}
		return nil, util.ClassifyError(err)
	}
	return user, nil
}

// RequestPasswordReset 未知邮箱同样返回成功，避免泄露注册信息
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return util.NewValidationError("email is required")
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return util.ClassifyError(err)
	}

	token := uuid.NewString()
	if err := s.Tokens.Save(ctx, token, user.ID, resetTokenTTL); err != nil {
		return util.ClassifyError(err)
	}

	subject, body := passwordResetMail(s.Cfg.Mail.ResetURL, token)
	if err := s.Mailer.Send(ctx, user.Email, subject, body); err != nil {
		logger.Log.Error("Password reset mail failed", zap.Uint("userId", user.ID), zap.Error(err))
		return util.WrapError(util.KindNetwork, "could not send reset mail", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return util.NewValidationError("token is required")
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	userID, ok, err := s.Tokens.Consume(ctx, token)
	if err != nil {
		return util.ClassifyError(err)
	}
	if !ok {
		return util.NewAuthenticationError("reset token is invalid or expired")
	}

	if err := s.UserRepo.UpdateFields(ctx, userID, map[string]interface{}{"password": hashed}); err != nil {
		return util.ClassifyError(err)
	}
	logger.Log.Info("Password reset", zap.Uint("userId", userID))
	return nil
}
