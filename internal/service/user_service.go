package service

import (
	"context"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
)

// UserService 处理个人资料相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

type UpdateProfileRequest struct {
	Name   string `json:"name" binding:"omitempty,max=100"`
	Locale string `json:"locale" binding:"omitempty,locale"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req UpdateProfileRequest) (*model.User, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}

	fields := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if req.Locale != "" {
		if !util.ValidLocale(req.Locale) {
			return nil, util.NewValidationError("unsupported locale %q", req.Locale)
		}
		fields["locale"] = req.Locale
	}
	if len(fields) == 0 {
		return nil, util.NewValidationError("nothing to update")
	}

	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		return nil, util.ClassifyError(err)
	}
	if err := s.UserRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, util.ClassifyError(err)
	}
	user, err := s.UserRepo.FindByID(ctx, userID)
	return user, util.ClassifyError(err)
}

// DeleteAccount 软删除账号
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if userID == 0 {
		return util.NewValidationError("userId is required")
	}
	if _, err := s.UserRepo.FindByID(ctx, userID); err != nil {
		return util.ClassifyError(err)
	}
	if err := s.UserRepo.SoftDelete(ctx, userID); err != nil {
		return util.ClassifyError(err)
	}
	logger.Log.Info("Account deleted", zap.Uint("userId", userID))
	return nil
}
