package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fgwjs00/lndx-sub001/config"
	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/model"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
	"github.com/fgwjs00/lndx-sub001/internal/verification"
	jwtpkg "github.com/fgwjs00/lndx-sub001/pkg/jwt"
)

// ── 测试辅助 ──

var codePattern = regexp.MustCompile(`\d{6}`)

// captureSender 记录最近一次发送内容的测试短信通道
type captureSender struct {
	lastPhone   string
	lastMessage string
	fail        bool
}

func (c *captureSender) Send(_ context.Context, phone, message string) error {
	if c.fail {
		return errors.New("模拟短信网关故障")
	}
	c.lastPhone = phone
	c.lastMessage = message
	return nil
}

func (c *captureSender) lastCode() string {
	return codePattern.FindString(c.lastMessage)
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
		Verification: config.VerificationConfig{
			CodeTTL:     5 * time.Minute,
			MaxAttempts: 3,
		},
	}
}

func setupTestAuthService() (AuthService, *mockUserRepo, *captureSender) {
	cfg := testConfig()
	sender := &captureSender{}
	codeStore := verification.NewStore(&cfg.Verification, sender, zap.NewNop())

	userRepo := newMockUserRepo()
	studentRepo := newMockStudentRepo()
	courseRepo := newMockCourseRepo()
	repo := &repository.Repository{
		User:       userRepo,
		Student:    studentRepo,
		Course:     courseRepo,
		Enrollment: newMockEnrollmentRepo(studentRepo, courseRepo),
		Attendance: newMockAttendanceRepo(),
	}

	jwtMgr := jwtpkg.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, nil, codeStore, zap.NewNop())
	return svc, userRepo, sender
}

func createTestUser(userRepo *mockUserRepo, username, phone, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       "user-" + username,
		Name:         "测试教师",
		Username:     username,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         "teacher",
	}
	user.CreatedAt = time.Now()
	userRepo.users[user.UserID] = user
	return user
}

// ── 验证码发送测试 ──

func TestSendCode_Register_Success(t *testing.T) {
	svc, _, sender := setupTestAuthService()

	result, err := svc.SendCode(context.Background(), &dto.SendCodeRequest{
		Phone:   "13800001111",
		Purpose: verification.PurposeRegister,
	})

	if err != nil {
		t.Fatalf("SendCode 应成功: %v", err)
	}
	if !result.Sent {
		t.Error("期望 Sent=true")
	}
	if sender.lastPhone != "13800001111" {
		t.Errorf("期望发送到 13800001111，实际 %s", sender.lastPhone)
	}
	if sender.lastCode() == "" {
		t.Error("短信内容应包含6位验证码")
	}
}

func TestSendCode_Register_PhoneTaken(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	_, err := svc.SendCode(context.Background(), &dto.SendCodeRequest{
		Phone:   "13800001111",
		Purpose: verification.PurposeRegister,
	})

	if !errors.Is(err, ErrPhoneTaken) {
		t.Errorf("期望 ErrPhoneTaken，实际: %v", err)
	}
}

func TestSendCode_Login_PhoneNotRegistered(t *testing.T) {
	svc, _, _ := setupTestAuthService()

	_, err := svc.SendCode(context.Background(), &dto.SendCodeRequest{
		Phone:   "13800001111",
		Purpose: verification.PurposeLogin,
	})

	if !errors.Is(err, ErrPhoneNotRegistered) {
		t.Errorf("期望 ErrPhoneNotRegistered，实际: %v", err)
	}
}

func TestSendCode_RepeatWithinTTL(t *testing.T) {
	svc, _, _ := setupTestAuthService()
	ctx := context.Background()

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeRegister,
	}); err != nil {
		t.Fatalf("首次发送应成功: %v", err)
	}

	result, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeRegister,
	})
	if !errors.Is(err, verification.ErrCodeStillValid) {
		t.Fatalf("期望 ErrCodeStillValid，实际: %v", err)
	}
	if result == nil || result.RetryAfter <= 0 {
		t.Error("重复请求应返回剩余等待秒数")
	}
}

// ── 注册测试 ──

func TestRegister_Success(t *testing.T) {
	svc, _, sender := setupTestAuthService()
	ctx := context.Background()

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeRegister,
	}); err != nil {
		t.Fatalf("发码应成功: %v", err)
	}

	result, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "王老师",
		Username: "wanglaoshi",
		Phone:    "13800001111",
		Code:     sender.lastCode(),
		Password: "password123",
	})

	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("注册成功应返回 Token 对")
	}
	if result.User.Username != "wanglaoshi" {
		t.Errorf("期望 Username=wanglaoshi，实际=%s", result.User.Username)
	}
	if result.User.Phone != "138****1111" {
		t.Errorf("手机号应脱敏为 138****1111，实际=%s", result.User.Phone)
	}
}

func TestRegister_WrongCode(t *testing.T) {
	svc, _, _ := setupTestAuthService()
	ctx := context.Background()

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeRegister,
	}); err != nil {
		t.Fatalf("发码应成功: %v", err)
	}

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "王老师",
		Username: "wanglaoshi",
		Phone:    "13800001111",
		Code:     "000000",
		Password: "password123",
	})

	if !errors.Is(err, verification.ErrCodeMismatch) {
		t.Errorf("期望 ErrCodeMismatch，实际: %v", err)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	svc, userRepo, sender := setupTestAuthService()
	ctx := context.Background()
	createTestUser(userRepo, "wanglaoshi", "13900002222", "password123")

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeRegister,
	}); err != nil {
		t.Fatalf("发码应成功: %v", err)
	}

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Name:     "另一位王老师",
		Username: "wanglaoshi",
		Phone:    "13800001111",
		Code:     sender.lastCode(),
		Password: "password123",
	})

	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("期望 ErrUsernameTaken，实际: %v", err)
	}
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Username: "wang",
		Password: "password123",
	})

	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Username: "wang",
		Password: "wrong_password",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Username: "nonexistent",
		Password: "password123",
	})

	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLoginByCode_Success(t *testing.T) {
	svc, userRepo, sender := setupTestAuthService()
	ctx := context.Background()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeLogin,
	}); err != nil {
		t.Fatalf("发码应成功: %v", err)
	}

	result, err := svc.LoginByCode(ctx, &dto.LoginByCodeRequest{
		Phone: "13800001111",
		Code:  sender.lastCode(),
	})

	if err != nil {
		t.Fatalf("LoginByCode 应成功: %v", err)
	}
	if result.User.Username != "wang" {
		t.Errorf("期望 Username=wang，实际=%s", result.User.Username)
	}
}

func TestLoginByCode_CodeSingleUse(t *testing.T) {
	svc, userRepo, sender := setupTestAuthService()
	ctx := context.Background()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeLogin,
	}); err != nil {
		t.Fatalf("发码应成功: %v", err)
	}
	code := sender.lastCode()

	if _, err := svc.LoginByCode(ctx, &dto.LoginByCodeRequest{Phone: "13800001111", Code: code}); err != nil {
		t.Fatalf("首次登录应成功: %v", err)
	}

	_, err := svc.LoginByCode(ctx, &dto.LoginByCodeRequest{Phone: "13800001111", Code: code})
	if !errors.Is(err, verification.ErrCodeNotFound) {
		t.Errorf("验证码应单次有效，期望 ErrCodeNotFound，实际: %v", err)
	}
}

// ── Token 刷新测试 ──

func TestRefresh_Success(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Username: "wang", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	result, err := svc.Refresh(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("刷新应返回新的 Token 对")
	}
}

func TestRefresh_RejectAccessToken(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	login, err := svc.Login(context.Background(), &dto.LoginRequest{
		Username: "wang", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// access token 不可用于刷新
	_, err = svc.Refresh(context.Background(), &dto.RefreshTokenRequest{
		RefreshToken: login.AccessToken,
	})
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("期望 ErrInvalidToken，实际: %v", err)
	}
}

// ── 密码与绑定测试 ──

func TestChangePassword_Success(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	user := createTestUser(userRepo, "wang", "13800001111", "password123")

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "password123",
		NewPassword: "newpassword456",
	})
	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}

	// 新密码可登录
	if _, err := svc.Login(context.Background(), &dto.LoginRequest{
		Username: "wang", Password: "newpassword456",
	}); err != nil {
		t.Errorf("修改后新密码登录应成功: %v", err)
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	user := createTestUser(userRepo, "wang", "13800001111", "password123")

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newpassword456",
	})
	if !errors.Is(err, ErrOldPasswordWrong) {
		t.Errorf("期望 ErrOldPasswordWrong，实际: %v", err)
	}
}

func TestResetPassword_Success(t *testing.T) {
	svc, userRepo, sender := setupTestAuthService()
	ctx := context.Background()
	createTestUser(userRepo, "wang", "13800001111", "password123")

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeResetPassword,
	}); err != nil {
		t.Fatalf("发码应成功: %v", err)
	}

	if err := svc.ResetPassword(ctx, &dto.ResetPasswordRequest{
		Phone:       "13800001111",
		Code:        sender.lastCode(),
		NewPassword: "resetpassword789",
	}); err != nil {
		t.Fatalf("ResetPassword 应成功: %v", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{
		Username: "wang", Password: "resetpassword789",
	}); err != nil {
		t.Errorf("重置后新密码登录应成功: %v", err)
	}
}

func TestBindPhone_Success(t *testing.T) {
	svc, userRepo, sender := setupTestAuthService()
	ctx := context.Background()
	user := createTestUser(userRepo, "wang", "", "password123")

	if _, err := svc.SendCode(ctx, &dto.SendCodeRequest{
		Phone: "13800001111", Purpose: verification.PurposeBindPhone,
	}); err != nil {
		t.Fatalf("发码应成功: %v", err)
	}

	if err := svc.BindPhone(ctx, user.UserID, &dto.BindPhoneRequest{
		Phone: "13800001111",
		Code:  sender.lastCode(),
	}); err != nil {
		t.Fatalf("BindPhone 应成功: %v", err)
	}

	if user.Phone != "13800001111" {
		t.Errorf("期望绑定手机号 13800001111，实际 %s", user.Phone)
	}
}

func TestGetMe_MaskedPhone(t *testing.T) {
	svc, userRepo, _ := setupTestAuthService()
	user := createTestUser(userRepo, "wang", "13800001111", "password123")

	result, err := svc.GetMe(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("GetMe 应成功: %v", err)
	}
	if result.Phone != "138****1111" {
		t.Errorf("手机号应脱敏，实际 %s", result.Phone)
	}
}
