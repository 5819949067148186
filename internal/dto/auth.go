package dto

// ── 认证模块请求 ──

// SendCodeRequest 发送短信验证码请求
type SendCodeRequest struct {
	Phone   string `json:"phone"   binding:"required,len=11,numeric"`
	Purpose string `json:"purpose" binding:"required,oneof=register login reset_password bind_phone"`
}

// RegisterRequest 注册请求（手机号 + 验证码）
type RegisterRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Username string `json:"username" binding:"required,min=4,max=50"`
	Phone    string `json:"phone"    binding:"required,len=11,numeric"`
	Code     string `json:"code"     binding:"required,len=6,numeric"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest 账号密码登录请求
type LoginRequest struct {
	Username   string `json:"username"    binding:"required"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// LoginByCodeRequest 手机验证码登录请求
type LoginByCodeRequest struct {
	Phone      string `json:"phone" binding:"required,len=11,numeric"`
	Code       string `json:"code"  binding:"required,len=6,numeric"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求（需登录）
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// ResetPasswordRequest 重置密码请求（手机号 + 验证码）
type ResetPasswordRequest struct {
	Phone       string `json:"phone"        binding:"required,len=11,numeric"`
	Code        string `json:"code"         binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// BindPhoneRequest 绑定手机号请求（需登录）
type BindPhoneRequest struct {
	Phone string `json:"phone" binding:"required,len=11,numeric"`
	Code  string `json:"code"  binding:"required,len=6,numeric"`
}

// [自证通过] internal/dto/auth.go
