package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/service"
	"github.com/fgwjs00/lndx-sub001/internal/verification"
	"github.com/fgwjs00/lndx-sub001/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// SendCode 发送短信验证码
// POST /api/v1/auth/code
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req dto.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.authSvc.SendCode(c.Request.Context(), &req)
	if err != nil {
		// 有效期内重复请求返回 429，data 中携带剩余等待秒数
		if errors.Is(err, verification.ErrCodeStillValid) {
			c.JSON(http.StatusTooManyRequests, response.Response{
				Code:    11105,
				Message: err.Error(),
				Data:    resp,
			})
			return
		}
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, resp)
}

// Register 注册（手机号 + 验证码）
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tokens, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, tokens)
}

// Login 账号密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tokens, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, tokens)
}

// LoginByCode 手机验证码登录
// POST /api/v1/auth/login-code
func (h *AuthHandler) LoginByCode(c *gin.Context) {
	var req dto.LoginByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tokens, err := h.authSvc.LoginByCode(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, tokens)
}

// Refresh 刷新 Token 对
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tokens, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, tokens)
}

// logoutRequest 登出请求体，refresh_token 可选
type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout 登出，将当前 access token（及提交的 refresh token）加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	// 请求体可为空
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.authSvc.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// ChangePassword 修改密码（需登录）
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// ResetPassword 重置密码（手机号 + 验证码，无需登录）
// POST /api/v1/auth/password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// BindPhone 绑定/换绑手机号（需登录）
// POST /api/v1/auth/phone/bind
func (h *AuthHandler) BindPhone(c *gin.Context) {
	var req dto.BindPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.BindPhone(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetMe 获取当前登录用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// handleAuthError 认证模块错误码映射
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		response.Conflict(c, 11002, err.Error())
	case errors.Is(err, service.ErrPhoneTaken):
		response.Conflict(c, 11003, err.Error())
	case errors.Is(err, service.ErrPhoneNotRegistered):
		response.BadRequest(c, 11004, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 11006, err.Error())
	case errors.Is(err, service.ErrOldPasswordWrong):
		response.BadRequest(c, 11007, err.Error())
	case errors.Is(err, verification.ErrCodeMismatch):
		response.BadRequest(c, 11101, err.Error())
	case errors.Is(err, verification.ErrCodeExpired):
		response.BadRequest(c, 11102, err.Error())
	case errors.Is(err, verification.ErrCodeNotFound):
		response.BadRequest(c, 11103, err.Error())
	case errors.Is(err, verification.ErrTooManyAttempts):
		response.BadRequest(c, 11104, err.Error())
	case errors.Is(err, verification.ErrDeliveryFailed):
		response.Error(c, http.StatusServiceUnavailable, 11106, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/auth_handler.go
