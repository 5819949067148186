package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/service"
	pkgerrors "github.com/fgwjs00/lndx-sub001/pkg/errors"
	"github.com/fgwjs00/lndx-sub001/pkg/response"
)

// EnrollmentHandler 报名模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// CreateEnrollment 提交报名（通过资格判定后落为 PENDING）
// POST /api/v1/enrollments
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// CheckEnrollment 报名资格预检，不产生写入
// GET /api/v1/enrollments/check
func (h *EnrollmentHandler) CheckEnrollment(c *gin.Context) {
	var req dto.CheckEnrollmentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	eligibility, err := h.enrollmentSvc.Check(c.Request.Context(), &req)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, eligibility)
}

// GetEnrollment 获取报名详情
// GET /api/v1/enrollments/:id
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "报名ID不能为空")
		return
	}

	enrollment, err := h.enrollmentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, enrollment)
}

// ApproveEnrollment 审批通过（占座 +1）
// PUT /api/v1/enrollments/:id/approve
func (h *EnrollmentHandler) ApproveEnrollment(c *gin.Context) {
	h.review(c, h.enrollmentSvc.Approve)
}

// RejectEnrollment 审批驳回
// PUT /api/v1/enrollments/:id/reject
func (h *EnrollmentHandler) RejectEnrollment(c *gin.Context) {
	h.review(c, h.enrollmentSvc.Reject)
}

// CancelEnrollment 取消报名（已通过的释放名额）
// PUT /api/v1/enrollments/:id/cancel
func (h *EnrollmentHandler) CancelEnrollment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "报名ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentSvc.Cancel(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, enrollment)
}

// ListEnrollments 报名列表
// GET /api/v1/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	var req dto.ListEnrollmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.enrollmentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// review 审批通过/驳回的公共流程，备注请求体可为空
func (h *EnrollmentHandler) review(
	c *gin.Context,
	op func(ctx context.Context, id string, req *dto.ReviewEnrollmentRequest, operatorID string) (*dto.EnrollmentResponse, error),
) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "报名ID不能为空")
		return
	}

	var req dto.ReviewEnrollmentRequest
	_ = c.ShouldBindJSON(&req)

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	enrollment, err := op(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, enrollment)
}

// handleEnrollmentError 报名模块错误码映射
func (h *EnrollmentHandler) handleEnrollmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrEnrollmentIneligible):
		// IneligibleError 携带具体拒绝原因
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.Conflict(c, 14003, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14004, err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, err.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13001, err.Error())
	default:
		response.InternalError(c)
	}
}
