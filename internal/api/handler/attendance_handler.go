package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/service"
	"github.com/fgwjs00/lndx-sub001/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// RecordAttendance 单条考勤登记（同日重复登记覆盖）
// POST /api/v1/attendances
func (h *AttendanceHandler) RecordAttendance(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	attendance, err := h.attendanceSvc.Record(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, attendance)
}

// BatchRecordAttendance 按课程批量登记考勤
// POST /api/v1/attendances/batch
func (h *AttendanceHandler) BatchRecordAttendance(c *gin.Context) {
	var req dto.BatchRecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	attendances, err := h.attendanceSvc.BatchRecord(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, gin.H{"list": attendances, "count": len(attendances)})
}

// ListAttendances 考勤记录列表
// GET /api/v1/attendances
func (h *AttendanceHandler) ListAttendances(c *gin.Context) {
	var req dto.ListAttendancesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.attendanceSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetAttendanceSummary 学员考勤汇总，course_id 缺省时统计全部课程
// GET /api/v1/students/:id/attendance-summary?course_id=yyy
func (h *AttendanceHandler) GetAttendanceSummary(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}
	courseID := c.Query("course_id")

	summary, err := h.attendanceSvc.Summarize(c.Request.Context(), studentID, courseID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, summary)
}

// handleAttendanceError 考勤模块错误码映射
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttendanceNotApproved):
		response.BadRequest(c, 15001, err.Error())
	case errors.Is(err, service.ErrAttendanceWrongCourse):
		response.BadRequest(c, 15002, err.Error())
	case errors.Is(err, service.ErrInvalidDateFormat):
		response.BadRequest(c, 15003, err.Error())
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, err.Error())
	default:
		response.InternalError(c)
	}
}
