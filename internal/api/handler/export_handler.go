package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fgwjs00/lndx-sub001/internal/service"
	"github.com/fgwjs00/lndx-sub001/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRoster 导出课程花名册 Excel
// GET /api/v1/export/courses/:id/roster
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), courseID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.writeFile(c, buf.Bytes(), filename, xlsxContentType)
}

// ExportAttendance 导出课程考勤表 Excel
// GET /api/v1/export/courses/:id/attendance?from=2025-09-01&to=2026-01-15
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	courseID := c.Param("id")
	if courseID == "" {
		response.BadRequest(c, 10001, "课程ID不能为空")
		return
	}

	from, err := parseDateQuery(c.Query("from"))
	if err != nil {
		response.BadRequest(c, 10001, "from 日期格式错误，应为 YYYY-MM-DD")
		return
	}
	to, err := parseDateQuery(c.Query("to"))
	if err != nil {
		response.BadRequest(c, 10001, "to 日期格式错误，应为 YYYY-MM-DD")
		return
	}

	buf, filename, err := h.exportSvc.ExportAttendance(c.Request.Context(), courseID, from, to)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.writeFile(c, buf.Bytes(), filename, xlsxContentType)
}

// ExportTimetable 导出学员课表 iCalendar
// GET /api/v1/export/students/:id/timetable.ics
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	studentID := c.Param("id")
	if studentID == "" {
		response.BadRequest(c, 10001, "学员ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportTimetable(c.Request.Context(), studentID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	h.writeFile(c, buf.Bytes(), filename, "text/calendar; charset=utf-8")
}

// writeFile 以附件下载形式写出文件，文件名按 RFC 5987 编码
func (h *ExportHandler) writeFile(c *gin.Context, data []byte, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

// parseDateQuery 解析可选日期查询参数，空串返回 nil
func parseDateQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// handleExportError 导出模块错误码映射
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13001, err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, err.Error())
	case errors.Is(err, service.ErrExportNoEnrollees):
		response.NotFound(c, 16001, err.Error())
	case errors.Is(err, service.ErrExportNoAttendance):
		response.NotFound(c, 16002, err.Error())
	case errors.Is(err, service.ErrExportNoCourses):
		response.NotFound(c, 16003, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 16004, err.Error())
	default:
		response.InternalError(c)
	}
}
