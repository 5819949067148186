package dto

// ── 考勤模块 DTO ──

// RecordAttendanceRequest 单条考勤登记请求
type RecordAttendanceRequest struct {
	EnrollmentID string `json:"enrollment_id" binding:"required,uuid"`
	Date         string `json:"date"          binding:"required"` // "2025-10-08"
	Status       string `json:"status"        binding:"required,oneof=present absent leave"`
	Remark       string `json:"remark"        binding:"omitempty,max=255"`
}

// BatchAttendanceItem 批量考勤中的单个学员项
type BatchAttendanceItem struct {
	EnrollmentID string `json:"enrollment_id" binding:"required,uuid"`
	Status       string `json:"status"        binding:"required,oneof=present absent leave"`
	Remark       string `json:"remark"        binding:"omitempty,max=255"`
}

// BatchRecordAttendanceRequest 按课程批量登记考勤请求
type BatchRecordAttendanceRequest struct {
	CourseID string                `json:"course_id" binding:"required,uuid"`
	Date     string                `json:"date"      binding:"required"`
	Items    []BatchAttendanceItem `json:"items"     binding:"required,min=1,dive"`
}

// ListAttendancesRequest 考勤列表查询参数
type ListAttendancesRequest struct {
	PaginationRequest
	CourseID  string `form:"course_id"  binding:"omitempty,uuid"`
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	Date      string `form:"date"       binding:"omitempty"`
}

// AttendanceResponse 考勤记录响应
type AttendanceResponse struct {
	ID           string `json:"id"`
	EnrollmentID string `json:"enrollment_id"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name,omitempty"`
	CourseID     string `json:"course_id"`
	CourseName   string `json:"course_name,omitempty"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	Remark       string `json:"remark,omitempty"`
}

// AttendanceSummaryResponse 学员考勤汇总响应
type AttendanceSummaryResponse struct {
	StudentID string `json:"student_id"`
	Total     int    `json:"total"`
	Present   int    `json:"present"`
	Absent    int    `json:"absent"`
	Leave     int    `json:"leave"`
}
