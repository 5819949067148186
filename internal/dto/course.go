package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
// semester 的 "<四位年份>年度" 格式在 Service 层校验
type CreateCourseRequest struct {
	Name           string `json:"name"            binding:"required,min=2,max=100"`
	TeacherName    string `json:"teacher_name"    binding:"omitempty,max=100"`
	Semester       string `json:"semester"        binding:"required"`
	RequiresGrades bool   `json:"requires_grades"`
	GradeLevel     string `json:"grade_level"     binding:"omitempty,oneof=一年级 二年级 三年级"`
	Capacity       int    `json:"capacity"        binding:"omitempty,min=0,max=1000"`
	DayOfWeek      int    `json:"day_of_week"     binding:"omitempty,min=1,max=7"`
	StartTime      string `json:"start_time"      binding:"omitempty"` // "09:00"
	EndTime        string `json:"end_time"        binding:"omitempty"` // "10:30"
	StartDate      string `json:"start_date"      binding:"omitempty"` // "2025-09-01"
	EndDate        string `json:"end_date"        binding:"omitempty"` // "2026-01-15"
}

// UpdateCourseRequest 更新课程请求
type UpdateCourseRequest struct {
	Name           *string `json:"name"            binding:"omitempty,min=2,max=100"`
	TeacherName    *string `json:"teacher_name"    binding:"omitempty,max=100"`
	RequiresGrades *bool   `json:"requires_grades"`
	GradeLevel     *string `json:"grade_level"     binding:"omitempty,oneof=一年级 二年级 三年级"`
	Capacity       *int    `json:"capacity"        binding:"omitempty,min=0,max=1000"`
	DayOfWeek      *int    `json:"day_of_week"     binding:"omitempty,min=1,max=7"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	Status         *string `json:"status"          binding:"omitempty,oneof=open closed"`
}

// ListCoursesRequest 课程列表查询参数
type ListCoursesRequest struct {
	PaginationRequest
	Semester string `form:"semester" binding:"omitempty"`
	Status   string `form:"status"   binding:"omitempty,oneof=open closed"`
	Keyword  string `form:"keyword"  binding:"omitempty,max=100"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TeacherName    string `json:"teacher_name"`
	Semester       string `json:"semester"`
	RequiresGrades bool   `json:"requires_grades"`
	GradeLevel     string `json:"grade_level,omitempty"`
	Capacity       int    `json:"capacity"`
	EnrolledCount  int    `json:"enrolled_count"`
	DayOfWeek      int    `json:"day_of_week"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}
