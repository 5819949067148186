package dto

// ── 报名模块 DTO ──

// CreateEnrollmentRequest 创建报名请求
type CreateEnrollmentRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	CourseID  string `json:"course_id"  binding:"required,uuid"`
}

// CheckEnrollmentRequest 报名资格预检参数
type CheckEnrollmentRequest struct {
	StudentID string `form:"student_id" binding:"required,uuid"`
	CourseID  string `form:"course_id"  binding:"required,uuid"`
}

// ReviewEnrollmentRequest 报名审批请求（通过/驳回时可附备注）
type ReviewEnrollmentRequest struct {
	Remark string `json:"remark" binding:"omitempty,max=255"`
}

// ListEnrollmentsRequest 报名列表查询参数
type ListEnrollmentsRequest struct {
	PaginationRequest
	StudentID string `form:"student_id" binding:"omitempty,uuid"`
	CourseID  string `form:"course_id"  binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,oneof=PENDING APPROVED REJECTED CANCELLED"`
}

// EnrollmentResponse 报名记录响应
type EnrollmentResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	CourseID    string `json:"course_id"`
	CourseName  string `json:"course_name,omitempty"`
	Semester    string `json:"semester,omitempty"`
	Status      string `json:"status"`
	Remark      string `json:"remark,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// EligibilityResponse 报名资格判定响应
type EligibilityResponse struct {
	CanEnroll bool   `json:"can_enroll"`
	Reason    string `json:"reason,omitempty"`
}
