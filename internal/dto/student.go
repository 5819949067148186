package dto

// ── 学员模块 DTO ──

// CreateStudentRequest 创建学员请求
type CreateStudentRequest struct {
	Name     string `json:"name"       binding:"required,min=2,max=100"`
	Phone    string `json:"phone"      binding:"omitempty,len=11,numeric"`
	IDCardNo string `json:"id_card_no" binding:"omitempty,max=30"`
	Gender   string `json:"gender"     binding:"omitempty,oneof=男 女"`
}

// UpdateStudentRequest 更新学员请求
type UpdateStudentRequest struct {
	Name     *string `json:"name"       binding:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone"      binding:"omitempty,len=11,numeric"`
	IDCardNo *string `json:"id_card_no" binding:"omitempty,max=30"`
	Gender   *string `json:"gender"     binding:"omitempty,oneof=男 女"`
}

// ListStudentsRequest 学员列表查询参数
type ListStudentsRequest struct {
	PaginationRequest
	Keyword          string `form:"keyword"           binding:"omitempty,max=100"`
	GraduationStatus string `form:"graduation_status" binding:"omitempty,oneof=IN_PROGRESS GRADUATED ARCHIVED"`
}

// StudentResponse 学员信息响应
type StudentResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	IDCardNo           string `json:"id_card_no"`
	Gender             string `json:"gender"`
	EnrollmentYear     *int   `json:"enrollment_year,omitempty"`
	EnrollmentSemester string `json:"enrollment_semester,omitempty"`
	CurrentGrade       string `json:"current_grade,omitempty"`
	GraduationStatus   string `json:"graduation_status"`
	GraduationDate     string `json:"graduation_date,omitempty"`
	CreatedAt          string `json:"created_at"`
}

// InitGradesResponse 年级批量初始化结果
type InitGradesResponse struct {
	Initialized int `json:"initialized"` // 本次完成初始化的学员数
	Skipped     int `json:"skipped"`     // 已初始化而跳过的学员数
}

// RefreshGradesResponse 年级批量刷新结果
type RefreshGradesResponse struct {
	Updated   int `json:"updated"`   // 年级发生变化的学员数
	Graduated int `json:"graduated"` // 本次流转为毕业的学员数
}
