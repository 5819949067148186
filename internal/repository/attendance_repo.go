package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/model"
)

// AttendanceSummary 单门课程的考勤汇总
type AttendanceSummary struct {
	Present int64 `json:"present"`
	Absent  int64 `json:"absent"`
	Leave   int64 `json:"leave"`
}

// AttendanceRepository 考勤记录数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, attendance *model.Attendance) error
	Update(ctx context.Context, attendance *model.Attendance) error
	// GetByEnrollmentDate 按 (报名, 日期) 查找已有考勤，用于当日重复打卡时覆盖
	GetByEnrollmentDate(ctx context.Context, enrollmentID string, date time.Time) (*model.Attendance, error)
	List(ctx context.Context, courseID, studentID string, from, to *time.Time, offset, limit int) ([]model.Attendance, int64, error)
	ListByCourseDate(ctx context.Context, courseID string, from, to *time.Time) ([]model.Attendance, error)
	Summarize(ctx context.Context, courseID, studentID string) (*AttendanceSummary, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, attendance *model.Attendance) error {
	return r.db.WithContext(ctx).Create(attendance).Error
}

func (r *attendanceRepo) Update(ctx context.Context, attendance *model.Attendance) error {
	return r.db.WithContext(ctx).Save(attendance).Error
}

func (r *attendanceRepo) GetByEnrollmentDate(ctx context.Context, enrollmentID string, date time.Time) (*model.Attendance, error) {
	var attendance model.Attendance
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ? AND date = ?", enrollmentID, date.Format("2006-01-02")).
		First(&attendance).Error
	if err != nil {
		return nil, err
	}
	return &attendance, nil
}

func (r *attendanceRepo) List(ctx context.Context, courseID, studentID string, from, to *time.Time, offset, limit int) ([]model.Attendance, int64, error) {
	var attendances []model.Attendance
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Attendance{})
	if courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}
	if studentID != "" {
		db = db.Where("student_id = ?", studentID)
	}
	if from != nil {
		db = db.Where("date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		db = db.Where("date <= ?", to.Format("2006-01-02"))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Student").Preload("Course").
		Offset(offset).Limit(limit).
		Order("date DESC, created_at DESC").
		Find(&attendances).Error; err != nil {
		return nil, 0, err
	}

	return attendances, total, nil
}

func (r *attendanceRepo) ListByCourseDate(ctx context.Context, courseID string, from, to *time.Time) ([]model.Attendance, error) {
	var attendances []model.Attendance
	db := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ?", courseID)
	if from != nil {
		db = db.Where("date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		db = db.Where("date <= ?", to.Format("2006-01-02"))
	}
	err := db.Order("date ASC").Find(&attendances).Error
	return attendances, err
}

func (r *attendanceRepo) Summarize(ctx context.Context, courseID, studentID string) (*AttendanceSummary, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row

	db := r.db.WithContext(ctx).Model(&model.Attendance{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}
	if studentID != "" {
		db = db.Where("student_id = ?", studentID)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := &AttendanceSummary{}
	for _, r := range rows {
		switch r.Status {
		case model.AttendancePresent:
			summary.Present = r.Count
		case model.AttendanceAbsent:
			summary.Absent = r.Count
		case model.AttendanceLeave:
			summary.Leave = r.Count
		}
	}
	return summary, nil
}
