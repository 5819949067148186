package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/model"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
)

// ── 考勤模块业务错误 ──

var (
	ErrAttendanceNotApproved = errors.New("仅已通过审批的报名可登记考勤")
	ErrAttendanceWrongCourse = errors.New("报名记录不属于该课程")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// Record 登记单条考勤；同一报名同一日期重复登记时覆盖原记录
	Record(ctx context.Context, req *dto.RecordAttendanceRequest, operatorID string) (*dto.AttendanceResponse, error)
	// BatchRecord 按课程批量登记考勤，整批在单个事务内完成
	BatchRecord(ctx context.Context, req *dto.BatchRecordAttendanceRequest, operatorID string) ([]dto.AttendanceResponse, error)
	List(ctx context.Context, req *dto.ListAttendancesRequest) ([]dto.AttendanceResponse, int64, error)
	// Summarize 学员在某课程（courseID 为空时统计全部课程）的考勤汇总
	Summarize(ctx context.Context, studentID, courseID string) (*dto.AttendanceSummaryResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger}
}

func (s *attendanceService) Record(ctx context.Context, req *dto.RecordAttendanceRequest, operatorID string) (*dto.AttendanceResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	enrollment, err := s.loadApprovedEnrollment(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}

	attendance, err := s.upsert(ctx, s.repo, enrollment, date, req.Status, req.Remark, operatorID)
	if err != nil {
		return nil, err
	}
	return toAttendanceResponse(attendance), nil
}

func (s *attendanceService) BatchRecord(ctx context.Context, req *dto.BatchRecordAttendanceRequest, operatorID string) ([]dto.AttendanceResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	// 预检所有报名记录，整批要么全部合法要么全部不写
	enrollments := make([]*model.Enrollment, 0, len(req.Items))
	for _, item := range req.Items {
		enrollment, err := s.loadApprovedEnrollment(ctx, item.EnrollmentID)
		if err != nil {
			return nil, err
		}
		if enrollment.CourseID != req.CourseID {
			return nil, ErrAttendanceWrongCourse
		}
		enrollments = append(enrollments, enrollment)
	}

	resp := make([]dto.AttendanceResponse, 0, len(req.Items))
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for i, item := range req.Items {
			attendance, err := s.upsert(ctx, txRepo, enrollments[i], date, item.Status, item.Remark, operatorID)
			if err != nil {
				return err
			}
			resp = append(resp, *toAttendanceResponse(attendance))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *attendanceService) List(ctx context.Context, req *dto.ListAttendancesRequest) ([]dto.AttendanceResponse, int64, error) {
	var from, to *time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, 0, ErrInvalidDateFormat
		}
		from, to = &d, &d
	}

	attendances, total, err := s.repo.Attendance.List(ctx, req.CourseID, req.StudentID, from, to, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询考勤列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]dto.AttendanceResponse, 0, len(attendances))
	for i := range attendances {
		resp = append(resp, *toAttendanceResponse(&attendances[i]))
	}
	return resp, total, nil
}

func (s *attendanceService) Summarize(ctx context.Context, studentID, courseID string) (*dto.AttendanceSummaryResponse, error) {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.Error(err))
		return nil, err
	}

	summary, err := s.repo.Attendance.Summarize(ctx, courseID, studentID)
	if err != nil {
		s.logger.Error("统计考勤失败", zap.Error(err))
		return nil, err
	}

	return &dto.AttendanceSummaryResponse{
		StudentID: studentID,
		Total:     int(summary.Present + summary.Absent + summary.Leave),
		Present:   int(summary.Present),
		Absent:    int(summary.Absent),
		Leave:     int(summary.Leave),
	}, nil
}

// loadApprovedEnrollment 加载报名记录并校验审批状态
func (s *attendanceService) loadApprovedEnrollment(ctx context.Context, enrollmentID string) (*model.Enrollment, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名记录失败", zap.Error(err))
		return nil, err
	}
	if enrollment.Status != model.EnrollmentApproved {
		return nil, ErrAttendanceNotApproved
	}
	return enrollment, nil
}

// upsert 同一 (报名, 日期) 的考勤记录覆盖写
func (s *attendanceService) upsert(ctx context.Context, repo *repository.Repository, enrollment *model.Enrollment, date time.Time, status, remark, operatorID string) (*model.Attendance, error) {
	existing, err := repo.Attendance.GetByEnrollmentDate(ctx, enrollment.EnrollmentID, date)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, err
	}

	if existing != nil {
		existing.Status = status
		existing.Remark = remark
		existing.UpdatedBy = &operatorID
		if err := repo.Attendance.Update(ctx, existing); err != nil {
			s.logger.Error("更新考勤记录失败", zap.Error(err))
			return nil, err
		}
		existing.Student = enrollment.Student
		existing.Course = enrollment.Course
		return existing, nil
	}

	attendance := &model.Attendance{
		EnrollmentID: enrollment.EnrollmentID,
		StudentID:    enrollment.StudentID,
		CourseID:     enrollment.CourseID,
		Date:         date,
		Status:       status,
		Remark:       remark,
	}
	attendance.CreatedBy = &operatorID

	if err := repo.Attendance.Create(ctx, attendance); err != nil {
		s.logger.Error("创建考勤记录失败", zap.Error(err))
		return nil, err
	}
	attendance.Student = enrollment.Student
	attendance.Course = enrollment.Course
	return attendance, nil
}

// toAttendanceResponse 模型转响应
func toAttendanceResponse(attendance *model.Attendance) *dto.AttendanceResponse {
	resp := &dto.AttendanceResponse{
		ID:           attendance.AttendanceID,
		EnrollmentID: attendance.EnrollmentID,
		StudentID:    attendance.StudentID,
		CourseID:     attendance.CourseID,
		Date:         attendance.Date.Format("2006-01-02"),
		Status:       attendance.Status,
		Remark:       attendance.Remark,
	}
	if attendance.Student != nil {
		resp.StudentName = attendance.Student.Name
	}
	if attendance.Course != nil {
		resp.CourseName = attendance.Course.Name
	}
	return resp
}
