package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/academic"
	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/model"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
)

// ── 报名模块业务错误 ──

var (
	ErrEnrollmentNotFound      = errors.New("报名记录不存在")
	ErrEnrollmentIneligible    = errors.New("不符合报名条件")
	ErrInvalidStatusTransition = errors.New("当前状态不允许该操作")
)

// IneligibleError 携带面向用户拒绝原因的报名资格错误
// errors.Is(err, ErrEnrollmentIneligible) 判定类别，Error() 返回具体原因
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string { return e.Reason }
func (e *IneligibleError) Unwrap() error { return ErrEnrollmentIneligible }

// EnrollmentService 报名业务接口
type EnrollmentService interface {
	Create(ctx context.Context, req *dto.CreateEnrollmentRequest, operatorID string) (*dto.EnrollmentResponse, error)
	// Check 报名资格预检，不产生任何写入
	Check(ctx context.Context, req *dto.CheckEnrollmentRequest) (*dto.EligibilityResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EnrollmentResponse, error)
	Approve(ctx context.Context, id string, req *dto.ReviewEnrollmentRequest, operatorID string) (*dto.EnrollmentResponse, error)
	Reject(ctx context.Context, id string, req *dto.ReviewEnrollmentRequest, operatorID string) (*dto.EnrollmentResponse, error)
	Cancel(ctx context.Context, id string, operatorID string) (*dto.EnrollmentResponse, error)
	List(ctx context.Context, req *dto.ListEnrollmentsRequest) ([]dto.EnrollmentResponse, int64, error)
}

type enrollmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Create — 提交报名（资格判定 + 落库）
// ═══════════════════════════════════════════════════════════

func (s *enrollmentService) Create(ctx context.Context, req *dto.CreateEnrollmentRequest, operatorID string) (*dto.EnrollmentResponse, error) {
	student, course, verdict, err := s.evaluate(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !verdict.CanEnroll {
		return nil, &IneligibleError{Reason: verdict.Reason}
	}

	enrollment := &model.Enrollment{
		StudentID: student.StudentID,
		CourseID:  course.CourseID,
		Status:    model.EnrollmentPending,
	}
	enrollment.CreatedBy = &operatorID

	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		s.logger.Error("创建报名失败", zap.Error(err))
		return nil, err
	}

	enrollment.Student = student
	enrollment.Course = course
	return toEnrollmentResponse(enrollment), nil
}

// Check 资格预检：与 Create 共用同一套判定，不落库
func (s *enrollmentService) Check(ctx context.Context, req *dto.CheckEnrollmentRequest) (*dto.EligibilityResponse, error) {
	_, _, verdict, err := s.evaluate(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, err
	}
	return &dto.EligibilityResponse{CanEnroll: verdict.CanEnroll, Reason: verdict.Reason}, nil
}

// evaluate 报名资格判定，按顺序短路：
//  1. 课程已关闭 / 名额已满 → 拒绝
//  2. 同学期重复报名 → 拒绝（跨学期重报放行并附提示）
//  3. 年级门槛 → 按年级资格规则判定
func (s *enrollmentService) evaluate(ctx context.Context, studentID, courseID string) (*model.Student, *model.Course, academic.Verdict, error) {
	var zero academic.Verdict

	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, zero, ErrStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.Error(err))
		return nil, nil, zero, err
	}

	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, zero, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, nil, zero, err
	}

	if course.Status != "open" {
		return student, course, academic.Verdict{Reason: "该课程已停止报名"}, nil
	}
	if course.Capacity > 0 && course.EnrolledCount >= course.Capacity {
		return student, course, academic.Verdict{Reason: "该课程名额已满"}, nil
	}

	// 有效报名记录（待审核/已通过）参与重复报名判定
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学员报名记录失败", zap.Error(err))
		return nil, nil, zero, err
	}

	var refs []academic.EnrollmentRef
	hasApproved := false
	for i := range enrollments {
		e := &enrollments[i]
		if e.Status == model.EnrollmentApproved {
			hasApproved = true
		}
		if e.Status != model.EnrollmentPending && e.Status != model.EnrollmentApproved {
			continue
		}
		semester := ""
		if e.Course != nil {
			semester = e.Course.Semester
		}
		refs = append(refs, academic.EnrollmentRef{CourseID: e.CourseID, Semester: semester})
	}

	crossVerdict := academic.CanEnrollAcrossSemesters(refs, course.CourseID, course.Semester)
	if !crossVerdict.CanEnroll {
		return student, course, crossVerdict, nil
	}

	studentGrade := ""
	if student.CurrentGrade != nil {
		studentGrade = *student.CurrentGrade
	}
	gradeVerdict := academic.CanEnrollCourse(studentGrade, course.GradeLevel, student.GraduationStatus, course.RequiresGrades, hasApproved)
	if !gradeVerdict.CanEnroll {
		return student, course, gradeVerdict, nil
	}

	// 跨学期重报的提示信息随放行结果透出
	if crossVerdict.Reason != "" {
		return student, course, crossVerdict, nil
	}
	return student, course, gradeVerdict, nil
}

// ═══════════════════════════════════════════════════════════
// Approve / Reject / Cancel — 审批状态流转
// ═══════════════════════════════════════════════════════════
//
// 合法流转：
//   PENDING  → APPROVED（通过，课程报名数 +1）
//   PENDING  → REJECTED（驳回）
//   PENDING  → CANCELLED（取消）
//   APPROVED → CANCELLED（退课，课程报名数 -1）
// 其余流转一律拒绝；并发审批依赖乐观锁兜底

func (s *enrollmentService) Approve(ctx context.Context, id string, req *dto.ReviewEnrollmentRequest, operatorID string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.getForReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != model.EnrollmentPending {
		return nil, ErrInvalidStatusTransition
	}

	enrollment.Status = model.EnrollmentApproved
	enrollment.Remark = req.Remark
	enrollment.UpdatedBy = &operatorID

	// 状态流转与报名计数在同一事务内完成
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Enrollment.UpdateStatus(ctx, enrollment); err != nil {
			return err
		}
		if err := txRepo.Course.IncrementEnrolled(ctx, enrollment.CourseID, 1); err != nil {
			s.logger.Error("更新课程报名数失败", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Reject(ctx context.Context, id string, req *dto.ReviewEnrollmentRequest, operatorID string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.getForReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != model.EnrollmentPending {
		return nil, ErrInvalidStatusTransition
	}

	enrollment.Status = model.EnrollmentRejected
	enrollment.Remark = req.Remark
	enrollment.UpdatedBy = &operatorID

	if err := s.repo.Enrollment.UpdateStatus(ctx, enrollment); err != nil {
		return nil, err
	}
	return toEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Cancel(ctx context.Context, id string, operatorID string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.getForReview(ctx, id)
	if err != nil {
		return nil, err
	}
	wasApproved := enrollment.Status == model.EnrollmentApproved
	if enrollment.Status != model.EnrollmentPending && !wasApproved {
		return nil, ErrInvalidStatusTransition
	}

	enrollment.Status = model.EnrollmentCancelled
	enrollment.UpdatedBy = &operatorID

	if !wasApproved {
		if err := s.repo.Enrollment.UpdateStatus(ctx, enrollment); err != nil {
			return nil, err
		}
		return toEnrollmentResponse(enrollment), nil
	}

	// 退课需同步回收名额
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Enrollment.UpdateStatus(ctx, enrollment); err != nil {
			return err
		}
		if err := txRepo.Course.IncrementEnrolled(ctx, enrollment.CourseID, -1); err != nil {
			s.logger.Error("回收课程名额失败", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) GetByID(ctx context.Context, id string) (*dto.EnrollmentResponse, error) {
	enrollment, err := s.getForReview(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) List(ctx context.Context, req *dto.ListEnrollmentsRequest) ([]dto.EnrollmentResponse, int64, error) {
	enrollments, total, err := s.repo.Enrollment.List(ctx, req.StudentID, req.CourseID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询报名列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		resp = append(resp, *toEnrollmentResponse(&enrollments[i]))
	}
	return resp, total, nil
}

func (s *enrollmentService) getForReview(ctx context.Context, id string) (*model.Enrollment, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名记录失败", zap.Error(err))
		return nil, err
	}
	return enrollment, nil
}

// toEnrollmentResponse 模型转响应
func toEnrollmentResponse(enrollment *model.Enrollment) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:        enrollment.EnrollmentID,
		StudentID: enrollment.StudentID,
		CourseID:  enrollment.CourseID,
		Status:    enrollment.Status,
		Remark:    enrollment.Remark,
		CreatedAt: enrollment.CreatedAt.Format(time.RFC3339),
	}
	if enrollment.Student != nil {
		resp.StudentName = enrollment.Student.Name
	}
	if enrollment.Course != nil {
		resp.CourseName = enrollment.Course.Name
		resp.Semester = enrollment.Course.Semester
	}
	return resp
}
