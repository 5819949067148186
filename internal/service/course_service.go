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

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound     = errors.New("课程不存在")
	ErrCourseHasEnrollees = errors.New("课程已有报名记录，不可删除")
	ErrInvalidDateFormat  = errors.New("日期格式错误，应为 YYYY-MM-DD")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, operatorID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, operatorID string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string, operatorID string) error
	List(ctx context.Context, req *dto.ListCoursesRequest) ([]dto.CourseResponse, int64, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, operatorID string) (*dto.CourseResponse, error) {
	// 学期标签格式校验
	if _, err := academic.ParseSemester(req.Semester); err != nil {
		return nil, err
	}

	startDate, err := parseDatePtr(req.StartDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	endDate, err := parseDatePtr(req.EndDate)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	dayOfWeek := req.DayOfWeek
	if dayOfWeek == 0 {
		dayOfWeek = 1
	}

	course := &model.Course{
		Name:           req.Name,
		TeacherName:    req.TeacherName,
		Semester:       req.Semester,
		RequiresGrades: req.RequiresGrades,
		GradeLevel:     req.GradeLevel,
		Capacity:       req.Capacity,
		DayOfWeek:      dayOfWeek,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         "open",
	}
	course.CreatedBy = &operatorID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, operatorID string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.TeacherName != nil {
		course.TeacherName = *req.TeacherName
	}
	if req.RequiresGrades != nil {
		course.RequiresGrades = *req.RequiresGrades
	}
	if req.GradeLevel != nil {
		course.GradeLevel = *req.GradeLevel
	}
	if req.Capacity != nil {
		course.Capacity = *req.Capacity
	}
	if req.DayOfWeek != nil {
		course.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		course.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		course.EndTime = *req.EndTime
	}
	if req.StartDate != nil {
		d, err := parseDatePtr(*req.StartDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		course.StartDate = d
	}
	if req.EndDate != nil {
		d, err := parseDatePtr(*req.EndDate)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		course.EndDate = d
	}
	if req.Status != nil {
		course.Status = *req.Status
	}
	course.UpdatedBy = &operatorID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新课程失败", zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id string, operatorID string) error {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return err
	}

	// 已有有效报名的课程不可直接删除，需先处理报名记录
	enrollments, err := s.repo.Enrollment.ListApprovedByCourse(ctx, course.CourseID)
	if err != nil {
		s.logger.Error("查询课程报名失败", zap.Error(err))
		return err
	}
	if len(enrollments) > 0 {
		return ErrCourseHasEnrollees
	}

	return s.repo.Course.Delete(ctx, id, operatorID)
}

func (s *courseService) List(ctx context.Context, req *dto.ListCoursesRequest) ([]dto.CourseResponse, int64, error) {
	courses, total, err := s.repo.Course.List(ctx, req.Semester, req.Status, req.Keyword, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		resp = append(resp, *toCourseResponse(&courses[i]))
	}
	return resp, total, nil
}

// parseDatePtr 解析 "YYYY-MM-DD"；空串返回 nil
func parseDatePtr(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// toCourseResponse 模型转响应
func toCourseResponse(course *model.Course) *dto.CourseResponse {
	resp := &dto.CourseResponse{
		ID:             course.CourseID,
		Name:           course.Name,
		TeacherName:    course.TeacherName,
		Semester:       course.Semester,
		RequiresGrades: course.RequiresGrades,
		GradeLevel:     course.GradeLevel,
		Capacity:       course.Capacity,
		EnrolledCount:  course.EnrolledCount,
		DayOfWeek:      course.DayOfWeek,
		StartTime:      course.StartTime,
		EndTime:        course.EndTime,
		Status:         course.Status,
		CreatedAt:      course.CreatedAt.Format(time.RFC3339),
	}
	if course.StartDate != nil {
		resp.StartDate = course.StartDate.Format("2006-01-02")
	}
	if course.EndDate != nil {
		resp.EndDate = course.EndDate.Format("2006-01-02")
	}
	return resp
}
