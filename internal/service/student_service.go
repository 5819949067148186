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

// ── 学员模块业务错误 ──

var (
	ErrStudentNotFound   = errors.New("学员不存在")
	ErrStudentPhoneTaken = errors.New("该手机号已登记其他学员")
)

// StudentService 学员业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest, operatorID string) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.StudentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, operatorID string) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string, operatorID string) error
	List(ctx context.Context, req *dto.ListStudentsRequest) ([]dto.StudentResponse, int64, error)
	// InitializeGrades 为历史学员批量回填入学学期与年级
	// 入学学期按建档时间推算（9月为学年度分界）
	InitializeGrades(ctx context.Context, operatorID string) (*dto.InitGradesResponse, error)
	// RefreshGrades 按当前日期重算所有在读学员年级，满3年流转为毕业
	RefreshGrades(ctx context.Context, operatorID string) (*dto.RefreshGradesResponse, error)
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest, operatorID string) (*dto.StudentResponse, error) {
	if req.Phone != "" {
		if _, err := s.repo.Student.GetByPhone(ctx, req.Phone); err == nil {
			return nil, ErrStudentPhoneTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询学员手机号失败", zap.Error(err))
			return nil, err
		}
	}

	// 新学员建档即初始化：入学学期为当前学期，年级一年级
	now := time.Now()
	semester := academic.CurrentSemesterLabel(now)
	parsed, err := academic.ParseSemester(semester)
	if err != nil {
		s.logger.Error("推算当前学期失败", zap.Error(err))
		return nil, err
	}
	grade := academic.GradeByElapsedYears(0)

	student := &model.Student{
		Name:               req.Name,
		Phone:              req.Phone,
		IDCardNo:           req.IDCardNo,
		Gender:             req.Gender,
		EnrollmentYear:     &parsed.Year,
		EnrollmentSemester: &semester,
		CurrentGrade:       &grade,
		GraduationStatus:   academic.StatusInProgress,
	}
	student.CreatedBy = &operatorID

	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学员失败", zap.Error(err))
		return nil, err
	}

	return toStudentResponse(student), nil
}

func (s *studentService) GetByID(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, operatorID string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.Error(err))
		return nil, err
	}

	if req.Phone != nil && *req.Phone != student.Phone {
		if existing, err := s.repo.Student.GetByPhone(ctx, *req.Phone); err == nil && existing.StudentID != id {
			return nil, ErrStudentPhoneTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询学员手机号失败", zap.Error(err))
			return nil, err
		}
		student.Phone = *req.Phone
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.IDCardNo != nil {
		student.IDCardNo = *req.IDCardNo
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	student.UpdatedBy = &operatorID

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学员失败", zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id string, operatorID string) error {
	if _, err := s.repo.Student.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.Error(err))
		return err
	}
	return s.repo.Student.Delete(ctx, id, operatorID)
}

func (s *studentService) List(ctx context.Context, req *dto.ListStudentsRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, req.Keyword, req.GraduationStatus, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询学员列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		resp = append(resp, *toStudentResponse(&students[i]))
	}
	return resp, total, nil
}

// ═══════════════════════════════════════════════════════════
// InitializeGrades — 历史学员年级批量初始化
// ═══════════════════════════════════════════════════════════

func (s *studentService) InitializeGrades(ctx context.Context, operatorID string) (*dto.InitGradesResponse, error) {
	students, err := s.repo.Student.ListUninitialized(ctx)
	if err != nil {
		s.logger.Error("查询待初始化学员失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	currentLabel := academic.CurrentSemesterLabel(now)
	resp := &dto.InitGradesResponse{}

	for i := range students {
		student := &students[i]

		// 已归档学员不参与回填
		if student.GraduationStatus == academic.StatusArchived {
			resp.Skipped++
			continue
		}

		// 入学学期按建档时间推算
		enrollLabel := academic.CurrentSemesterLabel(student.CreatedAt)
		parsed, err := academic.ParseSemester(enrollLabel)
		if err != nil {
			s.logger.Warn("推算入学学期失败，跳过",
				zap.String("student_id", student.StudentID), zap.Error(err))
			resp.Skipped++
			continue
		}

		grade, err := academic.CurrentGrade(enrollLabel, currentLabel)
		if err != nil {
			resp.Skipped++
			continue
		}

		student.EnrollmentYear = &parsed.Year
		student.EnrollmentSemester = &enrollLabel
		if grade == academic.GradeGraduated {
			g := academic.GradeThree
			student.CurrentGrade = &g
			student.GraduationStatus = academic.StatusGraduated
			gradDate := now
			student.GraduationDate = &gradDate
		} else {
			student.CurrentGrade = &grade
		}
		student.UpdatedBy = &operatorID

		if err := s.repo.Student.Update(ctx, student); err != nil {
			s.logger.Error("初始化学员年级失败",
				zap.String("student_id", student.StudentID), zap.Error(err))
			return nil, err
		}
		resp.Initialized++
	}

	s.logger.Info("学员年级初始化完成",
		zap.Int("initialized", resp.Initialized), zap.Int("skipped", resp.Skipped))
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// RefreshGrades — 按当前日期重算在读学员年级
// ═══════════════════════════════════════════════════════════

func (s *studentService) RefreshGrades(ctx context.Context, operatorID string) (*dto.RefreshGradesResponse, error) {
	students, err := s.repo.Student.ListInitialized(ctx)
	if err != nil {
		s.logger.Error("查询在读学员失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	currentLabel := academic.CurrentSemesterLabel(now)
	resp := &dto.RefreshGradesResponse{}

	for i := range students {
		student := &students[i]
		if student.EnrollmentSemester == nil {
			continue
		}

		grade, err := academic.CurrentGrade(*student.EnrollmentSemester, currentLabel)
		if err != nil {
			s.logger.Warn("学员入学学期标签无法解析，跳过",
				zap.String("student_id", student.StudentID),
				zap.String("enrollment_semester", *student.EnrollmentSemester))
			continue
		}

		if grade == academic.GradeGraduated {
			// 满3年流转为毕业，年级定格在三年级
			g := academic.GradeThree
			student.CurrentGrade = &g
			student.GraduationStatus = academic.StatusGraduated
			gradDate := now
			student.GraduationDate = &gradDate
			student.UpdatedBy = &operatorID
			if err := s.repo.Student.Update(ctx, student); err != nil {
				s.logger.Error("学员毕业流转失败",
					zap.String("student_id", student.StudentID), zap.Error(err))
				return nil, err
			}
			resp.Graduated++
			continue
		}

		if student.CurrentGrade != nil && *student.CurrentGrade == grade {
			continue // 年级未变化
		}

		student.CurrentGrade = &grade
		student.UpdatedBy = &operatorID
		if err := s.repo.Student.Update(ctx, student); err != nil {
			s.logger.Error("刷新学员年级失败",
				zap.String("student_id", student.StudentID), zap.Error(err))
			return nil, err
		}
		resp.Updated++
	}

	s.logger.Info("学员年级刷新完成",
		zap.Int("updated", resp.Updated), zap.Int("graduated", resp.Graduated))
	return resp, nil
}

// toStudentResponse 模型转响应
func toStudentResponse(student *model.Student) *dto.StudentResponse {
	resp := &dto.StudentResponse{
		ID:               student.StudentID,
		Name:             student.Name,
		Phone:            student.Phone,
		IDCardNo:         student.IDCardNo,
		Gender:           student.Gender,
		EnrollmentYear:   student.EnrollmentYear,
		GraduationStatus: student.GraduationStatus,
		CreatedAt:        student.CreatedAt.Format(time.RFC3339),
	}
	if student.EnrollmentSemester != nil {
		resp.EnrollmentSemester = *student.EnrollmentSemester
	}
	if student.CurrentGrade != nil {
		resp.CurrentGrade = *student.CurrentGrade
	}
	if student.GraduationDate != nil {
		resp.GraduationDate = student.GraduationDate.Format("2006-01-02")
	}
	return resp
}
