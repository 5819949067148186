package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fgwjs00/lndx-sub001/internal/academic"
	"github.com/fgwjs00/lndx-sub001/internal/dto"
	"github.com/fgwjs00/lndx-sub001/internal/repository"
)

// SemesterService 学期业务接口
// 学期为推算值而非独立实体：按当前日期推算标签（9月为学年度分界）
type SemesterService interface {
	Current(ctx context.Context) (*dto.CurrentSemesterResponse, error)
	// ListUsed 返回课程表中出现过的全部学期标签（倒序）
	ListUsed(ctx context.Context) ([]string, error)
}

type semesterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, logger: logger}
}

func (s *semesterService) Current(_ context.Context) (*dto.CurrentSemesterResponse, error) {
	current := academic.CurrentSemesterLabel(time.Now())
	next, err := academic.NextSemesterLabel(current)
	if err != nil {
		s.logger.Error("推算下一学期失败", zap.Error(err))
		return nil, err
	}
	return &dto.CurrentSemesterResponse{Current: current, Next: next}, nil
}

func (s *semesterService) ListUsed(ctx context.Context) ([]string, error) {
	semesters, err := s.repo.Course.ListSemesters(ctx)
	if err != nil {
		s.logger.Error("查询学期列表失败", zap.Error(err))
		return nil, err
	}
	return semesters, nil
}
