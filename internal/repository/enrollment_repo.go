package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/model"
	pkgerrors "github.com/fgwjs00/lndx-sub001/pkg/errors"
)

// EnrollmentRepository 报名记录数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetByID(ctx context.Context, id string) (*model.Enrollment, error)
	// UpdateStatus 带乐观锁的状态更新；版本不匹配返回 pkg/errors.ErrOptimisticLock
	UpdateStatus(ctx context.Context, enrollment *model.Enrollment) error
	// ListByStudent 返回学员全部报名记录（含课程关联，供跨学期判定使用）
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	// ListApprovedByStudent 返回学员已通过的报名记录（含课程关联）
	ListApprovedByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	ListApprovedByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error)
	// HasApproved 学员是否存在任一已通过的报名
	HasApproved(ctx context.Context, studentID string) (bool, error)
	List(ctx context.Context, studentID, courseID, status string, offset, limit int) ([]model.Enrollment, int64, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Course").
		Where("enrollment_id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// UpdateStatus 乐观锁更新：并发审批同一条报名时只有一方生效
func (r *enrollmentRepo) UpdateStatus(ctx context.Context, enrollment *model.Enrollment) error {
	oldVersion := enrollment.Version
	result := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("enrollment_id = ? AND version = ?", enrollment.EnrollmentID, oldVersion).
		Updates(map[string]interface{}{
			"status":     enrollment.Status,
			"remark":     enrollment.Remark,
			"updated_by": enrollment.UpdatedBy,
			"updated_at": gorm.Expr("NOW()"),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	enrollment.Version = oldVersion + 1
	return nil
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) ListApprovedByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentApproved).
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) ListApprovedByCourse(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ? AND status = ?", courseID, model.EnrollmentApproved).
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) HasApproved(ctx context.Context, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("student_id = ? AND status = ?", studentID, model.EnrollmentApproved).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepo) List(ctx context.Context, studentID, courseID, status string, offset, limit int) ([]model.Enrollment, int64, error) {
	var enrollments []model.Enrollment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Enrollment{})
	if studentID != "" {
		db = db.Where("student_id = ?", studentID)
	}
	if courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Student").Preload("Course").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}
