package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string, deletedBy string) error
	List(ctx context.Context, semester, status, keyword string, offset, limit int) ([]model.Course, int64, error)
	// IncrementEnrolled 报名人数增减（delta 可为负）
	IncrementEnrolled(ctx context.Context, id string, delta int) error
	// ListSemesters 返回课程目录中出现过的学期标签（倒序去重）
	ListSemesters(ctx context.Context) ([]string, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *courseRepo) List(ctx context.Context, semester, status, keyword string, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Course{})
	if semester != "" {
		db = db.Where("semester = ?", semester)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if keyword != "" {
		db = db.Where("name LIKE ? OR teacher_name LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepo) IncrementEnrolled(ctx context.Context, id string, delta int) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Update("enrolled_count", gorm.Expr("enrolled_count + ?", delta)).Error
}

func (r *courseRepo) ListSemesters(ctx context.Context) ([]string, error) {
	var semesters []string
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Distinct("semester").
		Order("semester DESC").
		Pluck("semester", &semesters).Error
	return semesters, err
}
