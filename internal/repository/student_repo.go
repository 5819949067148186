package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fgwjs00/lndx-sub001/internal/model"
)

// StudentRepository 学员数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByPhone(ctx context.Context, phone string) (*model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string, deletedBy string) error
	List(ctx context.Context, keyword, graduationStatus string, offset, limit int) ([]model.Student, int64, error)
	// ListUninitialized 返回尚未初始化入学学期的学员（enrollment_semester IS NULL）
	ListUninitialized(ctx context.Context) ([]model.Student, error)
	// ListInitialized 返回已初始化入学学期的在读学员（年级刷新的作用域）
	ListInitialized(ctx context.Context) ([]model.Student, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByPhone(ctx context.Context, phone string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *studentRepo) List(ctx context.Context, keyword, graduationStatus string, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})
	if keyword != "" {
		db = db.Where("name LIKE ? OR phone LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	if graduationStatus != "" {
		db = db.Where("graduation_status = ?", graduationStatus)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) ListUninitialized(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("enrollment_semester IS NULL").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ListInitialized(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("enrollment_semester IS NOT NULL").
		Where("graduation_status = ?", "IN_PROGRESS").
		Find(&students).Error
	return students, err
}
