package repository

import (
	"context"
	"errors"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"gorm.io/gorm"
)

// LoanRepository 借用单仓库
type LoanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// FindByID 根据ID查找借用单
func (r *LoanRepository) FindByID(ctx context.Context, id string) (*entity.Loan, error) {
	var loan entity.Loan
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("id = ?", id).
		First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// Create 创建借用单
func (r *LoanRepository) Create(ctx context.Context, loan *entity.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// Update 更新借用单
func (r *LoanRepository) Update(ctx context.Context, loan *entity.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// List 分页查询借用单列表
func (r *LoanRepository) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Loan, int64, error) {
	var items []entity.Loan
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Loan{})

	if userID := filters["user_id"]; userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if equipmentID := filters["equipment_id"]; equipmentID != "" {
		query = query.Where("equipment_id = ?", equipmentID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Equipment").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListAll 不分页查询（导出用）
func (r *LoanRepository) ListAll(ctx context.Context, filters map[string]string) ([]entity.Loan, error) {
	var items []entity.Loan
	query := r.db.WithContext(ctx).Model(&entity.Loan{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.
		Preload("Equipment").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// CountApprovedByUser 统计用户当前已批准（含逾期未还）的借用数
func (r *LoanRepository) CountApprovedByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Loan{}).
		Where("user_id = ? AND status IN ?", userID, []string{entity.LoanStatusApproved, entity.LoanStatusOverdue}).
		Count(&count).Error
	return count, err
}

// CountOpenByEquipment 统计设备上未完结的借用单数
func (r *LoanRepository) CountOpenByEquipment(ctx context.Context, equipmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Loan{}).
		Where("equipment_id = ? AND status IN ?", equipmentID, entity.LoanOpenStatuses).
		Count(&count).Error
	return count, err
}

// FindApprovedDueBefore 查找到期未还的已批准借用单（逾期扫描用）
func (r *LoanRepository) FindApprovedDueBefore(ctx context.Context, day time.Time) ([]entity.Loan, error) {
	var items []entity.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND expected_return_date < ?", entity.LoanStatusApproved, day).
		Find(&items).Error
	return items, err
}
