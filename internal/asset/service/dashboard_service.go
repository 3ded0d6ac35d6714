package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	dashboardCacheKey = "asset:dashboard:summary"
	dashboardCacheTTL = 30 * time.Second
)

// DashboardService 看板统计服务。汇总查询较重，结果在redis里缓存30秒。
type DashboardService struct {
	db              *gorm.DB
	rdb             *redis.Client
	equipmentRepo   *repository.EquipmentRepository
	incidentRepo    *repository.IncidentRepository
	maintenanceRepo *repository.MaintenanceRepository
	clock           Clock
}

// NewDashboardService 创建看板服务
func NewDashboardService(db *gorm.DB, rdb *redis.Client, repos *repository.Repositories, clock Clock) *DashboardService {
	return &DashboardService{
		db:              db,
		rdb:             rdb,
		equipmentRepo:   repos.Equipment,
		incidentRepo:    repos.Incident,
		maintenanceRepo: repos.Maintenance,
		clock:           clock,
	}
}

// DashboardSummary 看板汇总
type DashboardSummary struct {
	EquipmentByStatus   map[string]int64 `json:"equipment_by_status"`
	OpenIncidents       int64            `json:"open_incidents"`
	OverdueLoans        int64            `json:"overdue_loans"`
	ActiveLoans         int64            `json:"active_loans"`
	PendingLoans        int64            `json:"pending_loans"`
	PendingReservations int64            `json:"pending_reservations"`
	UpcomingMaintenance int64            `json:"upcoming_maintenance"` // 未来7天
	GeneratedAt         time.Time        `json:"generated_at"`
}

// Summary 获取看板汇总，优先走缓存
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
			var summary DashboardSummary
			if err := json.Unmarshal(cached, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(summary); err == nil {
			s.rdb.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL)
		}
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context) (*DashboardSummary, error) {
	byStatus, err := s.equipmentRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	openIncidents, err := s.incidentRepo.CountOpen(ctx)
	if err != nil {
		return nil, err
	}

	var overdueLoans, activeLoans, pendingLoans, pendingReservations int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&entity.Loan{}).Where("status = ?", entity.LoanStatusOverdue).Count(&overdueLoans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Loan{}).Where("status = ?", entity.LoanStatusApproved).Count(&activeLoans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Loan{}).Where("status = ?", entity.LoanStatusPending).Count(&pendingLoans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Reservation{}).Where("status = ?", entity.ReservationStatusPending).Count(&pendingReservations).Error; err != nil {
		return nil, err
	}

	today := s.clock.Today()
	upcoming, err := s.maintenanceRepo.CountScheduledBetween(ctx, today, today.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		EquipmentByStatus:   byStatus,
		OpenIncidents:       openIncidents,
		OverdueLoans:        overdueLoans,
		ActiveLoans:         activeLoans,
		PendingLoans:        pendingLoans,
		PendingReservations: pendingReservations,
		UpcomingMaintenance: upcoming,
		GeneratedAt:         s.clock.Now(),
	}, nil
}

// Invalidate 主动失效缓存（测试和调试用）
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, dashboardCacheKey)
	}
}
