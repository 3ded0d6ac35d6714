package service

import (
	"context"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Equipment   *EquipmentService
	Loan        *LoanService
	Reservation *ReservationService
	Incident    *IncidentService
	Maintenance *MaintenanceService
	Dashboard   *DashboardService
	Sweep       *SweepService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, clock Clock, logger *zap.Logger) *Services {
	loanSvc := NewLoanService(db, repos, cfg.Policy, clock)
	reservationSvc := NewReservationService(db, repos, cfg.Policy, clock)

	return &Services{
		Equipment:   NewEquipmentService(db, repos, clock),
		Loan:        loanSvc,
		Reservation: reservationSvc,
		Incident:    NewIncidentService(db, repos, clock),
		Maintenance: NewMaintenanceService(db, repos, cfg.Policy, clock),
		Dashboard:   NewDashboardService(db, rdb, repos, clock),
		Sweep:       NewSweepService(loanSvc, reservationSvc, logger),
	}
}

// SweepService 定时扫描：借用逾期标记、预约过期清理。
// 每条记录独立流转，一条失败不影响其余。
type SweepService struct {
	loanSvc        *LoanService
	reservationSvc *ReservationService
	logger         *zap.Logger
}

// NewSweepService 创建扫描服务
func NewSweepService(loanSvc *LoanService, reservationSvc *ReservationService, logger *zap.Logger) *SweepService {
	return &SweepService{
		loanSvc:        loanSvc,
		reservationSvc: reservationSvc,
		logger:         logger,
	}
}

// SweepResult 单轮扫描结果
type SweepResult struct {
	OverdueMarked       int `json:"overdue_marked"`
	ReservationsExpired int `json:"reservations_expired"`
	Errors              int `json:"errors"`
}

// RunOverdue 只扫描借用逾期
func (s *SweepService) RunOverdue(ctx context.Context) *SweepResult {
	result := &SweepResult{}
	marked, errs := s.loanSvc.MarkOverdue(ctx)
	result.OverdueMarked = marked
	for _, err := range errs {
		s.logger.Warn("mark overdue failed", zap.Error(err))
		result.Errors++
	}
	return result
}

// RunExpiry 只扫描预约过期
func (s *SweepService) RunExpiry(ctx context.Context) *SweepResult {
	result := &SweepResult{}
	expired, errs := s.reservationSvc.ExpireStale(ctx)
	result.ReservationsExpired = expired
	for _, err := range errs {
		s.logger.Warn("expire reservation failed", zap.Error(err))
		result.Errors++
	}
	return result
}

// Run 跑一轮完整扫描
func (s *SweepService) Run(ctx context.Context) *SweepResult {
	result := s.RunOverdue(ctx)
	expiry := s.RunExpiry(ctx)
	result.ReservationsExpired = expiry.ReservationsExpired
	result.Errors += expiry.Errors

	if result.OverdueMarked > 0 || result.ReservationsExpired > 0 || result.Errors > 0 {
		s.logger.Info("sweep finished",
			zap.Int("overdue_marked", result.OverdueMarked),
			zap.Int("reservations_expired", result.ReservationsExpired),
			zap.Int("errors", result.Errors))
	}
	return result
}
