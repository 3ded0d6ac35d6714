package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Equipment   *EquipmentRepository
	Loan        *LoanRepository
	Reservation *ReservationRepository
	Incident    *IncidentRepository
	Maintenance *MaintenanceRepository
	ActivityLog *ActivityLogRepository
	User        *UserRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Equipment:   NewEquipmentRepository(db),
		Loan:        NewLoanRepository(db),
		Reservation: NewReservationRepository(db),
		Incident:    NewIncidentRepository(db),
		Maintenance: NewMaintenanceRepository(db),
		ActivityLog: NewActivityLogRepository(db),
		User:        NewUserRepository(db),
	}
}
