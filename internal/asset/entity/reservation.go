package entity

import "time"

// Reservation 预约单：一个用户对一台设备的日期区间预订
type Reservation struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	EquipmentID string `json:"equipment_id" gorm:"size:32;not null;index"`
	UserID      string `json:"user_id" gorm:"size:32;not null;index"`

	Status string `json:"status" gorm:"size:20;default:pending;index"` // pending/approved/active/completed/cancelled/rejected/expired

	// 闭区间 [StartDate, EndDate]，存储为UTC零点
	StartDate time.Time `json:"start_date" gorm:"not null;index"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`

	ApprovedBy         *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt         *time.Time `json:"approved_at"`
	CancellationReason string     `json:"cancellation_reason" gorm:"size:500"`
	RejectionReason    string     `json:"rejection_reason" gorm:"size:500"`

	// 转借用：预约到期日转成借用单后回填
	ConvertedLoanID *string `json:"converted_loan_id" gorm:"size:32"`

	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// 预约单状态
const (
	ReservationStatusPending   = "pending"
	ReservationStatusApproved  = "approved"
	ReservationStatusActive    = "active"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusRejected  = "rejected"
	ReservationStatusExpired   = "expired"
)

// ValidReservationTransitions 合法的预约单状态流转
var ValidReservationTransitions = map[string][]string{
	ReservationStatusPending:  {ReservationStatusApproved, ReservationStatusRejected, ReservationStatusCancelled},
	ReservationStatusApproved: {ReservationStatusActive, ReservationStatusCancelled, ReservationStatusCompleted, ReservationStatusExpired},
	ReservationStatusActive:   {ReservationStatusCompleted},
}

// ReservationCompetingStatuses 仍在竞争设备时段的预约状态，
// 冲突检测只看处于这些状态的预约。
var ReservationCompetingStatuses = []string{
	ReservationStatusPending,
	ReservationStatusApproved,
	ReservationStatusActive,
}

// Overlaps 闭区间重叠判定：start1 <= end2 && start2 <= end1
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !start.After(r.EndDate)
}

// DateOnly 归一化到UTC零点，预约相关的日期比较都先过这里
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SpanDays 闭区间天数，[1号, 1号] 为1天
func SpanDays(start, end time.Time) int {
	return int(DateOnly(end).Sub(DateOnly(start)).Hours()/24) + 1
}
