package entity

import "time"

// Loan 借用单：一个用户对一台设备的借用记录
type Loan struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	EquipmentID string `json:"equipment_id" gorm:"size:32;not null;index"`
	UserID      string `json:"user_id" gorm:"size:32;not null;index"`

	Status string `json:"status" gorm:"size:20;default:pending;index"` // pending/approved/returned/rejected/overdue

	RequestedAt        time.Time  `json:"requested_at"`
	ApprovedBy         *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt         *time.Time `json:"approved_at"`
	ExpectedReturnDate time.Time  `json:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date"`
	RejectionReason    string     `json:"rejection_reason" gorm:"size:500"`

	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Equipment *Equipment `json:"equipment,omitempty" gorm:"foreignKey:EquipmentID"`
}

func (Loan) TableName() string {
	return "loans"
}

// 借用单状态
const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusReturned = "returned"
	LoanStatusRejected = "rejected"
	LoanStatusOverdue  = "overdue"
)

// ValidLoanTransitions 合法的借用单状态流转
var ValidLoanTransitions = map[string][]string{
	LoanStatusPending:  {LoanStatusApproved, LoanStatusRejected},
	LoanStatusApproved: {LoanStatusReturned, LoanStatusOverdue},
	LoanStatusOverdue:  {LoanStatusReturned},
}

// LoanOpenStatuses 仍然占用（或竞争）设备的借用单状态。
// 同一台设备同一时刻最多只有一张处于这些状态的借用单。
var LoanOpenStatuses = []string{LoanStatusPending, LoanStatusApproved, LoanStatusOverdue}
