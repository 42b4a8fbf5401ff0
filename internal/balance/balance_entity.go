package balance

import (
	"time"

	"github.com/google/uuid"
)

// LeaveBalance is the per-employee, per-leave-type day ledger. Rows are
// created lazily on first touch and never deleted.
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_balance_employee_type"`
	LeaveType  string    `gorm:"type:varchar(30);not null;uniqueIndex:uq_balance_employee_type"`

	TotalDays   int `gorm:"type:int;not null;default:0"`
	UsedDays    int `gorm:"type:int;not null;default:0"`
	PendingDays int `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *LeaveBalance) AvailableDays() int {
	return b.TotalDays - b.UsedDays - b.PendingDays
}
