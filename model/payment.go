package model

import (
	"time"
)

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// PaymentMethodManual is the sentinel method used by the admin
// manual-confirmation flow. Any other non-empty method string is accepted
// as-is (bank transfer codes vary per provider).
const PaymentMethodManual = "manual_confirmation"

// Payment represents an invoice for a course purchase attempt
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InvoiceID     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"invoice_id"`
	UserID        uint      `gorm:"not null;index;uniqueIndex:idx_payments_open_pair,where:status = 'pending'" json:"user_id"`
	CourseID      uint      `gorm:"not null;index;uniqueIndex:idx_payments_open_pair,where:status = 'pending'" json:"course_id"`
	Amount        int64     `gorm:"not null" json:"amount"` // course price at issue time
	Status        string    `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentMethod string    `gorm:"type:varchar(50)" json:"payment_method,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}
