package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/utils/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoicePrefix is prepended to every generated invoice ID so invoices stay
// recognizable in bank-transfer references.
const InvoicePrefix = "FEOC"

// NewInvoiceID generates a collision-resistant, human-prefixed invoice ID.
func NewInvoiceID() string {
	return fmt.Sprintf("%s-%s", InvoicePrefix, uuid.NewString())
}

// PaymentService owns the invoice → confirmation → enrollment lifecycle.
// Payments move pending → completed on confirmation, or pending → failed when
// the stale-invoice job expires them.
type PaymentService struct {
	db *gorm.DB
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

// CreateInvoice issues a pending payment for a (course, user) pair. The
// amount is fixed to the course price at issue time so later price changes
// never affect an open invoice.
func (s *PaymentService) CreateInvoice(ctx context.Context, courseID, userID uint) (*model.Payment, error) {
	now := time.Now()
	db := s.db.WithContext(ctx)

	var course model.Course
	if err := db.Scopes(scope.ActiveAt(now)).First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsPublished() {
		return nil, ErrCourseNotPublished
	}

	var user model.User
	if err := db.Scopes(scope.ActiveAt(now)).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var enrolled int64
	if err := db.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND delisted_at IS NULL", userID, courseID).
		Count(&enrolled).Error; err != nil {
		return nil, err
	}
	if enrolled > 0 {
		return nil, ErrAlreadyEnrolled
	}

	// One open invoice per pair; a double-submitted checkout reuses the
	// first invoice instead of issuing a second one.
	var pending int64
	if err := db.Model(&model.Payment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.PaymentStatusPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, ErrPendingInvoiceExists
	}

	payment := model.Payment{
		InvoiceID: NewInvoiceID(),
		UserID:    userID,
		CourseID:  courseID,
		Amount:    course.Price,
		Status:    model.PaymentStatusPending,
	}
	if err := db.Create(&payment).Error; err != nil {
		// The partial unique index on open (user, course) pairs catches the
		// race the count above cannot: two concurrent first requests.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPendingInvoiceExists
		}
		return nil, err
	}

	return &payment, nil
}

// ConfirmPayment transitions a pending payment to completed, creates the
// enrollment and clears the matching cart entry — all inside one transaction
// so a mid-sequence failure rolls every write back. Confirming an
// already-completed invoice is a no-op that returns the existing payment.
func (s *PaymentService) ConfirmPayment(ctx context.Context, invoiceID, paymentMethod string) (*model.Payment, error) {
	var payment model.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			// Row lock serializes concurrent confirmations of the same
			// invoice; sqlite (used in tests) has no row-level locks.
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("invoice_id = ?", invoiceID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if payment.Status == model.PaymentStatusCompleted {
			return nil // idempotent re-confirmation
		}
		if payment.Status == model.PaymentStatusFailed {
			return ErrPaymentClosed
		}

		if err := tx.Model(&payment).Updates(map[string]interface{}{
			"status":         model.PaymentStatusCompleted,
			"payment_method": paymentMethod,
		}).Error; err != nil {
			return err
		}
		payment.Status = model.PaymentStatusCompleted
		payment.PaymentMethod = paymentMethod

		// A leftover row for the pair means the user was delisted and is
		// buying again; reactivate it so the completed payment always maps
		// to an active enrollment.
		enrollment := model.CourseEnrollment{
			UserID:     payment.UserID,
			CourseID:   payment.CourseID,
			Progress:   model.ProgressOngoing,
			EnrolledAt: time.Now(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"progress":    model.ProgressOngoing,
				"delisted_at": nil,
				"enrolled_at": enrollment.EnrolledAt,
			}),
		}).Create(&enrollment).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ? AND course_id = ?", payment.UserID, payment.CourseID).
			Delete(&model.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// GetInvoice returns a payment with its course and user projections loaded
func (s *PaymentService) GetInvoice(ctx context.Context, invoiceID string) (*model.Payment, error) {
	var payment model.Payment
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Course").
		Where("invoice_id = ?", invoiceID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// ExpireStalePending marks pending payments older than maxAge as failed and
// returns how many rows were affected. Called from the cron manager.
func (s *PaymentService) ExpireStalePending(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := s.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Update("status", model.PaymentStatusFailed)
	return result.RowsAffected, result.Error
}
