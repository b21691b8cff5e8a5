package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto the
// HTTP error taxonomy; anything else is treated as an internal error.
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrCourseNotPublished   = errors.New("course is not published")
	ErrAlreadyEnrolled      = errors.New("user is already enrolled in this course")
	ErrPendingInvoiceExists = errors.New("a pending invoice already exists for this course")
	ErrPaymentClosed        = errors.New("payment is no longer confirmable")
	ErrInvalidTransition    = errors.New("invalid course status transition")
	ErrNotCourseOwner       = errors.New("course belongs to another lecturer")
)
