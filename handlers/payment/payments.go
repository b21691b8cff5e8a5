package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/services"
	"github.com/feocourse/feocourse-api/utils/cache"
	"github.com/feocourse/feocourse-api/utils/middleware"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/feocourse/feocourse-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const invoiceCacheTTL = 5 * time.Minute

// PaymentHandler handles invoice and payment confirmation requests
type PaymentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	payments  *services.PaymentService
	cache     *cache.RedisCache // optional; nil disables invoice caching
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, redisCache *cache.RedisCache) *PaymentHandler {
	return &PaymentHandler{
		db:        db,
		validator: validation.NewValidator(),
		payments:  services.NewPaymentService(db),
		cache:     redisCache,
	}
}

// CreateInvoiceRequest represents the request body for issuing an invoice
type CreateInvoiceRequest struct {
	CourseID uint `json:"course_id" validate:"required,min=1"`
	UserID   uint `json:"user_id" validate:"omitempty,min=1"`
}

// ProcessPaymentRequest represents the request body for confirming a payment
type ProcessPaymentRequest struct {
	InvoiceID     string `json:"invoice_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,max=50"`
}

// InvoiceResponse is the projection returned for invoice endpoints
type InvoiceResponse struct {
	InvoiceID string    `json:"invoice_id"`
	PaymentID uint      `json:"payment_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toInvoiceResponse(p *model.Payment) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID: p.InvoiceID,
		PaymentID: p.ID,
		Amount:    p.Amount,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

func invoiceCacheKey(invoiceID string) string {
	return fmt.Sprintf("invoice:%s", invoiceID)
}

// CreateInvoice handles POST /api/v1/payments/invoice. Students buy for
// themselves; admins may pass user_id to issue on behalf of a user.
func (h *PaymentHandler) CreateInvoice(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	userID := user.ID
	if req.UserID != 0 && req.UserID != user.ID {
		if !user.IsAdmin() {
			return response.Forbidden(c, "Only admins can issue invoices for other users")
		}
		userID = req.UserID
	}

	payment, err := h.payments.CreateInvoice(c.Context(), req.CourseID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			return response.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrCourseNotPublished):
			return response.BadRequest(c, "Course is not open for enrollment")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "User is already enrolled in this course")
		case errors.Is(err, services.ErrPendingInvoiceExists):
			return response.Conflict(c, "An unpaid invoice already exists for this course")
		default:
			return response.InternalServerError(c, "Failed to create invoice")
		}
	}

	return response.Created(c, toInvoiceResponse(payment))
}

// ProcessPayment handles POST /api/v1/payments/process. Re-processing a
// completed invoice succeeds without side effects.
func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	var req ProcessPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	payment, err := h.payments.ConfirmPayment(c.Context(), req.InvoiceID, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Invoice not found")
		case errors.Is(err, services.ErrPaymentClosed):
			return response.Conflict(c, "Invoice has expired and can no longer be paid")
		default:
			return response.InternalServerError(c, "Failed to process payment")
		}
	}

	// The cached projection is stale after a status change
	if h.cache != nil {
		h.cache.Delete(c.Context(), invoiceCacheKey(req.InvoiceID))
	}

	return response.SuccessWithMessage(c, "Payment confirmed", toInvoiceResponse(payment))
}

// GetInvoice handles GET /api/v1/payments/invoice/:invoiceId, returning the
// payment with its course and user projections
func (h *PaymentHandler) GetInvoice(c *fiber.Ctx) error {
	invoiceID := c.Params("invoiceId")
	if invoiceID == "" {
		return response.BadRequest(c, "Invoice ID is required")
	}

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	if h.cache != nil {
		var cached model.Payment
		if err := h.cache.GetJSON(c.Context(), invoiceCacheKey(invoiceID), &cached); err == nil {
			if cached.UserID == user.ID || user.IsAdmin() {
				return response.Success(c, cached)
			}
		}
	}

	payment, err := h.payments.GetInvoice(c.Context(), invoiceID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Invoice not found")
		}
		return response.InternalServerError(c, "Failed to fetch invoice")
	}

	if payment.UserID != user.ID && !user.IsAdmin() {
		return response.Forbidden(c, "This invoice belongs to another user")
	}

	if h.cache != nil {
		h.cache.SetJSON(c.Context(), invoiceCacheKey(invoiceID), payment, invoiceCacheTTL)
	}

	return response.Success(c, payment)
}
