package admin

import (
	"strconv"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/utils/auth"
	"github.com/feocourse/feocourse-api/utils/middleware"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/feocourse/feocourse-api/utils/scope"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserHandler handles admin user management requests
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler creates a new admin user handler
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Role   string `query:"role"`
	Search string `query:"search"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ResetPasswordRequest represents the request for admin password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ListUsers retrieves users with pagination, role filter and search.
// Search hits rank email matches above name matches.
// GET /admin/users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := h.db.Model(&model.User{}).Scopes(scope.ActiveAt(time.Now()))

	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}

	if req.Search != "" {
		term := "%" + req.Search + "%"
		query = query.
			Where("email ILIKE ? OR name ILIKE ?", term, term).
			// Email hits outrank name hits so exact-account lookups come first
			Order(clause.OrderBy{Expression: gorm.Expr(
				"CASE WHEN email ILIKE ? THEN 0 WHEN name ILIKE ? THEN 1 ELSE 2 END, created_at DESC", term, term)})
	} else {
		query = query.Order("created_at DESC")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	if err := query.
		Offset(offset).
		Limit(req.Limit).
		Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	for i := range users {
		users[i].PasswordHash = ""
	}

	pagination := response.CalculatePagination(req.Page, req.Limit, total)
	return response.Paginated(c, users, pagination)
}

// GetUser retrieves a specific user with enrollment and payment counts
// GET /admin/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var stats struct {
		TotalEnrollments  int64 `json:"total_enrollments"`
		ActiveEnrollments int64 `json:"active_enrollments"`
		CompletedPayments int64 `json:"completed_payments"`
		PendingInvoices   int64 `json:"pending_invoices"`
	}
	h.db.Model(&model.CourseEnrollment{}).Where("user_id = ?", userID).Count(&stats.TotalEnrollments)
	h.db.Model(&model.CourseEnrollment{}).Where("user_id = ? AND delisted_at IS NULL", userID).Count(&stats.ActiveEnrollments)
	h.db.Model(&model.Payment{}).Where("user_id = ? AND status = ?", userID, model.PaymentStatusCompleted).Count(&stats.CompletedPayments)
	h.db.Model(&model.Payment{}).Where("user_id = ? AND status = ?", userID, model.PaymentStatusPending).Count(&stats.PendingInvoices)

	user.PasswordHash = ""

	return response.SuccessWithMessage(c, "User retrieved successfully", fiber.Map{
		"user":  user,
		"stats": stats,
	})
}

// UpdateUser updates a user's information
// PUT /admin/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		var existingUser model.User
		if err := h.db.Where("email = ? AND id != ?", req.Email, userID).First(&existingUser).Error; err == nil {
			return response.Conflict(c, "Email already in use")
		}
		updates["email"] = req.Email
	}
	if req.Role != "" {
		if req.Role != model.RoleStudent && req.Role != model.RoleLecturer && req.Role != model.RoleAdmin {
			return response.BadRequest(c, "Invalid role")
		}
		updates["role"] = req.Role
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	h.db.First(&user, userID)
	user.PasswordHash = ""

	return response.SuccessWithMessage(c, "User updated successfully", fiber.Map{"user": user})
}

// DeleteUser soft deletes a user; an optional ?at=RFC3339 query schedules
// the deletion for a future time
// DELETE /admin/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if admin, ok := middleware.GetUser(c); ok && admin.ID == uint(userID) {
		return response.BadRequest(c, "Cannot delete your own account")
	}

	var user model.User
	if err := h.db.Scopes(scope.ActiveAt(time.Now())).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	deleteAt := time.Now()
	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return response.BadRequest(c, "Invalid 'at' timestamp, expected RFC3339")
		}
		if parsed.Before(deleteAt) {
			return response.BadRequest(c, "Scheduled deletion must be in the future")
		}
		deleteAt = parsed
	}

	if err := h.db.Model(&user).Update("deleted_at", deleteAt).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.SuccessWithMessage(c, "User deleted successfully", fiber.Map{"user_id": userID})
}

// ResetUserPassword resets a user's password and invalidates all of
// their sessions via the token version
// POST /admin/users/:id/reset-password
func (h *UserHandler) ResetUserPassword(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if len(req.NewPassword) < 8 {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to hash password")
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": user.TokenVersion + 1,
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.SuccessWithMessage(c, "Password reset successfully", fiber.Map{
		"user_id": userID,
		"message": "All user sessions have been invalidated",
	})
}
