package enrollment

import (
	"strconv"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/utils/middleware"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// EnrollmentHandler handles enrollment requests
type EnrollmentHandler struct {
	db *gorm.DB
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB) *EnrollmentHandler {
	return &EnrollmentHandler{db: db}
}

// ListMyEnrollments handles GET /api/v1/enrollments, the student dashboard
// listing of active enrollments
func (h *EnrollmentHandler) ListMyEnrollments(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var enrollments []model.CourseEnrollment
	if err := h.db.Preload("Course").
		Where("user_id = ? AND delisted_at IS NULL", user.ID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}

// CompleteCourse handles POST /api/v1/enrollments/:course_id/complete,
// letting a student mark their enrollment finished
func (h *EnrollmentHandler) CompleteCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var enrollment model.CourseEnrollment
	if err := h.db.Where("user_id = ? AND course_id = ? AND delisted_at IS NULL", user.ID, courseID).
		First(&enrollment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if enrollment.Progress == model.ProgressCompleted {
		return response.SuccessWithMessage(c, "Course already completed", enrollment)
	}

	if err := h.db.Model(&enrollment).Update("progress", model.ProgressCompleted).Error; err != nil {
		return response.InternalServerError(c, "Failed to update enrollment")
	}
	enrollment.Progress = model.ProgressCompleted

	return response.SuccessWithMessage(c, "Course marked as completed", enrollment)
}

// DelistEnrollment handles POST /api/v1/admin/enrollments/:user_id/:course_id/delist
// (admin only), revoking access while keeping the purchase history
func (h *EnrollmentHandler) DelistEnrollment(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("user_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}
	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var enrollment model.CourseEnrollment
	if err := h.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}

	if enrollment.DelistedAt != nil {
		return response.Conflict(c, "Enrollment is already delisted")
	}

	now := time.Now()
	if err := h.db.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Update("delisted_at", now).Error; err != nil {
		return response.InternalServerError(c, "Failed to delist enrollment")
	}
	enrollment.DelistedAt = &now

	return response.SuccessWithMessage(c, "Enrollment delisted", enrollment)
}
