package course

import (
	"errors"
	"strconv"

	"github.com/feocourse/feocourse-api/services"
	"github.com/feocourse/feocourse-api/utils/middleware"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/feocourse/feocourse-api/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// ReviewRequest carries the admin's review text
type ReviewRequest struct {
	AdminReview string `json:"admin_review" validate:"required,min=3,max=5000"`
}

func parseCourseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err
}

func workflowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrCourseNotFound):
		return response.NotFound(c, "Course not found")
	case errors.Is(err, services.ErrInvalidTransition):
		return response.Conflict(c, "Course status does not allow this action")
	case errors.Is(err, services.ErrNotCourseOwner):
		return response.Forbidden(c, "You can only submit your own courses")
	default:
		return response.InternalServerError(c, "Failed to update course status")
	}
}

// SubmitReview handles POST /api/v1/courses/:id/submit-review
// (lecturer/admin): draft → need-review
func (h *CourseHandler) SubmitReview(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := parseCourseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.workflow.SubmitForReview(c.Context(), courseID, user)
	if err != nil {
		return workflowError(c, err)
	}

	return response.SuccessWithMessage(c, "Course submitted for review", course)
}

// Review handles POST /api/v1/courses/:id/review (admin):
// need-review → reviewed, recording the review text
func (h *CourseHandler) Review(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	course, err := h.workflow.Review(c.Context(), courseID, validation.SanitizeString(req.AdminReview))
	if err != nil {
		return workflowError(c, err)
	}

	return response.SuccessWithMessage(c, "Course reviewed", course)
}

// Publish handles POST /api/v1/courses/:id/publish (admin):
// reviewed → published; repeat publishes are no-ops
func (h *CourseHandler) Publish(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.workflow.Publish(c.Context(), courseID)
	if err != nil {
		return workflowError(c, err)
	}

	return response.SuccessWithMessage(c, "Course published", course)
}
