package course

import (
	"strconv"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/services"
	"github.com/feocourse/feocourse-api/utils/middleware"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/feocourse/feocourse-api/utils/scope"
	"github.com/feocourse/feocourse-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CourseHandler handles course catalog requests
type CourseHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	workflow  *services.CourseWorkflowService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{
		db:        db,
		validator: validation.NewValidator(),
		workflow:  services.NewCourseWorkflowService(db),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Price       int64  `json:"price" validate:"required,min=0"`
}

// UpdateCourseRequest represents the request body for updating a course
type UpdateCourseRequest struct {
	Title       string `json:"title" validate:"omitempty,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64 `json:"price" validate:"omitempty,min=0"`
}

// ListCourses handles GET /api/v1/courses
//
// The public catalog only shows published, non-deleted courses. Admins may
// pass ?status= to browse any stage of the workflow.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	search := c.Query("search", "")
	status := model.CourseStatusPublished

	if user, ok := middleware.GetUser(c); ok && user.IsAdmin() {
		if s := c.Query("status"); s != "" {
			status = s
		}
	}

	query := h.db.Model(&model.Course{}).
		Scopes(scope.ActiveAt(time.Now())).
		Where("status = ?", status)

	if search != "" {
		query = query.Where("title ILIKE ? OR description ILIKE ?",
			"%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count courses")
	}

	offset := (page - 1) * limit
	pagination := response.CalculatePagination(page, limit, total)

	var courses []model.Course
	if err := query.Preload("Lecturer").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&courses).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, pagination)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var course model.Course
	if err := h.db.Scopes(scope.ActiveAt(time.Now())).
		Preload("Lecturer").
		First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	// Unpublished courses are only visible to their lecturer and admins
	if !course.IsPublished() {
		user, ok := middleware.GetUser(c)
		if !ok || (!user.IsAdmin() && user.ID != course.LecturerID) {
			return response.NotFound(c, "Course not found")
		}
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/v1/courses (lecturer only). New courses
// always start in draft.
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Title = validation.SanitizeString(req.Title)
	req.Description = validation.SanitizeString(req.Description)

	slug := validation.Slugify(req.Title)
	if !validation.ValidateSlug(slug) {
		return response.BadRequest(c, "Title does not produce a valid slug")
	}

	var existingCourse model.Course
	if err := h.db.Where("slug = ?", slug).First(&existingCourse).Error; err == nil {
		return response.Conflict(c, "Course with this title already exists")
	}

	course := model.Course{
		LecturerID:  user.ID,
		Title:       req.Title,
		Slug:        slug,
		Description: req.Description,
		Price:       req.Price,
		Status:      model.CourseStatusDraft,
	}

	if err := h.db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/v1/courses/:id (owning lecturer or admin)
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.Scopes(scope.ActiveAt(time.Now())).First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if !user.IsAdmin() && course.LecturerID != user.ID {
		return response.Forbidden(c, "You can only edit your own courses")
	}

	if req.Title != "" {
		course.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != "" {
		course.Description = validation.SanitizeString(req.Description)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}

	if err := h.db.Save(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to update course")
	}

	return response.SuccessWithMessage(c, "Course updated successfully", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id (admin only). An optional
// ?at=RFC3339 query schedules the deletion; the course stays listed until
// the timestamp lapses.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	id := c.Params("id")

	var course model.Course
	if err := h.db.Scopes(scope.ActiveAt(time.Now())).First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
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

	if err := h.db.Model(&course).Update("deleted_at", deleteAt).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete course")
	}

	return response.SuccessWithMessage(c, "Course deleted successfully", nil)
}
