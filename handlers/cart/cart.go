package cart

import (
	"strconv"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/utils/middleware"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/feocourse/feocourse-api/utils/scope"
	"github.com/feocourse/feocourse-api/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CartHandler handles cart requests
type CartHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// AddToCartRequest represents the request body for adding a course to the cart
type AddToCartRequest struct {
	CourseID uint `json:"course_id" validate:"required,min=1"`
}

// ListCart handles GET /api/v1/cart
func (h *CartHandler) ListCart(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var items []model.CartItem
	if err := h.db.Preload("Course").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch cart")
	}

	return response.Success(c, items)
}

// AddToCart handles POST /api/v1/cart
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var course model.Course
	if err := h.db.Scopes(scope.ActiveAt(time.Now())).First(&course, req.CourseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}
	if !course.IsPublished() {
		return response.BadRequest(c, "Course is not open for enrollment")
	}

	var enrolled int64
	if err := h.db.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND delisted_at IS NULL", user.ID, req.CourseID).
		Count(&enrolled).Error; err != nil {
		return response.InternalServerError(c, "Failed to check enrollment")
	}
	if enrolled > 0 {
		return response.Conflict(c, "You are already enrolled in this course")
	}

	var existing model.CartItem
	if err := h.db.Where("user_id = ? AND course_id = ?", user.ID, req.CourseID).
		First(&existing).Error; err == nil {
		return response.Conflict(c, "Course is already in your cart")
	}

	item := model.CartItem{
		UserID:   user.ID,
		CourseID: req.CourseID,
	}
	if err := h.db.Create(&item).Error; err != nil {
		return response.InternalServerError(c, "Failed to add course to cart")
	}

	return response.Created(c, item)
}

// RemoveFromCart handles DELETE /api/v1/cart/:course_id
func (h *CartHandler) RemoveFromCart(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("course_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	result := h.db.Where("user_id = ? AND course_id = ?", user.ID, courseID).
		Delete(&model.CartItem{})
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to remove course from cart")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Course is not in your cart")
	}

	return response.SuccessWithMessage(c, "Course removed from cart", nil)
}
