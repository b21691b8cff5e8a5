package admin

import (
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/feocourse/feocourse-api/utils/scope"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DashboardHandler handles admin dashboard requests
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GetDashboard returns platform-wide counts for the admin dashboard
// GET /admin/dashboard
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	now := time.Now()

	var totalUsers, totalLecturers, totalStudents int64
	h.db.Model(&model.User{}).Scopes(scope.ActiveAt(now)).Count(&totalUsers)
	h.db.Model(&model.User{}).Scopes(scope.ActiveAt(now)).Where("role = ?", model.RoleLecturer).Count(&totalLecturers)
	h.db.Model(&model.User{}).Scopes(scope.ActiveAt(now)).Where("role = ?", model.RoleStudent).Count(&totalStudents)

	var coursesByStatus []statusCount
	if err := h.db.Model(&model.Course{}).
		Scopes(scope.ActiveAt(now)).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&coursesByStatus).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch course statistics")
	}

	var paymentsByStatus []statusCount
	if err := h.db.Model(&model.Payment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&paymentsByStatus).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch payment statistics")
	}

	var revenue int64
	h.db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&revenue)

	var activeEnrollments int64
	h.db.Model(&model.CourseEnrollment{}).Where("delisted_at IS NULL").Count(&activeEnrollments)

	var enrollmentsThisWeek int64
	h.db.Model(&model.CourseEnrollment{}).
		Where("enrolled_at >= ? AND delisted_at IS NULL", now.AddDate(0, 0, -7)).
		Count(&enrollmentsThisWeek)

	return response.Success(c, fiber.Map{
		"users": fiber.Map{
			"total":     totalUsers,
			"lecturers": totalLecturers,
			"students":  totalStudents,
		},
		"courses_by_status":  coursesByStatus,
		"payments_by_status": paymentsByStatus,
		"revenue":            revenue,
		"enrollments": fiber.Map{
			"active":    activeEnrollments,
			"this_week": enrollmentsThisWeek,
		},
	})
}

// ListAuditLogs returns paginated admin audit log entries
// GET /admin/audit
func (h *DashboardHandler) ListAuditLogs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.AdminAuditLog{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// ListCronJobLogs returns recent cron job runs for operational visibility
// GET /admin/cron-logs
func (h *DashboardHandler) ListCronJobLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var logs []model.CronJobLog
	query := h.db.Order("started_at DESC").Limit(limit)
	if job := c.Query("job"); job != "" {
		query = query.Where("job_name = ?", job)
	}
	if err := query.Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch cron job logs")
	}

	return response.Success(c, logs)
}
