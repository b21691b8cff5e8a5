package model

import (
	"time"
)

// Course statuses for the review/publish workflow
const (
	CourseStatusDraft      = "draft"
	CourseStatusNeedReview = "need-review"
	CourseStatusReviewed   = "reviewed"
	CourseStatusPublished  = "published"
)

// Course represents a purchasable course in the catalog
type Course struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"-"` // nullable; a future timestamp schedules the deletion
	LecturerID  uint       `gorm:"not null;index" json:"lecturer_id"`
	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	Price       int64      `gorm:"not null;default:0" json:"price"` // smallest currency unit
	Status      string     `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	AdminReview string     `gorm:"type:text" json:"admin_review,omitempty"`

	// Relationships
	Lecturer    User               `gorm:"foreignKey:LecturerID;constraint:OnDelete:CASCADE" json:"lecturer,omitempty"`
	Enrollments []CourseEnrollment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Payments    []Payment          `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsPublished reports whether the course is visible in the public catalog
func (c *Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}
