package model

import (
	"time"
)

// Enrollment progress values
const (
	ProgressOngoing   = "ongoing"
	ProgressCompleted = "completed"
)

// CourseEnrollment grants a student access to a course. A row exists only
// after the matching payment was confirmed; the composite primary key keeps
// the pair unique.
type CourseEnrollment struct {
	UserID     uint       `gorm:"primaryKey" json:"user_id"`
	CourseID   uint       `gorm:"primaryKey" json:"course_id"`
	Progress   string     `gorm:"type:varchar(20);default:'ongoing'" json:"progress"`
	EnrolledAt time.Time  `gorm:"autoCreateTime" json:"enrolled_at"`
	DelistedAt *time.Time `json:"delisted_at,omitempty"` // set by admin to revoke access without deleting history

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

// TableName specifies the table name for CourseEnrollment
func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}

// Active reports whether the enrollment still grants access
func (e *CourseEnrollment) Active() bool {
	return e.DelistedAt == nil
}
