package services

import (
	"context"
	"errors"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/utils/scope"
	"gorm.io/gorm"
)

// CourseWorkflowService drives the course review/publish status machine:
//
//	draft → need-review → reviewed → published
//
// Transitions are one-way. Publishing an already-published course is the only
// tolerated repeat and is a no-op.
type CourseWorkflowService struct {
	db *gorm.DB
}

// NewCourseWorkflowService creates a new course workflow service
func NewCourseWorkflowService(db *gorm.DB) *CourseWorkflowService {
	return &CourseWorkflowService{db: db}
}

func (s *CourseWorkflowService) loadCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).Scopes(scope.ActiveAt(time.Now())).First(&course, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// SubmitForReview moves a draft course into the review queue. Lecturers may
// only submit their own courses; admins may submit any.
func (s *CourseWorkflowService) SubmitForReview(ctx context.Context, courseID uint, actor *model.User) (*model.Course, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if actor.IsLecturer() && course.LecturerID != actor.ID {
		return nil, ErrNotCourseOwner
	}

	if course.Status != model.CourseStatusDraft {
		return nil, ErrInvalidTransition
	}

	if err := s.db.WithContext(ctx).Model(course).
		Update("status", model.CourseStatusNeedReview).Error; err != nil {
		return nil, err
	}
	course.Status = model.CourseStatusNeedReview
	return course, nil
}

// Review records the admin's review text and marks the course reviewed
func (s *CourseWorkflowService) Review(ctx context.Context, courseID uint, adminReview string) (*model.Course, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.Status != model.CourseStatusNeedReview {
		return nil, ErrInvalidTransition
	}

	if err := s.db.WithContext(ctx).Model(course).Updates(map[string]interface{}{
		"status":       model.CourseStatusReviewed,
		"admin_review": adminReview,
	}).Error; err != nil {
		return nil, err
	}
	course.Status = model.CourseStatusReviewed
	course.AdminReview = adminReview
	return course, nil
}

// Publish makes a reviewed course visible in the public catalog. Publishing
// an already-published course succeeds without writing anything.
func (s *CourseWorkflowService) Publish(ctx context.Context, courseID uint) (*model.Course, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.Status == model.CourseStatusPublished {
		return course, nil
	}
	if course.Status != model.CourseStatusReviewed {
		return nil, ErrInvalidTransition
	}

	if err := s.db.WithContext(ctx).Model(course).
		Update("status", model.CourseStatusPublished).Error; err != nil {
		return nil, err
	}
	course.Status = model.CourseStatusPublished
	return course, nil
}
