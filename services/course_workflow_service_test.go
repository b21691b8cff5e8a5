package services

import (
	"context"
	"testing"

	"github.com/feocourse/feocourse-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitForReview(t *testing.T) {
	db := newTestDB(t)
	svc := NewCourseWorkflowService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	other := seedUser(t, db, model.RoleLecturer)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusDraft, 100)

	t.Run("foreign lecturer rejected", func(t *testing.T) {
		_, err := svc.SubmitForReview(ctx, course.ID, other)
		assert.ErrorIs(t, err, ErrNotCourseOwner)
	})

	t.Run("owner submits", func(t *testing.T) {
		updated, err := svc.SubmitForReview(ctx, course.ID, lecturer)
		require.NoError(t, err)
		assert.Equal(t, model.CourseStatusNeedReview, updated.Status)
	})

	t.Run("resubmission rejected", func(t *testing.T) {
		_, err := svc.SubmitForReview(ctx, course.ID, lecturer)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("admin may submit any draft", func(t *testing.T) {
		admin := seedUser(t, db, model.RoleAdmin)
		draft := seedCourse(t, db, lecturer.ID, model.CourseStatusDraft, 100)
		updated, err := svc.SubmitForReview(ctx, draft.ID, admin)
		require.NoError(t, err)
		assert.Equal(t, model.CourseStatusNeedReview, updated.Status)
	})
}

func TestReviewAndPublishChain(t *testing.T) {
	db := newTestDB(t)
	svc := NewCourseWorkflowService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusDraft, 100)

	// draft can neither be reviewed nor published directly
	_, err := svc.Review(ctx, course.ID, "looks good")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Publish(ctx, course.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.SubmitForReview(ctx, course.ID, lecturer)
	require.NoError(t, err)

	reviewed, err := svc.Review(ctx, course.ID, "curriculum checks out")
	require.NoError(t, err)
	assert.Equal(t, model.CourseStatusReviewed, reviewed.Status)
	assert.Equal(t, "curriculum checks out", reviewed.AdminReview)

	published, err := svc.Publish(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CourseStatusPublished, published.Status)

	t.Run("double publish is a no-op", func(t *testing.T) {
		again, err := svc.Publish(ctx, course.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CourseStatusPublished, again.Status)
	})

	t.Run("published course cannot move backwards", func(t *testing.T) {
		_, err := svc.SubmitForReview(ctx, course.ID, lecturer)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = svc.Review(ctx, course.ID, "second thoughts")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestWorkflowUnknownCourse(t *testing.T) {
	db := newTestDB(t)
	svc := NewCourseWorkflowService(db)
	ctx := context.Background()

	admin := seedUser(t, db, model.RoleAdmin)

	_, err := svc.SubmitForReview(ctx, 404, admin)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = svc.Review(ctx, 404, "x")
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = svc.Publish(ctx, 404)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
