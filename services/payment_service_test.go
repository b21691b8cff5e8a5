package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=1"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Payment{},
		&model.CourseEnrollment{},
		&model.CartItem{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	user := model.User{
		Email:        role + "-" + time.Now().Format("150405.000000000") + "@example.com",
		PasswordHash: "x",
		Name:         "Test " + role,
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedCourse(t *testing.T, db *gorm.DB, lecturerID uint, status string, price int64) *model.Course {
	t.Helper()
	course := model.Course{
		LecturerID: lecturerID,
		Title:      "Course " + status,
		Slug:       status + "-" + time.Now().Format("150405.000000000"),
		Price:      price,
		Status:     status,
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

func TestNewInvoiceID(t *testing.T) {
	id := NewInvoiceID()
	assert.True(t, strings.HasPrefix(id, "FEOC-"))
	assert.NotEqual(t, id, NewInvoiceID())
}

func TestCreateInvoice(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 150000)

	payment, err := svc.CreateInvoice(ctx, course.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, int64(150000), payment.Amount)
	assert.True(t, strings.HasPrefix(payment.InvoiceID, "FEOC-"))

	t.Run("second pending invoice rejected", func(t *testing.T) {
		_, err := svc.CreateInvoice(ctx, course.ID, student.ID)
		assert.ErrorIs(t, err, ErrPendingInvoiceExists)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.CreateInvoice(ctx, 9999, student.ID)
		assert.ErrorIs(t, err, ErrCourseNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.CreateInvoice(ctx, course.ID, 9999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unpublished course", func(t *testing.T) {
		draft := seedCourse(t, db, lecturer.ID, model.CourseStatusDraft, 100)
		_, err := svc.CreateInvoice(ctx, draft.ID, student.ID)
		assert.ErrorIs(t, err, ErrCourseNotPublished)
	})

	t.Run("already enrolled", func(t *testing.T) {
		other := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 100)
		require.NoError(t, db.Create(&model.CourseEnrollment{
			UserID:   student.ID,
			CourseID: other.ID,
			Progress: model.ProgressOngoing,
		}).Error)

		_, err := svc.CreateInvoice(ctx, other.ID, student.ID)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)

		var count int64
		db.Model(&model.Payment{}).Where("course_id = ?", other.ID).Count(&count)
		assert.Zero(t, count, "rejected invoice must not write a payment row")
	})
}

func TestCreateInvoiceDeletedCourse(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 100)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(course).Update("deleted_at", past).Error)

	_, err := svc.CreateInvoice(context.Background(), course.ID, student.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCreateInvoiceFutureDeletedCourseStillPurchasable(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 100)

	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, db.Model(course).Update("deleted_at", future).Error)

	_, err := svc.CreateInvoice(context.Background(), course.ID, student.ID)
	assert.NoError(t, err, "a deletion scheduled for later must not block purchase now")
}

func TestConfirmPayment(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 150000)

	require.NoError(t, db.Create(&model.CartItem{UserID: student.ID, CourseID: course.ID}).Error)

	invoice, err := svc.CreateInvoice(ctx, course.ID, student.ID)
	require.NoError(t, err)

	payment, err := svc.ConfirmPayment(ctx, invoice.InvoiceID, "bca")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "bca", payment.PaymentMethod)

	var enrollments []model.CourseEnrollment
	require.NoError(t, db.Where("user_id = ?", student.ID).Find(&enrollments).Error)
	require.Len(t, enrollments, 1)
	assert.Equal(t, course.ID, enrollments[0].CourseID)
	assert.Equal(t, model.ProgressOngoing, enrollments[0].Progress)

	var cartCount int64
	db.Model(&model.CartItem{}).
		Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&cartCount)
	assert.Zero(t, cartCount, "confirmation must clear the cart entry")

	t.Run("re-confirmation is a no-op", func(t *testing.T) {
		again, err := svc.ConfirmPayment(ctx, invoice.InvoiceID, "gopay")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, again.Status)
		assert.Equal(t, "bca", again.PaymentMethod, "method from the first confirmation wins")

		var count int64
		db.Model(&model.CourseEnrollment{}).Where("user_id = ?", student.ID).Count(&count)
		assert.Equal(t, int64(1), count, "no duplicate enrollment")
	})

	t.Run("unknown invoice mutates nothing", func(t *testing.T) {
		_, err := svc.ConfirmPayment(ctx, "FEOC-does-not-exist", "bca")
		assert.ErrorIs(t, err, ErrPaymentNotFound)

		var count int64
		db.Model(&model.CourseEnrollment{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func TestConfirmPaymentReactivatesDelistedEnrollment(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 150000)

	// Enrolled once, then delisted by an admin
	delisted := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.CourseEnrollment{
		UserID:     student.ID,
		CourseID:   course.ID,
		Progress:   model.ProgressCompleted,
		DelistedAt: &delisted,
	}).Error)

	// A delisted pair may buy again
	invoice, err := svc.CreateInvoice(ctx, course.ID, student.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, invoice.InvoiceID, "bca")
	require.NoError(t, err)

	var enrollment model.CourseEnrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		First(&enrollment).Error)
	assert.Nil(t, enrollment.DelistedAt, "paid user must regain access")
	assert.Equal(t, model.ProgressOngoing, enrollment.Progress, "repurchase starts over")

	var count int64
	db.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&count)
	assert.Equal(t, int64(1), count, "reactivation must not duplicate the row")
}

func TestConfirmPaymentLegacyInvoiceID(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 150000)

	// Invoices issued before the UUID switch used a bare timestamp suffix;
	// they stay confirmable because lookup is by the stored string.
	require.NoError(t, db.Create(&model.Payment{
		InvoiceID: "FEOC1700000000000",
		UserID:    student.ID,
		CourseID:  course.ID,
		Amount:    150000,
		Status:    model.PaymentStatusPending,
	}).Error)

	payment, err := svc.ConfirmPayment(context.Background(), "FEOC1700000000000", "bca")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "bca", payment.PaymentMethod)

	var count int64
	db.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPendingInvoiceUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 100)

	first, err := svc.CreateInvoice(ctx, course.ID, student.ID)
	require.NoError(t, err)

	// Simulate the concurrent request that slipped past the count guard:
	// the partial unique index on open pairs must reject the second row.
	err = db.Create(&model.Payment{
		InvoiceID: NewInvoiceID(),
		UserID:    student.ID,
		CourseID:  course.ID,
		Amount:    100,
		Status:    model.PaymentStatusPending,
	}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Once the first invoice is closed, a new pending one is allowed again
	require.NoError(t, db.Model(&model.Payment{}).
		Where("invoice_id = ?", first.InvoiceID).
		Update("status", model.PaymentStatusFailed).Error)
	_, err = svc.CreateInvoice(ctx, course.ID, student.ID)
	assert.NoError(t, err)
}

func TestConfirmPaymentFailedInvoice(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 100)

	invoice, err := svc.CreateInvoice(ctx, course.ID, student.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.Payment{}).
		Where("invoice_id = ?", invoice.InvoiceID).
		Update("status", model.PaymentStatusFailed).Error)

	_, err = svc.ConfirmPayment(ctx, invoice.InvoiceID, "bca")
	assert.ErrorIs(t, err, ErrPaymentClosed)

	var count int64
	db.Model(&model.CourseEnrollment{}).Count(&count)
	assert.Zero(t, count, "expired invoice must not enroll")
}

func TestExpireStalePending(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db)
	ctx := context.Background()

	lecturer := seedUser(t, db, model.RoleLecturer)
	student := seedUser(t, db, model.RoleStudent)
	course := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 100)

	invoice, err := svc.CreateInvoice(ctx, course.ID, student.ID)
	require.NoError(t, err)

	// Backdate the invoice past the cutoff
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, db.Model(&model.Payment{}).
		Where("invoice_id = ?", invoice.InvoiceID).
		Update("created_at", old).Error)

	affected, err := svc.ExpireStalePending(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var payment model.Payment
	require.NoError(t, db.Where("invoice_id = ?", invoice.InvoiceID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)

	t.Run("fresh invoices untouched", func(t *testing.T) {
		other := seedCourse(t, db, lecturer.ID, model.CourseStatusPublished, 100)
		fresh, err := svc.CreateInvoice(ctx, other.ID, student.ID)
		require.NoError(t, err)

		affected, err := svc.ExpireStalePending(ctx, 48*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, affected)

		var payment model.Payment
		require.NoError(t, db.Where("invoice_id = ?", fresh.InvoiceID).First(&payment).Error)
		assert.Equal(t, model.PaymentStatusPending, payment.Status)
	})
}
