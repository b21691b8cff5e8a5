package database

import (
	"errors"
	"log"

	"github.com/feocourse/feocourse-api/model"
	"github.com/feocourse/feocourse-api/utils/auth"
	"gorm.io/gorm"
)

// Seed creates the initial admin plus demo accounts and courses. Existing
// rows (matched by email / slug) are left untouched so the seeder is safe to
// run repeatedly.
func Seed(db *gorm.DB) error {
	users := []struct {
		email    string
		name     string
		role     string
		password string
	}{
		{"admin@feocourse.local", "Platform Admin", model.RoleAdmin, "admin-change-me"},
		{"lecturer@feocourse.local", "Demo Lecturer", model.RoleLecturer, "lecturer-change-me"},
		{"student@feocourse.local", "Demo Student", model.RoleStudent, "student-change-me"},
	}

	byEmail := make(map[string]uint)
	for _, u := range users {
		var existing model.User
		err := db.Where("email = ?", u.email).First(&existing).Error
		if err == nil {
			byEmail[u.email] = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		user := model.User{
			Email:        u.email,
			Name:         u.name,
			Role:         u.role,
			PasswordHash: hash,
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		byEmail[u.email] = user.ID
		log.Printf("Seeded user %s (%s)", u.email, u.role)
	}

	lecturerID := byEmail["lecturer@feocourse.local"]
	courses := []model.Course{
		{
			LecturerID:  lecturerID,
			Title:       "Introduction to Web Development",
			Slug:        "introduction-to-web-development",
			Description: "HTML, CSS and the basics of building for the web.",
			Price:       150000,
			Status:      model.CourseStatusPublished,
		},
		{
			LecturerID:  lecturerID,
			Title:       "Relational Databases in Practice",
			Slug:        "relational-databases-in-practice",
			Description: "Schema design, queries and transactions.",
			Price:       200000,
			Status:      model.CourseStatusDraft,
		},
	}

	for _, course := range courses {
		var existing model.Course
		err := db.Where("slug = ?", course.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&course).Error; err != nil {
			return err
		}
		log.Printf("Seeded course %q (%s)", course.Title, course.Status)
	}

	return nil
}
