package cron

import (
	"log"
	"time"

	"github.com/feocourse/feocourse-api/model"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled background jobs
type CronManager struct {
	cron          *cron.Cron
	db            *gorm.DB
	pendingMaxAge time.Duration
}

// NewCronManager creates a new cron manager. pendingMaxAge controls how long
// an unpaid invoice stays pending before it is expired.
func NewCronManager(db *gorm.DB, pendingMaxAge time.Duration) *CronManager {
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:          c,
		db:            db,
		pendingMaxAge: pendingMaxAge,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 15 minutes: expire stale pending invoices
	_, err := m.cron.AddFunc("0 */15 * * * *", func() {
		m.ExpireStaleInvoices()
	})
	if err != nil {
		return err
	}

	// Hourly: prune expired token blacklist rows
	_, err = m.cron.AddFunc("0 0 * * * *", func() {
		m.PruneTokenBlacklist()
	})
	return err
}

// logJobStart inserts a started CronJobLog row and returns it for completion
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    "started",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(entry).Error; err != nil {
		log.Printf("Failed to log start of job %s: %v", jobName, err)
		return nil
	}
	return entry
}

// logJobDone marks a CronJobLog row completed or failed
func (m *CronManager) logJobDone(entry *model.CronJobLog, rows int64, jobErr error) {
	if entry == nil {
		return
	}
	now := time.Now()
	entry.CompletedAt = &now
	entry.RowsAffected = rows
	if jobErr != nil {
		entry.Status = "failed"
		entry.ErrorMsg = jobErr.Error()
	} else {
		entry.Status = "completed"
	}
	if err := m.db.Save(entry).Error; err != nil {
		log.Printf("Failed to log completion of job %s: %v", entry.JobName, err)
	}
}
