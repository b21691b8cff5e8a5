package model

import (
	"time"
)

// CronJobLog represents execution logs for background cron jobs
type CronJobLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	JobName      string     `gorm:"type:varchar(100);not null;index" json:"job_name"`
	Status       string     `gorm:"type:varchar(20);not null" json:"status"` // started, completed, failed
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	RowsAffected int64      `json:"rows_affected"`
	ErrorMsg     string     `gorm:"type:text" json:"error_msg"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName specifies the table name for CronJobLog
func (CronJobLog) TableName() string {
	return "cron_job_logs"
}
