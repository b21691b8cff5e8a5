package cron

import (
	"context"
	"log"
	"time"

	"github.com/feocourse/feocourse-api/services"
	"github.com/feocourse/feocourse-api/utils/auth"
)

const jobTimeout = 2 * time.Minute

// ExpireStaleInvoices marks pending payments older than the configured age
// as failed. Without this, abandoned checkouts would hold their course/user
// pair open forever since invoice creation refuses duplicates.
func (m *CronManager) ExpireStaleInvoices() {
	entry := m.logJobStart("expire_stale_invoices")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	rows, err := services.NewPaymentService(m.db).ExpireStalePending(ctx, m.pendingMaxAge)
	if err != nil {
		log.Printf("expire_stale_invoices failed: %v", err)
	} else if rows > 0 {
		log.Printf("expire_stale_invoices: expired %d invoice(s)", rows)
	}

	m.logJobDone(entry, rows, err)
}

// PruneTokenBlacklist removes blacklist rows whose tokens already expired
func (m *CronManager) PruneTokenBlacklist() {
	entry := m.logJobStart("prune_token_blacklist")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	rows, err := auth.NewBlacklistService(m.db).PruneExpired(ctx)
	if err != nil {
		log.Printf("prune_token_blacklist failed: %v", err)
	}

	m.logJobDone(entry, rows, err)
}
