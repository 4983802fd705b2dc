package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/menttor/menttor-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity + auth
		// =========================
		&types.User{},
		&types.UserToken{},

		// =========================
		// Learning content
		// =========================
		&types.LearningPath{},
		&types.PathNode{},
		&types.LearningDoc{},
		&types.ExportRecord{},
		&types.Asset{},

		// =========================
		// Sessions + nudges
		// =========================
		&types.FocusSession{},
		&types.Nudge{},

		// =========================
		// Jobs / worker
		// =========================
		&types.JobRun{},
	)
}

// EnsureIndexes adds the partial/expression indexes AutoMigrate cannot
// express. Postgres only; the sqlite test path skips it.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	// Worker claim scan: queued/failed jobs by age, live rows only.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_claim
		ON job_run (status, created_at)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_claim: %w", err)
	}

	// One active session per user.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_focus_session_active_owner
		ON focus_session (owner_user_id)
		WHERE deleted_at IS NULL AND status IN ('active', 'paused');
	`).Error; err != nil {
		return fmt.Errorf("create idx_focus_session_active_owner: %w", err)
	}

	// Pending-nudge listing per user.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_nudge_owner_pending
		ON nudge (owner_user_id, delivered_at DESC)
		WHERE deleted_at IS NULL AND status = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_nudge_owner_pending: %w", err)
	}

	// Export history per doc.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_export_record_doc_created
		ON export_record (doc_id, created_at DESC)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_export_record_doc_created: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
