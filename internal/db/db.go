package db

import (
	"fmt"

	"github.com/rehmanul/BOT-Friday-sub000/internal/auth"
	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&campaign.Campaign{},
		&campaign.Creator{},
		&campaign.Invitation{},
		&campaign.ActivityLog{},
		&campaign.PortalSession{},
	); err != nil {
		return err
	}

	// One creator handle per user
	if err := gdb.Exec(`create unique index if not exists uq_creators_user_handle on creators(user_id, handle);`).Error; err != nil {
		return err
	}

	// One invitation per campaign-creator pairing
	if err := gdb.Exec(`create unique index if not exists uq_invitations_campaign_creator on invitations(campaign_id, creator_id);`).Error; err != nil {
		return err
	}

	// Niche filters (GIN for text[])
	if err := gdb.Exec(`create index if not exists idx_creators_niches on creators using gin (niches);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_campaigns_user_status on campaigns(user_id, status);`,
		`create index if not exists idx_invitations_queue on invitations(campaign_id, status, created_at);`,
		`create index if not exists idx_activity_user_created on activity_logs(user_id, created_at desc);`,
		`create index if not exists idx_activity_campaign on activity_logs(campaign_id, id);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
