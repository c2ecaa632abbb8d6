package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/rfagundes/zapblast/internal/config"
	"github.com/rfagundes/zapblast/internal/db"
	"github.com/rfagundes/zapblast/internal/util"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a demo instance, audience and campaign",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo data...")

		if err := seedDemo(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

// seedDemo inserts one instance, one audience with contacts, and one draft
// campaign with two message variants. Idempotent via fixed names.
func seedDemo(dbx *sqlx.DB) error {
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()

	instanceID := util.New()
	if _, err := tx.Exec(`
INSERT INTO instances (id, name, status, created_at, updated_at)
VALUES (?, 'demo', 'disconnected', ?, ?)
ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at), id = id
`, instanceID, now, now); err != nil {
		return fmt.Errorf("insert instance: %w", err)
	}
	if err := tx.Get(&instanceID, `SELECT id FROM instances WHERE name = 'demo'`); err != nil {
		return fmt.Errorf("select instance: %w", err)
	}

	audienceID := util.New()
	if _, err := tx.Exec(`
INSERT INTO audiences (id, name, description, total_contacts, active_contacts, created_at, updated_at)
VALUES (?, 'demo-audience', 'seeded demo list', 0, 0, ?, ?)
ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at), id = id
`, audienceID, now, now); err != nil {
		return fmt.Errorf("insert audience: %w", err)
	}
	if err := tx.Get(&audienceID, `SELECT id FROM audiences WHERE name = 'demo-audience'`); err != nil {
		return fmt.Errorf("select audience: %w", err)
	}

	// deterministic demo contacts: 10 and 11 digit Brazilian numbers, one
	// never probed (has_whatsapp NULL)
	contacts := []struct {
		name, phone string
		hasWA       any
	}{
		{"Ana", "11987654321", true},
		{"Bruno", "2198765432", true}, // 10-digit, formatter inserts the 9
		{"Carla", "31912345678", nil}, // unverified
		{"Diego", "41987651234", false},
	}
	for _, c := range contacts {
		if _, err := tx.Exec(`
INSERT INTO contacts (id, audience_id, name, phone, has_whatsapp, status, created_at, updated_at)
SELECT ?, ?, ?, ?, ?, 'active', ?, ?
WHERE NOT EXISTS (SELECT 1 FROM contacts WHERE audience_id = ? AND phone = ?)
`, util.New(), audienceID, c.name, c.phone, c.hasWA, now, now, audienceID, c.phone); err != nil {
			return fmt.Errorf("insert contact %q: %w", c.name, err)
		}
	}

	if _, err := tx.Exec(`
UPDATE audiences a SET
  total_contacts  = (SELECT COUNT(*) FROM contacts c WHERE c.audience_id = a.id),
  active_contacts = (SELECT COUNT(*) FROM contacts c WHERE c.audience_id = a.id AND c.status = 'active')
WHERE a.id = ?
`, audienceID); err != nil {
		return fmt.Errorf("recount audience: %w", err)
	}

	campaignID := util.New()
	if _, err := tx.Exec(`
INSERT INTO campaigns
    (id, name, description, instance_id, audience_id, status, message_type,
     delay_min, delay_max, typing_delay_min, typing_delay_max, created_at, updated_at)
VALUES
    (?, 'demo-campaign', 'seeded demo campaign', ?, ?, 'draft', 'text', 3, 8, 500, 1500, ?, ?)
ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at), id = id
`, campaignID, instanceID, audienceID, now, now); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	if err := tx.Get(&campaignID, `SELECT id FROM campaigns WHERE name = 'demo-campaign'`); err != nil {
		return fmt.Errorf("select campaign: %w", err)
	}

	variants := []string{
		"{Oi|Olá|E aí}, tudo {bem|certo}?",
		"{Temos|Chegou} uma {novidade|oferta} para você!",
	}
	for i, text := range variants {
		if _, err := tx.Exec(`
INSERT INTO campaign_messages (id, campaign_id, message_text, order_index, created_at)
SELECT ?, ?, ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM campaign_messages WHERE campaign_id = ? AND order_index = ?)
`, util.New(), campaignID, text, i, now, campaignID, i); err != nil {
			return fmt.Errorf("insert message variant %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
