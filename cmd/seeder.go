package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with an admin account and sample users for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)

		seedUsers := []struct {
			DisplayID string
			Email     string
			Name      string
			Role      string
		}{
			{"User-000001", "admin@clinic.local", "System Admin", "admin"},
			{"User-000002", "approver@clinic.local", "Approvals Lead", "approver"},
			{"User-000003", "staff@clinic.local", "Front Desk", "staff"},
		}

		for _, u := range seedUsers {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", u.Email)
				continue
			}

			if err := db.Exec(
				"INSERT INTO users (display_id, email, name, role, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
				u.DisplayID, u.Email, u.Name, u.Role, string(hash),
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("seeded user %s (%s)\n", u.Email, u.Role)
		}

		// reserve the display ids consumed by the seed users
		if err := db.Exec(
			"INSERT INTO display_id_counters (entity_name, current_value) VALUES ('User', ?) ON CONFLICT (entity_name) DO UPDATE SET current_value = GREATEST(display_id_counters.current_value, ?)",
			len(seedUsers), len(seedUsers),
		).Error; err != nil {
			log.Fatalf("failed to seed display id counter: %v", err)
		}

		fmt.Println("seeding complete")
	},
}
