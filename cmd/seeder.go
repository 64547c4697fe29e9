package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminEmail := "admin@rotaworks.test"
		var exists int
		if err := db.QueryRow("SELECT 1 FROM users WHERE email = $1", adminEmail).Scan(&exists); err == nil {
			fmt.Println("admin user already exists:", adminEmail)
		} else {
			if _, err := db.Exec(
				"INSERT INTO users (email, name, password_hash, is_admin, is_active, created_at, updated_at) VALUES ($1, $2, $3, true, true, now(), now())",
				adminEmail, "Site Admin", string(hash)); err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminEmail)
		}

		permissions := []struct {
			Key  string
			Name string
			Desc string
			App  string
		}{
			{"rota.view", "View rotas", "Can view published rotas", "rota"},
			{"rota.manage", "Manage rotas", "Can create and publish rotas", "rota"},
			{"timesheet.view", "View timesheets", "Can view own timesheets", "timesheet"},
			{"timesheet.approve", "Approve timesheets", "Can approve department timesheets", "timesheet"},
			{"directory.view", "View directory", "Can browse the staff directory", "directory"},
		}

		for _, p := range permissions {
			if _, err := db.Exec(`
INSERT INTO permissions (permission_key, permission_name, permission_description, app_name, created_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (permission_key) DO NOTHING`,
				p.Key, p.Name, p.Desc, p.App); err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Key, err)
			}
		}
		fmt.Println("Seeded permission catalogue")

		// Grant the view-level keys to every synced department so a fresh
		// install has a usable baseline.
		rows, err := db.Query("SELECT id FROM departments")
		if err != nil {
			log.Fatalf("failed to list departments: %v", err)
		}
		defer rows.Close()

		var departmentIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				log.Fatalf("failed to scan department id: %v", err)
			}
			departmentIDs = append(departmentIDs, id)
		}

		baseline := []string{"rota.view", "timesheet.view", "directory.view"}
		for _, departmentID := range departmentIDs {
			for _, key := range baseline {
				if _, err := db.Exec(`
INSERT INTO department_permissions (department_id, permission_key, granted_at)
VALUES ($1, $2, now())
ON CONFLICT (department_id, permission_key) DO NOTHING`,
					departmentID, key); err != nil {
					log.Fatalf("failed to grant %s to department %d: %v", key, departmentID, err)
				}
			}
		}

		if len(departmentIDs) > 0 {
			fmt.Printf("Granted baseline permissions to %d departments\n", len(departmentIDs))
		} else {
			fmt.Println("No departments synced yet; run sync before seeding grants")
		}
	},
}
