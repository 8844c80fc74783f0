package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/complaint-management/internal/core/datamodel/department"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/role"
	"github.com/frahmantamala/complaint-management/internal/core/datamodel/user"
)

var (
	seedPassword string
	clearData    bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed roles, departments, a superadmin and one subadmin per department for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configDir)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		summary, err := seed(cmd.Context(), gdb, seedOptions{
			EmailDomain: cfg.Security.AllowedEmailDomain,
			Password:    seedPassword,
			BCryptCost:  cfg.Security.BCryptCost,
			Clear:       clearData,
		})
		if err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println(summary)
	},
}

type seedOptions struct {
	EmailDomain string
	Password    string
	BCryptCost  int
	Clear       bool
}

var seedDepartments = []string{"IT", "HR", "Finance", "Operations"}

// seed is idempotent: existing rows are left alone.
func seed(ctx context.Context, db *gorm.DB, opts seedOptions) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.BCryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	var users int
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clear {
			for _, table := range []string{"push_subscriptions", "notifications", "activity_logs", "subadmin_tasks", "complaints", "users", "departments"} {
				if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
		}

		roles := []role.Role{{RoleID: 1, Name: "superadmin"}, {RoleID: 2, Name: "subadmin"}, {RoleID: 3, Name: "user"}}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&roles).Error; err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}

		deptIDs := make([]int64, 0, len(seedDepartments))
		for _, name := range seedDepartments {
			d := department.Department{Name: name}
			if err := tx.Where("name = ?", name).FirstOrCreate(&d).Error; err != nil {
				return fmt.Errorf("seed department %s: %w", name, err)
			}
			deptIDs = append(deptIDs, d.DeptID)
		}

		accounts := []user.User{{EmpID: 100, Name: "Super Admin", Email: "admin" + opts.EmailDomain, DeptID: deptIDs[0], RoleID: 1}}
		for i, name := range seedDepartments {
			accounts = append(accounts, user.User{
				EmpID:  int64(110 + i*10),
				Name:   name + " Lead",
				Email:  strings.ToLower(name) + ".lead" + opts.EmailDomain,
				DeptID: deptIDs[i],
				RoleID: 2,
			})
		}
		accounts = append(accounts, user.User{EmpID: 200, Name: "Sample Employee", Email: "employee" + opts.EmailDomain, DeptID: deptIDs[0], RoleID: 3})

		for i := range accounts {
			accounts[i].PasswordHash = string(hash)
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&accounts[i])
			if res.Error != nil {
				return fmt.Errorf("seed user %d: %w", accounts[i].EmpID, res.Error)
			}
			users += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Seeded %d departments and %d new users (password %q)", len(seedDepartments), users, opts.Password), nil
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Delete seeded tables before inserting")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "Password for every seeded account")

	rootCmd.AddCommand(seedCmd)
}
