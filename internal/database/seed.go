package database

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/config"
	"portfolio/internal/domain"
	"portfolio/internal/util"
)

// Seed creates the initial admin account and sample content on an empty
// database. The admin is only created when ADMIN_PASSWORD is provided; there
// is no built-in password.
func Seed(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	log = log.Named("db")

	var admins int64
	if err := db.Model(&domain.User{}).Where("is_admin = ?", true).Count(&admins).Error; err != nil {
		return fmt.Errorf("failed to count admin users: %w", err)
	}
	if admins > 0 {
		log.Info("database already initialized")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if cfg.Auth.AdminPassword == "" {
			log.Warn("no admin user exists and ADMIN_PASSWORD is unset; run create_admin to add one")
		} else {
			if _, err := UpsertAdmin(tx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
				return err
			}
			log.Info("admin user created", zap.String("username", cfg.Auth.AdminUsername))
		}

		var projects int64
		if err := tx.Model(&domain.Project{}).Count(&projects).Error; err != nil {
			return fmt.Errorf("failed to count projects: %w", err)
		}
		if projects > 0 {
			return nil
		}

		sampleProject := &domain.Project{
			Title:        "Sample Project",
			Description:  "A wonderful sample project built with modern technologies.",
			Technologies: "Go, PostgreSQL, HTMX, Docker",
			Featured:     true,
			Category:     "Web Development",
		}
		if err := tx.Create(sampleProject).Error; err != nil {
			return fmt.Errorf("failed to seed project: %w", err)
		}

		sampleSkill := &domain.Skill{
			Name:        "Go",
			Category:    "Backend",
			Proficiency: 90,
			Featured:    true,
		}
		if err := tx.Create(sampleSkill).Error; err != nil {
			return fmt.Errorf("failed to seed skill: %w", err)
		}

		log.Info("database initialized with sample data")
		return nil
	})
}

// UpsertAdmin creates the named admin account or resets its password and
// reactivates it when it already exists.
func UpsertAdmin(db *gorm.DB, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("admin username must not be empty")
	}
	if password == "" {
		return nil, errors.New("admin password must not be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		email = username + "@localhost"
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user domain.User
	err = db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		user.PasswordHash = hashed
		user.IsAdmin = true
		user.IsActive = true
		if err := db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to update admin user: %w", err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = domain.User{
			Username:     username,
			Email:        email,
			PasswordHash: hashed,
			IsAdmin:      true,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create admin user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}
}
