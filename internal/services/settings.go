package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio/internal/domain"
)

// Editable site setting keys
const (
	SettingSiteName    = "site_name"
	SettingSiteTagline = "site_tagline"
	SettingGitHubURL   = "github_url"
	SettingLinkedInURL = "linkedin_url"
)

// SettingKeys lists the keys the admin settings form edits, in display order
var SettingKeys = []string{SettingSiteName, SettingSiteTagline, SettingGitHubURL, SettingLinkedInURL}

// SettingsService reads and writes the site key/value bag
type SettingsService struct {
	db       *gorm.DB
	defaults map[string]string
	log      *zap.Logger
}

// NewSettingsService creates a new settings service. defaults fill keys that
// have never been saved.
func NewSettingsService(db *gorm.DB, defaults map[string]string, log *zap.Logger) *SettingsService {
	return &SettingsService{db: db, defaults: defaults, log: log.Named("settings")}
}

// All returns every stored setting merged over the defaults
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s.defaults))
	for k, v := range s.defaults {
		out[k] = v
	}

	var rows []domain.SiteSetting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return out, NewInternalError("failed to fetch settings", err)
	}
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Get returns one setting, or its default
func (s *SettingsService) Get(ctx context.Context, key string) string {
	var row domain.SiteSetting
	if err := s.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&row).Error; err != nil {
		return s.defaults[key]
	}
	return row.Value
}

// Save upserts the editable keys present in values; other keys are ignored
func (s *SettingsService) Save(ctx context.Context, values map[string]string) error {
	v := &formValidator{fields: map[string]string{}}
	v.maxLength(SettingSiteName, strings.TrimSpace(values[SettingSiteName]), 100, true)
	if err := v.result("invalid settings"); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range SettingKeys {
			value, ok := values[key]
			if !ok {
				continue
			}
			row := domain.SiteSetting{Key: key, Value: strings.TrimSpace(value)}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&row).Error
			if err != nil {
				return NewInternalError("failed to save setting "+key, err)
			}
		}
		s.log.Info("site settings updated")
		return nil
	})
}
