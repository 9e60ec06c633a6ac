package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/config"
	"portfolio/internal/domain"
	"portfolio/internal/util"
)

func openTestDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	cfg.Database.URL = "sqlite:///" + filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestOpenMigratesAllTables(t *testing.T) {
	db := openTestDB(t, &config.Config{})

	for _, model := range Models {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
	assert.NoError(t, HealthCheck(db))

	stats, err := GetStats(db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
}

func TestSeedWithoutPasswordSkipsAdmin(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{AdminUsername: "admin"}}
	db := openTestDB(t, cfg)

	require.NoError(t, Seed(db, cfg, zap.NewNop()))

	var users int64
	require.NoError(t, db.Model(&domain.User{}).Count(&users).Error)
	assert.Zero(t, users)

	var projects int64
	require.NoError(t, db.Model(&domain.Project{}).Count(&projects).Error)
	assert.Equal(t, int64(1), projects)
}

func TestSeedCreatesAdminOnce(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{
		AdminUsername: "admin",
		AdminEmail:    "Owner@Example.com",
		AdminPassword: "correct horse battery",
	}}
	db := openTestDB(t, cfg)

	require.NoError(t, Seed(db, cfg, zap.NewNop()))
	require.NoError(t, Seed(db, cfg, zap.NewNop()))

	var users []domain.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "owner@example.com", users[0].Email)
	assert.True(t, users[0].IsAdmin)
	assert.True(t, users[0].IsActive)
	assert.True(t, util.CheckPasswordHash("correct horse battery", users[0].PasswordHash))

	var skills int64
	require.NoError(t, db.Model(&domain.Skill{}).Count(&skills).Error)
	assert.Equal(t, int64(1), skills)
}

func TestUpsertAdminResetsPassword(t *testing.T) {
	db := openTestDB(t, &config.Config{})

	first, err := UpsertAdmin(db, "root", "", "first-password")
	require.NoError(t, err)
	assert.Equal(t, "root@localhost", first.Email)

	require.NoError(t, db.Model(first).Update("is_active", false).Error)

	second, err := UpsertAdmin(db, "root", "", "second-password")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsActive)
	assert.True(t, util.CheckPasswordHash("second-password", second.PasswordHash))

	_, err = UpsertAdmin(db, "root", "", "")
	assert.Error(t, err)
}
