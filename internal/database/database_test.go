package database

import (
	"path/filepath"
	"testing"

	"github.com/dangerclosesec/partnerhub/internal/config"
	"github.com/dangerclosesec/partnerhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "partnerhub_test.db")

	db, err := Open(cfg)
	require.NoError(t, err)

	for _, m := range Models {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasTable("user_departments"))
	assert.True(t, db.Migrator().HasIndex(&model.PartnerDepartment{}, "idx_partner_department"))
	assert.True(t, db.Migrator().HasIndex(&model.ProjectPartner{}, "idx_project_partner_role"))
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "oracle"

	_, err := Open(cfg)
	assert.Error(t, err)
}
