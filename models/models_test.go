package models

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "models.db")
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestProjectValidateNamesMissingFields(t *testing.T) {
	p := &Project{Title: "  ", Category: "web"}
	p.Normalize()

	err := p.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"id", "title", "description"}, verr.Missing)
	require.Empty(t, verr.Invalid)
}

func TestProjectValidateRejectsUnknownCategory(t *testing.T) {
	p := &Project{ExternalID: "1", Title: "t", Description: "d", Category: "game"}

	err := p.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Invalid, "category")
}

func TestProjectHooksAssignIdentityAndEmptySlices(t *testing.T) {
	db := openTestDB(t)

	p := &Project{ExternalID: " 42 ", Title: "Portfolio", Description: "d", Category: CategoryWeb}
	require.NoError(t, db.Create(p).Error)

	var stored Project
	require.NoError(t, db.First(&stored, "external_id = ?", "42").Error)
	require.Equal(t, p.ID, stored.ID)
	require.NotNil(t, stored.Images)
	require.Empty(t, stored.Images)
	require.False(t, stored.Featured)
}

func TestProjectSaveFailsValidation(t *testing.T) {
	db := openTestDB(t)

	err := db.Create(&Project{ExternalID: "1", Title: "t", Category: CategoryApp}).Error
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	var count int64
	require.NoError(t, db.Model(&Project{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestContactValidate(t *testing.T) {
	err := (&Contact{Name: "Kim", Message: " "}).Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, []string{"email", "message"}, verr.Missing)
}

func TestVisitorDefaultsPath(t *testing.T) {
	db := openTestDB(t)

	v := &Visitor{IP: "127.0.0.1", UserAgent: "ua"}
	require.NoError(t, db.Create(v).Error)
	require.Equal(t, "/", v.Path)
}

func TestColumnMismatches(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("ALTER TABLE projects ADD COLUMN legacy_slug text").Error)

	report, err := ColumnMismatches(db, &Project{})
	require.NoError(t, err)
	require.True(t, report.Exists)
	require.Equal(t, "projects", report.Table)
	require.Equal(t, []string{"legacy_slug"}, report.Unmapped)

	report, err = ColumnMismatches(db, &Contact{})
	require.NoError(t, err)
	require.Empty(t, report.Unmapped)
}
