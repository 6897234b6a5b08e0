package config

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/models"
)

func TestMigrateLegacyImages(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	require.NoError(t, db.Exec(`ALTER TABLE products ADD COLUMN images text`).Error)

	require.NoError(t, db.Exec(
		`INSERT INTO products (name, description, category, price, image, images) VALUES (?, ?, ?, ?, ?, ?)`,
		"legacy", "d", "other", 1.0, "", `["https://img.example/first.png","https://img.example/second.png"]`,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO products (name, description, category, price, image, images) VALUES (?, ?, ?, ?, ?, ?)`,
		"modern", "d", "other", 1.0, "https://img.example/kept.png", "",
	).Error)

	require.NoError(t, MigrateLegacyImages(db))

	var legacy, modern models.Product
	require.NoError(t, db.Where("name = ?", "legacy").First(&legacy).Error)
	require.Equal(t, "https://img.example/first.png", legacy.Image)

	require.NoError(t, db.Where("name = ?", "modern").First(&modern).Error)
	require.Equal(t, "https://img.example/kept.png", modern.Image)

	require.False(t, db.Migrator().HasColumn(&models.Product{}, "images"))

	// second run is a no-op
	require.NoError(t, MigrateLegacyImages(db))
}
