package config

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/models"
)

// MigrateLegacyImages collapses the historical multi-image column into the
// canonical single image URL. Older product rows carried an "images" JSON
// list while newer ones carried "image"; the first list entry wins, and the
// legacy column is dropped once every row has been rewritten.
func MigrateLegacyImages(db *gorm.DB) error {
	if !db.Migrator().HasColumn(&models.Product{}, "images") {
		return nil
	}

	type legacyRow struct {
		ID     uint
		Images string
	}

	var rows []legacyRow
	if err := db.Table("products").
		Select("id", "images").
		Where("images IS NOT NULL AND images <> ''").
		Find(&rows).Error; err != nil {
		return err
	}

	for _, row := range rows {
		var urls []string
		if err := json.Unmarshal([]byte(row.Images), &urls); err != nil || len(urls) == 0 {
			continue
		}
		if err := db.Model(&models.Product{}).
			Where("id = ? AND (image IS NULL OR image = '')", row.ID).
			Update("image", urls[0]).Error; err != nil {
			return err
		}
	}

	return db.Migrator().DropColumn(&models.Product{}, "images")
}
