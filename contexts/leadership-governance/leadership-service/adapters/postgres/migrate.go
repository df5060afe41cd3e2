package postgresadapter

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates the leadership tables and the partial unique indexes that
// back the one-vote, one-candidacy and one-holder rules.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate leadership tables: %w", err)
	}
	for _, statement := range PartialIndexes() {
		if err := tx.Exec(statement).Error; err != nil {
			return fmt.Errorf("create leadership index: %w", err)
		}
	}
	return nil
}
