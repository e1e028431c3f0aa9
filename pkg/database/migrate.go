package database

import "gorm.io/gorm"

func MigrateDB(db *gorm.DB, models ...interface{}) error {
	return db.AutoMigrate(models...)
}
