package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"roomlock-backend/config"
	"roomlock-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Surface unique-index violations as gorm.ErrDuplicatedKey so the
		// unlock-key retry in the booking service can recognize them.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	return db, nil
}

// Migrate runs AutoMigrate for all models and seeds the status lookup table.
// Callers run it explicitly after Init; tests run it against an in-memory
// database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.ReservationStatus{},
		&model.Reservation{},
		&model.RoomLog{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	return seedStatuses(db)
}

func seedStatuses(db *gorm.DB) error {
	statuses := []model.ReservationStatus{
		{ID: model.StatusPending, Name: "pending"},
		{ID: model.StatusApproved, Name: "approved"},
		{ID: model.StatusRejected, Name: "rejected"},
		{ID: model.StatusCancelled, Name: "cancelled"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&statuses).Error; err != nil {
		return fmt.Errorf("failed to seed reservation statuses: %w", err)
	}
	return nil
}
