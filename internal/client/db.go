package client

import (
	"time"

	"agrivet-checkout/internal/model"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the order store: MySQL when a DSN is configured, an embedded
// SQLite file otherwise (local development).
func InitDB(databaseURL string) *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)
	if databaseURL != "" {
		db, err = gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	} else {
		db, err = gorm.Open(sqlite.Open("agrivet.db"), &gorm.Config{})
	}
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}

	// Connection pool (gateway callbacks arrive concurrently with checkouts)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusChange{},
		&model.OrderComment{},
		&model.GatewayTxn{},
	); err != nil {
		log.Fatal(err)
	}

	return db
}
