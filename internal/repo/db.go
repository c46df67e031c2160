package repo

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"CyMarker/internal/model"
)

// IsPostgresDSN сообщает, указывает ли строка подключения на PostgreSQL.
// Всё остальное открывается как SQLite через modernc.org/sqlite.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// Open подключается к БД без миграций.
func Open(dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	if IsPostgresDSN(dsn) {
		dial = postgres.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if !IsPostgresDSN(dsn) {
		// SQLite допускает одного писателя; одно соединение исключает SQLITE_BUSY
		// и сериализует транзакции каскадов.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate создаёт/обновляет схему всех сущностей.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Image{}, &model.Marker{}, &model.Comment{})
}

// InitDB открывает БД и применяет миграции.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}

// DialectName — имя диалекта открытой БД (для /api).
func DialectName(db *gorm.DB) string {
	return db.Dialector.Name()
}
