package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/padel-arena/padel-arena-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB gorm 핸들 래퍼. 레포지토리는 이 타입만 받는다.
type DB struct {
	*gorm.DB
}

// Connect 데이터베이스 연결
func Connect(databaseURL string, debug bool) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 연결 풀 설정
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// 연결 테스트
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), debug)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Database connected successfully")

	return db, nil
}

// Open 임의의 dialector로 gorm 핸들 생성 (테스트는 sqlite 사용)
func Open(dialector gorm.Dialector, debug bool) (*DB, error) {
	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &DB{gdb}, nil
}

// Transaction fn 전체를 하나의 트랜잭션으로 실행. fn이 에러를 반환하면 롤백.
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{tx})
	})
}

// Ping 연결 확인
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 데이터베이스 연결 종료
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
