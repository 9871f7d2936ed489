package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/gophgram/internal/server/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Compile-time checks
var (
	_ storage.UserStorage    = (*Storage)(nil)
	_ storage.PostStorage    = (*Storage)(nil)
	_ storage.CommentStorage = (*Storage)(nil)
)

// Storage represents SQLite storage implementation
type Storage struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
// dbPath is the path to the SQLite database file
// Use ":memory:" for in-memory database (useful for testing)
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем соединение с БД
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Один писатель: все запросы идут через одно соединение,
	// для :memory: это еще и единственный способ видеть одну и ту же БД
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Storage{db: db}

	// Запускаем миграции
	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks database availability (used by health check)
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Время храним как unix nano в UTC: сортировка по created_at однозначна
func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// encodeLikes сериализует множество лайков в JSON массив
func encodeLikes(likes []string) (string, error) {
	if likes == nil {
		likes = []string{}
	}
	data, err := json.Marshal(likes)
	if err != nil {
		return "", fmt.Errorf("failed to marshal likes: %w", err)
	}
	return string(data), nil
}

// decodeLikes десериализует JSON массив лайков
func decodeLikes(raw string) ([]string, error) {
	likes := []string{}
	if raw == "" {
		return likes, nil
	}
	if err := json.Unmarshal([]byte(raw), &likes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal likes: %w", err)
	}
	return likes, nil
}

func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
