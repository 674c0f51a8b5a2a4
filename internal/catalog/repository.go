package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MAB12-Star/hotel-management/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

var ErrRoomNotFound = fmt.Errorf("%w: room", domain.ErrNotFound)

type RoomRepository interface {
	GetRoomBySlug(ctx context.Context, slug string) (*domain.Room, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// a single connection keeps ":memory:" databases shared across queries
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) GetRoomBySlug(ctx context.Context, slug string) (*domain.Room, error) {
	query := `
		SELECT id, slug, name, price, discount, images
		FROM rooms
		WHERE slug = ?
	`

	var room domain.Room
	var images string
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&room.ID,
		&room.Slug,
		&room.Name,
		&room.Price,
		&room.Discount,
		&images,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w %q", ErrRoomNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("query room by slug: %w", err)
	}

	if err := json.Unmarshal([]byte(images), &room.Images); err != nil {
		return nil, fmt.Errorf("unmarshal room images: %w", err)
	}

	return &room, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
