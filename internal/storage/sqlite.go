package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finanse/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps documents as JSON rows and users in their own table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("SQLite store ready", "db_path", dbPath)
	return &SQLiteStore{db: db, logger: logger.With("component", "sqlite")}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Put(ctx context.Context, owner, collection, id string, doc core.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (owner_id, collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, collection, id)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		owner, collection, id, string(data), now, now)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, owner, collection, id string) (core.Document, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE owner_id = ? AND collection = ? AND id = ?`,
		owner, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s/%s: %w", collection, id, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return doc, true, nil
}

func (s *SQLiteStore) List(ctx context.Context, owner, collection string) ([]core.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM documents
		WHERE owner_id = ? AND collection = ?
		ORDER BY created_at, rowid`, owner, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []core.Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping undecodable document",
				"collection", collection, "id", id, "error", err)
			continue
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, owner, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE owner_id = ? AND collection = ? AND id = ?`,
		owner, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func decodeDocument(data string) (core.Document, error) {
	var doc core.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, dark_mode, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, normalizeEmail(u.Email), u.DisplayName, u.PasswordHash, u.DarkMode,
		u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, dark_mode, created_at
		FROM users WHERE email = ?`, normalizeEmail(email)))
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (core.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, dark_mode, created_at
		FROM users WHERE id = ?`, id))
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, u core.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET display_name = ?, dark_mode = ?, password_hash = ?
		WHERE id = ?`, u.DisplayName, u.DarkMode, u.PasswordHash, u.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s: %w", u.ID, core.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.DarkMode, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if t, err := time.Parse(timeLayout, created); err == nil {
		u.CreatedAt = t
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ Backend = (*SQLiteStore)(nil)
