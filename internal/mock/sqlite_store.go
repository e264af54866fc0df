package mock

import (
	"context"
	"database/sql"
	"fmt"

	"apiplay/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the records in a private in-memory SQLite database.
// The database lives on a single connection and disappears with it.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens an in-memory database and loads seed into it
func NewSQLiteStore(seed []model.User) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	// Every new connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	for _, u := range seed {
		if _, err := db.Exec(`INSERT INTO users (id, first_name, last_name) VALUES (?, ?, ?)`,
			u.ID, u.FirstName, u.LastName); err != nil {
			db.Close()
			return nil, fmt.Errorf("seeding users: %w", err)
		}
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// initSchema creates the users table. id is deliberately not unique: seq keeps
// insertion order and identifies rows.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id INTEGER NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_users_id ON users(id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, first_name, last_name FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id int) (model.User, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name FROM users
		WHERE id = ? ORDER BY seq LIMIT 1`, id)

	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName)
	if err == sql.ErrNoRows {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

func (s *SQLiteStore) Create(ctx context.Context, firstName, lastName string) (model.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return model.User{}, err
	}

	u := model.User{ID: count + 1, FirstName: firstName, LastName: lastName}
	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, first_name, last_name) VALUES (?, ?, ?)`,
		u.ID, u.FirstName, u.LastName); err != nil {
		return model.User{}, err
	}

	return u, tx.Commit()
}

func (s *SQLiteStore) Update(ctx context.Context, user model.User) (model.User, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET first_name = ?, last_name = ?
		WHERE seq = (SELECT seq FROM users WHERE id = ? ORDER BY seq LIMIT 1)`,
		user.FirstName, user.LastName, user.ID)
	if err != nil {
		return model.User{}, false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return model.User{}, false, err
	}
	if n == 0 {
		return model.User{}, false, nil
	}
	return user, true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM users
		WHERE seq = (SELECT seq FROM users WHERE id = ? ORDER BY seq LIMIT 1)`, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
