package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SonJH7/status-allocation-berths/core/model"
	"github.com/SonJH7/status-allocation-berths/core/schedule"
)

// SQLiteStore persists the version chain to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schemaSQL := `CREATE TABLE IF NOT EXISTS versions (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT UNIQUE NOT NULL,
        parent_id TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        label TEXT NOT NULL DEFAULT '',
        source TEXT NOT NULL,
        diff TEXT NOT NULL DEFAULT '[]'
    );
    CREATE TABLE IF NOT EXISTS assignments (
        version_id TEXT NOT NULL,
        id TEXT NOT NULL,
        vessel TEXT NOT NULL,
        voyage TEXT NOT NULL DEFAULT '',
        berth TEXT NOT NULL,
        terminal TEXT NOT NULL DEFAULT '',
        start_ts INTEGER NOT NULL,
        end_ts INTEGER NOT NULL,
        length_m REAL,
        beam_m REAL,
        PRIMARY KEY (version_id, id)
    );`
	if _, err := db.Exec(schemaSQL); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Commit writes the version and its assignment set in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, v model.Version, assignments []model.Assignment) (model.Version, error) {
	diffJSON, err := json.Marshal(v.Diff)
	if err != nil {
		return model.Version{}, fmt.Errorf("marshal diff: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Version{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO versions (id, parent_id, created_at, label, source, diff) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.ParentID, v.CreatedAt.Unix(), v.Label, string(v.Source), string(diffJSON))
	if err != nil {
		return model.Version{}, fmt.Errorf("insert version: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return model.Version{}, err
	}
	for _, a := range assignments {
		var length, beam sql.NullFloat64
		if a.LengthM != nil {
			length = sql.NullFloat64{Float64: *a.LengthM, Valid: true}
		}
		if a.BeamM != nil {
			beam = sql.NullFloat64{Float64: *a.BeamM, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (version_id, id, vessel, voyage, berth, terminal, start_ts, end_ts, length_m, beam_m)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, a.ID, a.Vessel, a.Voyage, a.Berth, string(a.Terminal),
			a.Start.Unix(), a.End.Unix(), length, beam); err != nil {
			return model.Version{}, fmt.Errorf("insert assignment %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Version{}, err
	}
	v.Seq = seq
	return v, nil
}

// Head returns the latest committed version and its assignment set.
func (s *SQLiteStore) Head(ctx context.Context) (model.Version, []model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, id, parent_id, created_at, label, source, diff FROM versions ORDER BY seq DESC LIMIT 1`)
	return s.scanVersionWithSet(ctx, row)
}

// Get returns one version and its assignment set by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Version, []model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT seq, id, parent_id, created_at, label, source, diff FROM versions WHERE id = ?`, id)
	return s.scanVersionWithSet(ctx, row)
}

func (s *SQLiteStore) scanVersionWithSet(ctx context.Context, row *sql.Row) (model.Version, []model.Assignment, error) {
	v, err := scanVersion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Version{}, nil, schedule.ErrUnknownVersion
	}
	if err != nil {
		return model.Version{}, nil, err
	}
	set, err := s.loadAssignments(ctx, v.ID)
	if err != nil {
		return model.Version{}, nil, err
	}
	return v, set, nil
}

func scanVersion(scan func(dest ...any) error) (model.Version, error) {
	var v model.Version
	var createdAt int64
	var source, diffJSON string
	if err := scan(&v.Seq, &v.ID, &v.ParentID, &createdAt, &v.Label, &source, &diffJSON); err != nil {
		return model.Version{}, err
	}
	v.CreatedAt = time.Unix(createdAt, 0).UTC()
	v.Source = model.Source(source)
	if err := json.Unmarshal([]byte(diffJSON), &v.Diff); err != nil {
		return model.Version{}, fmt.Errorf("unmarshal diff: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) loadAssignments(ctx context.Context, versionID string) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vessel, voyage, berth, terminal, start_ts, end_ts, length_m, beam_m
         FROM assignments WHERE version_id = ? ORDER BY id`, versionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		var terminal string
		var start, end int64
		var length, beam sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.Vessel, &a.Voyage, &a.Berth, &terminal, &start, &end, &length, &beam); err != nil {
			return nil, err
		}
		a.Terminal = model.Terminal(terminal)
		a.Start = time.Unix(start, 0).UTC()
		a.End = time.Unix(end, 0).UTC()
		if length.Valid {
			l := length.Float64
			a.LengthM = &l
		}
		if beam.Valid {
			b := beam.Float64
			a.BeamM = &b
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// List returns all versions in commit order without their assignment sets.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, parent_id, created_at, label, source, diff FROM versions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Version
	for rows.Next() {
		v, err := scanVersion(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
