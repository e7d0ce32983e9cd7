package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the astronauts table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS astronauts (
    name       TEXT PRIMARY KEY,
    data       JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by PostgreSQL. Each astronaut's full
// wellness document is one JSONB row; mutations are read-modify-write
// cycles. The application runs a single writer per astronaut (the HTTP
// server serialises nothing, but every mutation is one row swap), which is
// the same consistency the original deployment had.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, a *Astronaut) error {
	if a.Name == "" {
		return fmt.Errorf("store: astronaut name must not be empty")
	}
	doc := *a
	doc.normalize()
	data, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("store: marshal document: %w", err)
	}

	const query = `INSERT INTO astronauts (name, data) VALUES ($1, $2)`
	if _, err := s.db.Exec(ctx, query, doc.Name, data); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("store: astronaut %q: %w", doc.Name, ErrExists)
		}
		return fmt.Errorf("store: create: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, name string) (*Astronaut, error) {
	const query = `SELECT data FROM astronauts WHERE name = $1`
	var data []byte
	err := s.db.QueryRow(ctx, query, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: astronaut %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	var a Astronaut
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("store: unmarshal document: %w", err)
	}
	a.normalize()
	return &a, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]Astronaut, error) {
	const query = `SELECT data FROM astronauts ORDER BY name`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Astronaut
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		var a Astronaut
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("store: unmarshal document: %w", err)
		}
		a.normalize()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return out, nil
}

// update loads the named document, applies mutate, and writes it back.
func (s *PostgresStore) update(ctx context.Context, name string, mutate func(*Astronaut) error) error {
	a, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := mutate(a); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("store: marshal document: %w", err)
	}
	const query = `UPDATE astronauts SET data = $2, updated_at = now() WHERE name = $1`
	tag, err := s.db.Exec(ctx, query, name, data)
	if err != nil {
		return fmt.Errorf("store: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: astronaut %q: %w", name, ErrNotFound)
	}
	return nil
}

// SetPhoto implements Store.
func (s *PostgresStore) SetPhoto(ctx context.Context, name, photoURL string) error {
	return s.update(ctx, name, func(a *Astronaut) error {
		a.PhotoURL = photoURL
		return nil
	})
}

// AddSymptomLog implements Store.
func (s *PostgresStore) AddSymptomLog(ctx context.Context, name string, l SymptomLog) (SymptomLog, error) {
	err := s.update(ctx, name, func(a *Astronaut) error {
		addSymptomLog(a, &l)
		return nil
	})
	return l, err
}

// AttachSymptomMedia implements Store.
func (s *PostgresStore) AttachSymptomMedia(ctx context.Context, name, logID, mediaType, dataURL string) error {
	return s.update(ctx, name, func(a *Astronaut) error {
		return attachSymptomMedia(a, logID, mediaType, dataURL)
	})
}

// AddCaptainLog implements Store.
func (s *PostgresStore) AddCaptainLog(ctx context.Context, name string, l CaptainLog) (CaptainLog, error) {
	err := s.update(ctx, name, func(a *Astronaut) error {
		addCaptainLog(a, &l)
		return nil
	})
	return l, err
}

// UpsertCheckIn implements Store.
func (s *PostgresStore) UpsertCheckIn(ctx context.Context, name string, c DailyCheckIn) error {
	return s.update(ctx, name, func(a *Astronaut) error {
		upsertCheckIn(a, c)
		return nil
	})
}

// ReplaceTasks implements Store.
func (s *PostgresStore) ReplaceTasks(ctx context.Context, name string, tasks []MissionTask) error {
	return s.update(ctx, name, func(a *Astronaut) error {
		a.MissionTasks = append([]MissionTask{}, tasks...)
		return nil
	})
}

// AddTask implements Store.
func (s *PostgresStore) AddTask(ctx context.Context, name string, t MissionTask) (MissionTask, error) {
	err := s.update(ctx, name, func(a *Astronaut) error {
		addTask(a, &t)
		return nil
	})
	return t, err
}

// AddEarthlinkMessage implements Store.
func (s *PostgresStore) AddEarthlinkMessage(ctx context.Context, name string, m EarthlinkMessage) (EarthlinkMessage, error) {
	err := s.update(ctx, name, func(a *Astronaut) error {
		addEarthlinkMessage(a, &m)
		return nil
	})
	return m, err
}

// MarkEarthlinkViewed implements Store.
func (s *PostgresStore) MarkEarthlinkViewed(ctx context.Context, name, messageID string) error {
	return s.update(ctx, name, func(a *Astronaut) error {
		return markEarthlinkViewed(a, messageID)
	})
}

// AddDoctorAdvice implements Store.
func (s *PostgresStore) AddDoctorAdvice(ctx context.Context, name string, d DoctorAdvice) (DoctorAdvice, error) {
	err := s.update(ctx, name, func(a *Astronaut) error {
		addDoctorAdvice(a, &d)
		return nil
	})
	return d, err
}

// AddProcedure implements Store.
func (s *PostgresStore) AddProcedure(ctx context.Context, name string, p MissionProcedure) (MissionProcedure, error) {
	err := s.update(ctx, name, func(a *Astronaut) error {
		addProcedure(a, &p)
		return nil
	})
	return p, err
}

// AddMassProtocol implements Store.
func (s *PostgresStore) AddMassProtocol(ctx context.Context, name string, p MassProtocol) (MassProtocol, error) {
	err := s.update(ctx, name, func(a *Astronaut) error {
		addMassProtocol(a, &p)
		return nil
	})
	return p, err
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
