// Package telemetry persists per-cycle controller diagnostics to sqlite so
// flights can be replayed and plotted after the fact. One session row per
// flight, one cycle row per control cycle.
package telemetry

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/skyward-robotics/quadctrl/internal/control"
	"github.com/skyward-robotics/quadctrl/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the telemetry database.
type Store struct {
	*sql.DB
}

// Open opens (creating if necessary) the telemetry database at path and
// applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry db: %w", err)
	}

	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp applies the embedded migrations up to the latest version.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// Session identifies one recorded flight.
type Session struct {
	ID        string
	Law       string
	Notes     string
	StartedAt time.Time
}

// CycleRecord is one control cycle's diagnostics snapshot, flattened for
// storage.
type CycleRecord struct {
	SessionID string
	UnixNanos int64
	Thrust    float64

	AttW, AttX, AttY, AttZ float64
	DesVX, DesVY, DesVZ    float64
	DesAX, DesAY, DesAZ    float64

	Gain       float64
	Covariance float64
}

// CycleFromDiagnostics flattens a controller diagnostics snapshot plus the
// estimator state into a CycleRecord.
func CycleFromDiagnostics(sessionID string, t time.Time, d control.Diagnostics, gain, covariance float64) CycleRecord {
	return CycleRecord{
		SessionID:  sessionID,
		UnixNanos:  t.UnixNano(),
		Thrust:     d.Thrust,
		AttW:       d.Attitude.Real,
		AttX:       d.Attitude.Imag,
		AttY:       d.Attitude.Jmag,
		AttZ:       d.Attitude.Kmag,
		DesVX:      d.DesiredVelocity.X,
		DesVY:      d.DesiredVelocity.Y,
		DesVZ:      d.DesiredVelocity.Z,
		DesAX:      d.DesiredAcceleration.X,
		DesAY:      d.DesiredAcceleration.Y,
		DesAZ:      d.DesiredAcceleration.Z,
		Gain:       gain,
		Covariance: covariance,
	}
}

// CreateSession inserts a new session row with a fresh UUID and returns it.
func (s *Store) CreateSession(law, notes string, startedAt time.Time) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		Law:       law,
		Notes:     notes,
		StartedAt: startedAt,
	}
	_, err := s.Exec(
		"INSERT INTO sessions (session_id, law, notes, started_at_ns) VALUES (?, ?, ?, ?)",
		sess.ID, sess.Law, sess.Notes, sess.StartedAt.UnixNano(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Sessions returns all recorded sessions, oldest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.Query("SELECT session_id, law, notes, started_at_ns FROM sessions ORDER BY started_at_ns")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var startedNs int64
		if err := rows.Scan(&sess.ID, &sess.Law, &sess.Notes, &startedNs); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.StartedAt = time.Unix(0, startedNs)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// RecordCycle inserts one cycle row.
func (s *Store) RecordCycle(rec CycleRecord) error {
	_, err := s.Exec(`
		INSERT INTO cycles (
			session_id, t_ns, thrust,
			att_w, att_x, att_y, att_z,
			des_vx, des_vy, des_vz,
			des_ax, des_ay, des_az,
			gain, covariance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.UnixNanos, rec.Thrust,
		rec.AttW, rec.AttX, rec.AttY, rec.AttZ,
		rec.DesVX, rec.DesVY, rec.DesVZ,
		rec.DesAX, rec.DesAY, rec.DesAZ,
		rec.Gain, rec.Covariance,
	)
	if err != nil {
		return fmt.Errorf("failed to record cycle: %w", err)
	}
	return nil
}

// Cycles returns all cycle rows for a session in time order.
func (s *Store) Cycles(sessionID string) ([]CycleRecord, error) {
	rows, err := s.Query(`
		SELECT session_id, t_ns, thrust,
			att_w, att_x, att_y, att_z,
			des_vx, des_vy, des_vz,
			des_ax, des_ay, des_az,
			gain, covariance
		FROM cycles WHERE session_id = ? ORDER BY t_ns`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var recs []CycleRecord
	for rows.Next() {
		var r CycleRecord
		if err := rows.Scan(
			&r.SessionID, &r.UnixNanos, &r.Thrust,
			&r.AttW, &r.AttX, &r.AttY, &r.AttZ,
			&r.DesVX, &r.DesVY, &r.DesVZ,
			&r.DesAX, &r.DesAY, &r.DesAZ,
			&r.Gain, &r.Covariance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
