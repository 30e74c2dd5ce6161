/*
Package sqlite provides a SQLite-backed implementation of recruiting.Store.

PURPOSE:
  Persists the tracker's four tables. In production the same schema runs on
  PostgreSQL with only minor dialect differences.

INTERFACES IMPLEMENTED:
  recruiting.Store: masters, hires, terminations, requisitions

KEY TABLES:
  registros_rh:  One row per registered movement (Alta, Baja, Vacante)
  altas:         Hires, linked to registros_rh via id_registro
  bajas:         Terminations, linked to registros_rh via id_registro
  vacantes:      Requisitions, linked to registros_rh via id_registro

DATES:
  Stored as ISO text (YYYY-MM-DD). NULL means "not recorded"; no
  placeholder date is ever written.

INDEXES:
  - idx_vacantes_id_sistema: UNIQUE, the ATS system ID the importer
    reconciles on
  - idx_*_id_registro: master lookups
  - idx_vacantes_fecha_solicitud, idx_altas_fecha_alta: period filters

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/talent.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := recruiting.NewService(store, calendar, logger)

MIGRATION:
  Schema is auto-created on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - recruiting/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/talent-tracker/engine"
	"github.com/warp/talent-tracker/recruiting"
)

// Store implements recruiting.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ recruiting.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Master register: one row per movement
	CREATE TABLE IF NOT EXISTS registros_rh (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tipo TEXT NOT NULL CHECK (tipo IN ('Alta', 'Baja', 'Vacante')),
		fecha_registro TEXT NOT NULL,
		puesto TEXT NOT NULL,
		empresa TEXT,
		plaza TEXT,
		area TEXT
	);

	-- Hires
	CREATE TABLE IF NOT EXISTS altas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		id_registro INTEGER NOT NULL REFERENCES registros_rh(id),
		fecha_alta TEXT,
		empresa_alta TEXT,
		puesto_alta TEXT NOT NULL,
		plaza_alta TEXT,
		area_alta TEXT,
		contratados_alta INTEGER NOT NULL DEFAULT 0,
		medio_reclutamiento_alta TEXT,
		responsable_alta TEXT,
		confidencial INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_altas_id_registro
		ON altas(id_registro);
	CREATE INDEX IF NOT EXISTS idx_altas_fecha_alta
		ON altas(fecha_alta);

	-- Terminations
	CREATE TABLE IF NOT EXISTS bajas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		id_registro INTEGER NOT NULL REFERENCES registros_rh(id),
		fecha_baja TEXT,
		fecha_ingreso TEXT,
		fecha_registro_baja TEXT,
		puesto_baja TEXT NOT NULL,
		empresa_baja TEXT,
		plaza_baja TEXT,
		area_baja TEXT,
		tipo_baja TEXT NOT NULL DEFAULT 'SIN ESPECIFICAR',
		motivo_baja TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_bajas_id_registro
		ON bajas(id_registro);

	-- Requisitions
	CREATE TABLE IF NOT EXISTS vacantes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		id_registro INTEGER NOT NULL REFERENCES registros_rh(id),
		id_sistema INTEGER,
		fecha_solicitud TEXT,
		fecha_avance TEXT,
		fecha_autorizacion TEXT,
		fecha_cobertura TEXT,
		tipo_solicitud TEXT,
		estatus_solicitud TEXT,
		fase_proceso TEXT,
		puesto_vacante TEXT NOT NULL,
		plaza_vacante TEXT,
		empresa_vacante TEXT,
		funcion_area_vacante TEXT,
		vacantes_solicitadas INTEGER NOT NULL DEFAULT 0,
		vacantes_contratadas INTEGER NOT NULL DEFAULT 0,
		responsable_vacante TEXT,
		comentarios_vacante TEXT,
		tipo_reclutamiento_vacante TEXT,
		medio_reclutamiento_vacante TEXT,
		confidencial INTEGER NOT NULL DEFAULT 0
	);

	-- The importer reconciles on the ATS system ID
	CREATE UNIQUE INDEX IF NOT EXISTS idx_vacantes_id_sistema
		ON vacantes(id_sistema) WHERE id_sistema IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_vacantes_id_registro
		ON vacantes(id_registro);
	CREATE INDEX IF NOT EXISTS idx_vacantes_fecha_solicitud
		ON vacantes(fecha_solicitud);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// MASTER REGISTER
// =============================================================================

// InsertMaster adds a master row and returns its ID.
func (s *Store) InsertMaster(ctx context.Context, m recruiting.Master) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return insert(ctx, s.db, "registros_rh", `
		INSERT INTO registros_rh (tipo, fecha_registro, puesto, empresa, plaza, area)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(m.Kind), createdAt.UTC().Format(time.RFC3339), m.Position, m.Company, m.Site, m.Area)
}

// UpdateMaster rewrites position and location of a master row.
func (s *Store) UpdateMaster(ctx context.Context, m recruiting.Master) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return update(ctx, s.db, "registros_rh", m.ID, `
		UPDATE registros_rh SET puesto = ?, empresa = ?, plaza = ?, area = ?
		WHERE id = ?
	`, m.Position, m.Company, m.Site, m.Area, m.ID)
}

// ListMasters returns every master row in ID order.
func (s *Store) ListMasters(ctx context.Context) ([]recruiting.Master, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tipo, fecha_registro, puesto, empresa, plaza, area
		FROM registros_rh ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query registros_rh: %w", err)
	}
	defer rows.Close()

	masters := []recruiting.Master{}
	for rows.Next() {
		var (
			m                   recruiting.Master
			kind, createdAt     string
			company, site, area sql.NullString
		)
		if err := rows.Scan(&m.ID, &kind, &createdAt, &m.Position, &company, &site, &area); err != nil {
			return nil, fmt.Errorf("failed to scan registros_rh: %w", err)
		}
		m.Kind = recruiting.Kind(kind)
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		m.Company, m.Site, m.Area = company.String, site.String, area.String
		masters = append(masters, m)
	}
	return masters, rows.Err()
}

// =============================================================================
// HIRES
// =============================================================================

// InsertHire adds a hire and returns its ID.
func (s *Store) InsertHire(ctx context.Context, h recruiting.Hire) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insert(ctx, s.db, "altas", `
		INSERT INTO altas
		(id_registro, fecha_alta, empresa_alta, puesto_alta, plaza_alta, area_alta,
		 contratados_alta, medio_reclutamiento_alta, responsable_alta, confidencial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.MasterID, dayValue(h.HiredOn), h.Company, h.Position, h.Site, h.Area,
		h.Hired, h.Channel, h.Recruiter, h.Confidential)
}

// ListHires returns every hire in ID order.
func (s *Store) ListHires(ctx context.Context) ([]recruiting.Hire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, id_registro, fecha_alta, empresa_alta, puesto_alta, plaza_alta, area_alta,
		       contratados_alta, medio_reclutamiento_alta, responsable_alta, confidencial
		FROM altas ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query altas: %w", err)
	}
	defer rows.Close()

	hires := []recruiting.Hire{}
	for rows.Next() {
		var (
			h                                   recruiting.Hire
			hiredOn                             sql.NullString
			company, site, area, channel, owner sql.NullString
		)
		err := rows.Scan(&h.ID, &h.MasterID, &hiredOn, &company, &h.Position, &site, &area,
			&h.Hired, &channel, &owner, &h.Confidential)
		if err != nil {
			return nil, fmt.Errorf("failed to scan altas: %w", err)
		}
		h.HiredOn = scanDay(hiredOn)
		h.Company, h.Site, h.Area = company.String, site.String, area.String
		h.Channel, h.Recruiter = channel.String, owner.String
		hires = append(hires, h)
	}
	return hires, rows.Err()
}

// =============================================================================
// TERMINATIONS
// =============================================================================

const terminationColumns = `
	id, id_registro, fecha_baja, fecha_ingreso, fecha_registro_baja,
	puesto_baja, empresa_baja, plaza_baja, area_baja, tipo_baja, motivo_baja`

// InsertTermination adds a termination and returns its ID.
func (s *Store) InsertTermination(ctx context.Context, t recruiting.Termination) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insert(ctx, s.db, "bajas", `
		INSERT INTO bajas
		(id_registro, fecha_baja, fecha_ingreso, fecha_registro_baja,
		 puesto_baja, empresa_baja, plaza_baja, area_baja, tipo_baja, motivo_baja)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.MasterID, dayValue(t.TerminatedOn), dayValue(t.JoinedOn), dayValue(t.RegisteredOn),
		t.Position, t.Company, t.Site, t.Area, string(t.Kind), t.Reason)
}

// UpdateTermination rewrites the editable fields of a termination.
func (s *Store) UpdateTermination(ctx context.Context, t recruiting.Termination) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return update(ctx, s.db, "bajas", t.ID, `
		UPDATE bajas SET
			fecha_baja = ?, fecha_ingreso = ?, fecha_registro_baja = ?,
			puesto_baja = ?, empresa_baja = ?, plaza_baja = ?, area_baja = ?,
			tipo_baja = ?, motivo_baja = ?
		WHERE id = ?
	`, dayValue(t.TerminatedOn), dayValue(t.JoinedOn), dayValue(t.RegisteredOn),
		t.Position, t.Company, t.Site, t.Area, string(t.Kind), t.Reason, t.ID)
}

// GetTermination returns one termination by ID.
func (s *Store) GetTermination(ctx context.Context, id int64) (*recruiting.Termination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.queryTerminations(ctx, "SELECT"+terminationColumns+" FROM bajas WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &recruiting.NotFoundError{Table: "bajas", ID: id}
	}
	return &list[0], nil
}

// ListTerminations returns every termination in ID order.
func (s *Store) ListTerminations(ctx context.Context) ([]recruiting.Termination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTerminations(ctx, "SELECT"+terminationColumns+" FROM bajas ORDER BY id")
}

func (s *Store) queryTerminations(ctx context.Context, query string, args ...any) ([]recruiting.Termination, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bajas: %w", err)
	}
	defer rows.Close()

	terminations := []recruiting.Termination{}
	for rows.Next() {
		var (
			t                                  recruiting.Termination
			terminatedOn, joinedOn, registered sql.NullString
			company, site, area, kind, reason  sql.NullString
		)
		err := rows.Scan(&t.ID, &t.MasterID, &terminatedOn, &joinedOn, &registered,
			&t.Position, &company, &site, &area, &kind, &reason)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bajas: %w", err)
		}
		t.TerminatedOn, t.JoinedOn, t.RegisteredOn = scanDay(terminatedOn), scanDay(joinedOn), scanDay(registered)
		t.Company, t.Site, t.Area = company.String, site.String, area.String
		t.Kind = recruiting.TerminationKind(kind.String)
		t.Reason = reason.String
		terminations = append(terminations, t)
	}
	return terminations, rows.Err()
}

// =============================================================================
// REQUISITIONS
// =============================================================================

const requisitionColumns = `
	id, id_registro, id_sistema, fecha_solicitud, fecha_avance, fecha_autorizacion,
	fecha_cobertura, tipo_solicitud, estatus_solicitud, fase_proceso, puesto_vacante,
	plaza_vacante, empresa_vacante, funcion_area_vacante, vacantes_solicitadas,
	vacantes_contratadas, responsable_vacante, comentarios_vacante,
	tipo_reclutamiento_vacante, medio_reclutamiento_vacante, confidencial`

// InsertRequisition adds a requisition and returns its ID.
// A system ID that is already taken yields recruiting.ErrDuplicateSystemID.
func (s *Store) InsertRequisition(ctx context.Context, r recruiting.Requisition) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := insert(ctx, s.db, "vacantes", `
		INSERT INTO vacantes
		(id_registro, id_sistema, fecha_solicitud, fecha_avance, fecha_autorizacion,
		 fecha_cobertura, tipo_solicitud, estatus_solicitud, fase_proceso, puesto_vacante,
		 plaza_vacante, empresa_vacante, funcion_area_vacante, vacantes_solicitadas,
		 vacantes_contratadas, responsable_vacante, comentarios_vacante,
		 tipo_reclutamiento_vacante, medio_reclutamiento_vacante, confidencial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.MasterID, nullInt(r.SystemID), dayValue(r.RequestedOn), dayValue(r.ProgressOn),
		dayValue(r.AuthorizedOn), dayValue(r.FilledOn), r.RequestKind, r.Status, r.Phase,
		r.Position, r.Site, r.Company, r.Area, r.Requested, r.Filled, r.Recruiter,
		r.Comments, r.RecruitmentKind, r.Channel, r.Confidential)
	return id, systemIDConflict(err, r.SystemID)
}

// UpdateRequisition rewrites every field of a requisition except its master.
func (s *Store) UpdateRequisition(ctx context.Context, r recruiting.Requisition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := update(ctx, s.db, "vacantes", r.ID, `
		UPDATE vacantes SET
			id_sistema = ?, fecha_solicitud = ?, fecha_avance = ?, fecha_autorizacion = ?,
			fecha_cobertura = ?, tipo_solicitud = ?, estatus_solicitud = ?, fase_proceso = ?,
			puesto_vacante = ?, plaza_vacante = ?, empresa_vacante = ?, funcion_area_vacante = ?,
			vacantes_solicitadas = ?, vacantes_contratadas = ?, responsable_vacante = ?,
			comentarios_vacante = ?, tipo_reclutamiento_vacante = ?,
			medio_reclutamiento_vacante = ?, confidencial = ?
		WHERE id = ?
	`, nullInt(r.SystemID), dayValue(r.RequestedOn), dayValue(r.ProgressOn),
		dayValue(r.AuthorizedOn), dayValue(r.FilledOn), r.RequestKind, r.Status, r.Phase,
		r.Position, r.Site, r.Company, r.Area, r.Requested, r.Filled, r.Recruiter,
		r.Comments, r.RecruitmentKind, r.Channel, r.Confidential, r.ID)
	return systemIDConflict(err, r.SystemID)
}

// GetRequisition returns one requisition by ID.
func (s *Store) GetRequisition(ctx context.Context, id int64) (*recruiting.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.queryRequisitions(ctx, "SELECT"+requisitionColumns+" FROM vacantes WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &recruiting.NotFoundError{Table: "vacantes", ID: id}
	}
	return &list[0], nil
}

// FindRequisitionBySystemID returns the requisition imported with systemID.
func (s *Store) FindRequisitionBySystemID(ctx context.Context, systemID int64) (*recruiting.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.queryRequisitions(ctx, "SELECT"+requisitionColumns+" FROM vacantes WHERE id_sistema = ?", systemID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, recruiting.ErrRecordNotFound
	}
	return &list[0], nil
}

// ListRequisitions returns every requisition in ID order.
func (s *Store) ListRequisitions(ctx context.Context) ([]recruiting.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRequisitions(ctx, "SELECT"+requisitionColumns+" FROM vacantes ORDER BY id")
}

func (s *Store) queryRequisitions(ctx context.Context, query string, args ...any) ([]recruiting.Requisition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vacantes: %w", err)
	}
	defer rows.Close()

	requisitions := []recruiting.Requisition{}
	for rows.Next() {
		r, err := scanRequisition(rows)
		if err != nil {
			return nil, err
		}
		requisitions = append(requisitions, r)
	}
	return requisitions, rows.Err()
}

func scanRequisition(rows *sql.Rows) (recruiting.Requisition, error) {
	var (
		r                                             recruiting.Requisition
		systemID                                      sql.NullInt64
		requestedOn, progressOn, authorizedOn, filled sql.NullString
		requestKind, status, phase                    sql.NullString
		site, company, area                           sql.NullString
		recruiter, comments, recruitmentKind, channel sql.NullString
	)

	err := rows.Scan(
		&r.ID, &r.MasterID, &systemID, &requestedOn, &progressOn, &authorizedOn,
		&filled, &requestKind, &status, &phase, &r.Position,
		&site, &company, &area, &r.Requested,
		&r.Filled, &recruiter, &comments,
		&recruitmentKind, &channel, &r.Confidential,
	)
	if err != nil {
		return r, fmt.Errorf("failed to scan vacantes: %w", err)
	}

	if systemID.Valid {
		id := systemID.Int64
		r.SystemID = &id
	}
	r.RequestedOn, r.ProgressOn = scanDay(requestedOn), scanDay(progressOn)
	r.AuthorizedOn, r.FilledOn = scanDay(authorizedOn), scanDay(filled)
	r.RequestKind, r.Status, r.Phase = requestKind.String, status.String, phase.String
	r.Site, r.Company, r.Area = site.String, company.String, area.String
	r.Recruiter, r.Comments = recruiter.String, comments.String
	r.RecruitmentKind, r.Channel = recruitmentKind.String, channel.String

	return r, nil
}

// =============================================================================
// ADMIN OPERATIONS
// =============================================================================

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// details first: they reference registros_rh
	tables := []string{"altas", "bajas", "vacantes", "registros_rh"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func insert(ctx context.Context, db execer, table, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s id: %w", table, err)
	}
	return id, nil
}

func update(ctx context.Context, db execer, table string, id int64, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", table, id, err)
	}
	if n == 0 {
		return &recruiting.NotFoundError{Table: table, ID: id}
	}
	return nil
}

// dayValue stores a date as ISO text, or NULL when absent.
func dayValue(d *engine.Day) any {
	if v, ok := engine.Deref(d); ok {
		return v.String()
	}
	return nil
}

func scanDay(v sql.NullString) *engine.Day {
	if !v.Valid {
		return nil
	}
	return engine.ParseDayPtr(v.String, time.UTC)
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func systemIDConflict(err error, systemID *int64) error {
	if err == nil || systemID == nil || !isUniqueConstraintError(err) {
		return err
	}
	return fmt.Errorf("system id %d: %w", *systemID, recruiting.ErrDuplicateSystemID)
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
