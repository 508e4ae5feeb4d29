package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error

	now func() time.Time
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened lazily; the schema is created with the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{
		dbPath: dbPath,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateMission(ctx context.Context, id string, config any) (err error) {
	configData, err := toConfigData(config)
	if err != nil {
		return err
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertMissionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if _, err = stmt.ExecContext(ctx, id, s.now(), StatusRunning, configData); err != nil {
		return fmt.Errorf("inserting mission: %w", err)
	}
	return nil
}

func (s *SqliteStore) FinishMission(ctx context.Context, id, status string) error {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	result, err := db.ExecContext(ctx, finishMissionSQL, s.now(), status, id)
	if err != nil {
		return fmt.Errorf("finishing mission: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mission '%s': %w", id, ErrNotFound)
	}
	return nil
}

func (s *SqliteStore) SaveSite(ctx context.Context, site *Site) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM missions WHERE id = ?`, site.MissionID).Scan(&exists); err != nil {
		return fmt.Errorf("looking up mission: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("mission '%s': %w", site.MissionID, ErrNotFound)
	}

	symbol := sql.NullString{String: site.Symbol, Valid: site.SymbolSeen}
	if _, err = tx.ExecContext(ctx, upsertSiteSQL,
		site.MissionID,
		site.Index,
		site.X,
		site.Y,
		site.Color,
		site.Ambiguous,
		site.Marker,
		site.Diagnosis,
		site.Note,
		symbol,
		site.SymbolSeen,
		site.Revisited,
		s.now(),
	); err != nil {
		return fmt.Errorf("saving site %d: %w", site.Index, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SqliteStore) Mission(ctx context.Context, id string) (mission *Mission, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, selectMissionSQL)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	mission, err = scanMission(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mission '%s': %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning mission: %w", err)
	}
	return mission, nil
}

func (s *SqliteStore) Missions(ctx context.Context) (missions []*Mission, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectMissionsSQL)
	if err != nil {
		err = fmt.Errorf("querying missions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var m *Mission
		if m, err = scanMission(rows); err != nil {
			err = fmt.Errorf("scanning mission: %w", err)
			return
		}
		missions = append(missions, m)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Sites(ctx context.Context, missionID string) (sites []*Site, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSitesSQL, missionID)
	if err != nil {
		err = fmt.Errorf("querying sites: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var site Site
		var symbol sql.NullString
		if err = rows.Scan(
			&site.MissionID,
			&site.Index,
			&site.X,
			&site.Y,
			&site.Color,
			&site.Ambiguous,
			&site.Marker,
			&site.Diagnosis,
			&site.Note,
			&symbol,
			&site.SymbolSeen,
			&site.Revisited,
			&site.UpdatedAt,
		); err != nil {
			err = fmt.Errorf("scanning site: %w", err)
			return
		}
		site.Symbol = symbol.String
		sites = append(sites, &site)
	}
	err = rows.Err()
	return
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
