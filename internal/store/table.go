package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"jobwatch-engine/internal/domain"
)

const schemaV1 = 1

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= schemaV1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  company TEXT NOT NULL,
  url TEXT NOT NULL,
  title TEXT NOT NULL,
  level TEXT NOT NULL,
  specialty TEXT,
  discipline TEXT NOT NULL,
  is_general_application INTEGER NOT NULL DEFAULT 0,
  first_seen TEXT NOT NULL,
  missing_since TEXT
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_jobs_source
ON jobs(source);
`); err != nil {
		return err
	}

	// Mark schema v1
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaV1)); err != nil {
		return err
	}

	return tx.Commit()
}

func loadJobs(ctx context.Context, db *sql.DB) (domain.Store, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, source, company, url, title, level, specialty, discipline,
       is_general_application, first_seen, missing_since
FROM jobs;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := domain.Store{}
	for rows.Next() {
		var (
			j                  domain.Job
			level, discipline  string
			specialty, missing sql.NullString
			firstSeen          string
			generalApplication int
		)
		if err := rows.Scan(
			&j.ID,
			&j.Source,
			&j.Company,
			&j.URL,
			&j.Title,
			&level,
			&specialty,
			&discipline,
			&generalApplication,
			&firstSeen,
			&missing,
		); err != nil {
			return nil, err
		}
		if err := j.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("job %q: %w", j.ID, err)
		}
		if err := j.Discipline.UnmarshalText([]byte(discipline)); err != nil {
			return nil, fmt.Errorf("job %q: %w", j.ID, err)
		}
		if j.Specialty, err = domain.ParseOptSpecialty(specialty.String); err != nil {
			return nil, fmt.Errorf("job %q: %w", j.ID, err)
		}
		j.IsGeneralApplication = generalApplication != 0
		if j.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
			return nil, fmt.Errorf("job %q first_seen: %w", j.ID, err)
		}
		if missing.Valid {
			t, err := time.Parse(time.RFC3339Nano, missing.String)
			if err != nil {
				return nil, fmt.Errorf("job %q missing_since: %w", j.ID, err)
			}
			j.MissingSince = &t
		}
		out[j.ID] = j
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func replaceJobs(ctx context.Context, db *sql.DB, s domain.Store) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO jobs (id, source, company, url, title, level, specialty, discipline,
                  is_general_application, first_seen, missing_since)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		j := s[id]
		level, err := j.Level.MarshalText()
		if err != nil {
			return fmt.Errorf("job %q: %w", id, err)
		}
		discipline, err := j.Discipline.MarshalText()
		if err != nil {
			return fmt.Errorf("job %q: %w", id, err)
		}
		var specialty sql.NullString
		if sp, ok := j.Specialty.Get(); ok {
			specialty = sql.NullString{String: sp.String(), Valid: true}
		}
		var missing sql.NullString
		if j.MissingSince != nil {
			missing = sql.NullString{String: j.MissingSince.UTC().Format(time.RFC3339Nano), Valid: true}
		}
		ga := 0
		if j.IsGeneralApplication {
			ga = 1
		}
		if _, err := stmt.ExecContext(ctx,
			id,
			j.Source,
			j.Company,
			j.URL,
			j.Title,
			string(level),
			specialty,
			string(discipline),
			ga,
			j.FirstSeen.UTC().Format(time.RFC3339Nano),
			missing,
		); err != nil {
			return fmt.Errorf("insert job %q: %w", id, err)
		}
	}

	return tx.Commit()
}
