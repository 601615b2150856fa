// internal/store/store.go
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidwang456/github-commit-query-system/internal/model"
)

// CommitSearch are the filters for a paginated commit query. Repository and
// Branch are case-insensitive substring matches; empty means unfiltered.
// Limit and Offset are assumed pre-clamped by the caller.
type CommitSearch struct {
	Token      string
	Repository string
	Branch     string
	Limit      int
	Offset     int
}

// Querier is the persistence surface used by the sync and query layers.
type Querier interface {
	UpsertProject(ctx context.Context, p model.Project) error
	UpsertCommit(ctx context.Context, c model.CommitRecord) error
	ReplaceDailyCounts(ctx context.Context, token, startDate, endDate string, counts map[string]int) error
	DailyCountsRange(ctx context.Context, token, startDate, endDate string) (map[string]int, error)
	HasData(ctx context.Context, token string) (bool, error)
	SearchCommits(ctx context.Context, q CommitSearch) (int64, []model.CommitRecord, error)
	DistinctRepositories(ctx context.Context, token string) ([]string, error)
	DistinctBranches(ctx context.Context, token, repository string) ([]string, error)
}

// DB implements Querier on a Postgres pool.
type DB struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// UpsertProject writes the whole project row, replacing any previous state
// for (token, project_id).
func (db *DB) UpsertProject(ctx context.Context, p model.Project) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO projects (token, project_id, name, visibility, top_language, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token, project_id) DO UPDATE SET
			name = EXCLUDED.name,
			visibility = EXCLUDED.visibility,
			top_language = EXCLUDED.top_language,
			synced_at = EXCLUDED.synced_at`,
		p.Token, p.ProjectID, p.Name, p.Visibility, p.TopLanguage, p.SyncedAt)
	if err != nil {
		return fmt.Errorf("upsert project %d: %w", p.ProjectID, err)
	}
	return nil
}

// UpsertCommit writes one commit row keyed by (token, repository, sha).
// Re-syncing the same commit overwrites it, so repeated runs never
// accumulate duplicates.
func (db *DB) UpsertCommit(ctx context.Context, c model.CommitRecord) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO commit_records (token, repository, sha, branch, committed_at, author, message, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (token, repository, sha) DO UPDATE SET
			branch = EXCLUDED.branch,
			committed_at = EXCLUDED.committed_at,
			author = EXCLUDED.author,
			message = EXCLUDED.message,
			url = EXCLUDED.url`,
		c.Token, c.Repository, c.SHA, c.Branch, c.CommittedAt, c.Author, c.Message, c.URL)
	if err != nil {
		return fmt.Errorf("upsert commit %s: %w", c.SHA, err)
	}
	return nil
}

// ReplaceDailyCounts swaps every daily row for (token, [startDate, endDate])
// with the freshly computed counts, in one transaction. Zero-count days are
// not stored. Concurrent runs for the same token and overlapping ranges are
// not serialized and may race.
func (db *DB) ReplaceDailyCounts(ctx context.Context, token, startDate, endDate string, counts map[string]int) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // Rollback is a no-op if the transaction is already committed.

	_, err = tx.Exec(ctx, `
		DELETE FROM commit_daily
		WHERE token = $1 AND date BETWEEN $2::date AND $3::date`,
		token, startDate, endDate)
	if err != nil {
		return fmt.Errorf("delete daily counts: %w", err)
	}

	if len(counts) > 0 {
		dates := make([]string, 0, len(counts))
		for d := range counts {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		rows := make([][]any, 0, len(dates))
		for _, d := range dates {
			day, err := time.ParseInLocation(model.DateFormat, d, time.Local)
			if err != nil {
				return fmt.Errorf("parse daily count date %q: %w", d, err)
			}
			rows = append(rows, []any{token, day, counts[d]})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"commit_daily"},
			[]string{"token", "date", "count"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("insert daily counts: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// DailyCountsRange returns the stored counts inside [startDate, endDate]
// as a date-keyed map. Absent days are simply not in the map.
func (db *DB) DailyCountsRange(ctx context.Context, token, startDate, endDate string) (map[string]int, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT date, count FROM commit_daily
		WHERE token = $1 AND date BETWEEN $2::date AND $3::date`,
		token, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day time.Time
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		counts[day.Format(model.DateFormat)] = count
	}
	return counts, rows.Err()
}

// HasData reports whether any commit record exists for the token.
func (db *DB) HasData(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM commit_records WHERE token = $1)`,
		token).Scan(&exists)
	return exists, err
}

// SearchCommits runs the filtered commit query: exact token, optional
// contains filters, newest first. Filter input is escaped so it matches
// literally rather than as a pattern.
func (db *DB) SearchCommits(ctx context.Context, q CommitSearch) (int64, []model.CommitRecord, error) {
	where := []string{"token = $1"}
	args := []any{q.Token}

	if q.Repository != "" {
		args = append(args, "%"+escapeLike(q.Repository)+"%")
		where = append(where, fmt.Sprintf(`repository ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if q.Branch != "" {
		args = append(args, "%"+escapeLike(q.Branch)+"%")
		where = append(where, fmt.Sprintf(`branch ILIKE $%d ESCAPE '\'`, len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	err := db.pool.QueryRow(ctx,
		"SELECT count(*) FROM commit_records WHERE "+cond, args...).Scan(&total)
	if err != nil {
		return 0, nil, err
	}

	args = append(args, q.Limit, q.Offset)
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`
		SELECT token, repository, sha, branch, committed_at, author, message, url
		FROM commit_records
		WHERE %s
		ORDER BY committed_at DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var records []model.CommitRecord
	for rows.Next() {
		var r model.CommitRecord
		if err := rows.Scan(&r.Token, &r.Repository, &r.SHA, &r.Branch, &r.CommittedAt, &r.Author, &r.Message, &r.URL); err != nil {
			return 0, nil, err
		}
		records = append(records, r)
	}
	return total, records, rows.Err()
}

// DistinctRepositories returns the distinct repository names recorded for
// the token, unsorted.
func (db *DB) DistinctRepositories(ctx context.Context, token string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT repository FROM commit_records WHERE token = $1`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

// DistinctBranches returns the distinct branch names recorded for
// (token, repository), unsorted.
func (db *DB) DistinctBranches(ctx context.Context, token, repository string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT branch FROM commit_records WHERE token = $1 AND repository = $2`,
		token, repository)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// escapeLike makes user input safe inside an ILIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
