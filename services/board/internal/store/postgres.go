package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txAttempts is the number of optimistic write attempts (first try plus one retry).
const txAttempts = 2

// PostgresStore persists comments and reports in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const commentColumns = `id, missing_person_id, user_id, nickname, content, type, created_at, updated_at,
	likes, liked_by, is_edited, is_deleted, is_hidden, is_reported, report_count, reported_by, version`

const reportColumns = `id, comment_id, reporter_id, reason, description, created_at, status, resolved_by, resolved_at`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.MissingPersonID, &c.UserID, &c.Nickname, &c.Content, &c.Type,
		&c.CreatedAt, &c.UpdatedAt, &c.Likes, &c.LikedBy, &c.IsEdited, &c.IsDeleted,
		&c.IsHidden, &c.IsReported, &c.ReportCount, &c.ReportedBy, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.CommentID, &r.ReporterID, &r.Reason, &r.Description,
		&r.CreatedAt, &r.Status, &r.ResolvedBy, &r.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	const q = `INSERT INTO comments (id, missing_person_id, user_id, nickname, content, type)
	           VALUES ($1, $2, $3, $4, $5, $6)
	           RETURNING ` + commentColumns
	return scanComment(s.pool.QueryRow(ctx, q, uuid.NewString(), c.MissingPersonID, c.UserID, c.Nickname, c.Content, c.Type))
}

func (s *PostgresStore) GetComment(ctx context.Context, id string) (Comment, error) {
	return scanComment(s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
}

func (s *PostgresStore) ListComments(ctx context.Context, f CommentFilter) ([]Comment, error) {
	order := `created_at DESC, id DESC`
	if f.Order == OrderPopular {
		order = `likes DESC, created_at DESC, id DESC`
	}
	q := `SELECT ` + commentColumns + ` FROM comments
	      WHERE missing_person_id = $1
	        AND ($2 = '' OR type = $2)
	        AND ($3 OR NOT is_hidden)
	      ORDER BY ` + order + `
	      LIMIT $4`
	rows, err := s.pool.Query(ctx, q, f.MissingPersonID, string(f.Type), f.IncludeHidden, f.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// writeComment stores next if the row still has the version it was read at.
func writeComment(ctx context.Context, db execer, readVersion int64, next Comment) (bool, error) {
	const q = `UPDATE comments SET
	             content = $3, nickname = $4, likes = $5, liked_by = $6, is_edited = $7,
	             is_deleted = $8, is_hidden = $9, is_reported = $10, report_count = $11,
	             reported_by = $12, updated_at = $13, version = version + 1
	           WHERE id = $1 AND version = $2`
	tag, err := db.Exec(ctx, q, next.ID, readVersion,
		next.Content, next.Nickname, len(next.LikedBy), nonNil(next.LikedBy), next.IsEdited,
		next.IsDeleted, next.IsHidden, next.IsReported, len(next.ReportedBy),
		nonNil(next.ReportedBy), next.UpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *PostgresStore) UpdateComment(ctx context.Context, id string, m Mutation) (Comment, error) {
	for range txAttempts {
		cur, err := s.GetComment(ctx, id)
		if err != nil {
			return Comment{}, err
		}
		next, err := m(cur)
		if err != nil {
			return Comment{}, err
		}
		next.ID = cur.ID
		ok, err := writeComment(ctx, s.pool, cur.Version, next)
		if err != nil {
			return Comment{}, fmt.Errorf("update comment %s: %w", id, err)
		}
		if ok {
			next.Version = cur.Version + 1
			next.Likes, next.ReportCount = len(next.LikedBy), len(next.ReportedBy)
			return next, nil
		}
	}
	return Comment{}, ErrTxConflict
}

func (s *PostgresStore) FileReport(ctx context.Context, r Report, m Mutation) (Comment, Report, error) {
	for range txAttempts {
		c, rep, ok, err := s.fileReportOnce(ctx, r, m)
		if err != nil {
			return Comment{}, Report{}, err
		}
		if ok {
			return c, rep, nil
		}
	}
	return Comment{}, Report{}, ErrTxConflict
}

// fileReportOnce reports ok=false when the comment changed underneath it.
func (s *PostgresStore) fileReportOnce(ctx context.Context, r Report, m Mutation) (Comment, Report, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Comment{}, Report{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanComment(tx.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, r.CommentID))
	if err != nil {
		return Comment{}, Report{}, false, err
	}

	const ins = `INSERT INTO comment_reports (id, comment_id, reporter_id, reason, description)
	             VALUES ($1, $2, $3, $4, $5)
	             ON CONFLICT (comment_id, reporter_id) DO NOTHING
	             RETURNING ` + reportColumns
	rep, err := scanReport(tx.QueryRow(ctx, ins, uuid.NewString(), r.CommentID, r.ReporterID, r.Reason, r.Description))
	if errors.Is(err, ErrNotFound) {
		return Comment{}, Report{}, false, ErrDuplicateReport
	}
	if err != nil {
		return Comment{}, Report{}, false, fmt.Errorf("insert report: %w", err)
	}

	next, err := m(cur)
	if err != nil {
		return Comment{}, Report{}, false, err
	}
	next.ID = cur.ID
	ok, err := writeComment(ctx, tx, cur.Version, next)
	if err != nil || !ok {
		return Comment{}, Report{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Comment{}, Report{}, false, err
	}
	next.Version = cur.Version + 1
	next.Likes, next.ReportCount = len(next.LikedBy), len(next.ReportedBy)
	return next, rep, true, nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (Report, error) {
	return scanReport(s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM comment_reports WHERE id = $1`, id))
}

func (s *PostgresStore) ListReports(ctx context.Context, f ReportFilter) ([]Report, error) {
	q := `SELECT ` + reportColumns + ` FROM comment_reports
	      WHERE ($1 = '' OR status = $1)
	      ORDER BY created_at DESC, id DESC
	      LIMIT $2`
	rows, err := s.pool.Query(ctx, q, string(f.Status), f.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateReport(ctx context.Context, id string, m ReportMutation) (Report, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanReport(tx.QueryRow(ctx, `SELECT `+reportColumns+` FROM comment_reports WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return Report{}, err
	}
	next, err := m(cur)
	if err != nil {
		return Report{}, err
	}
	const q = `UPDATE comment_reports SET status = $2, resolved_by = $3, resolved_at = $4 WHERE id = $1`
	if _, err := tx.Exec(ctx, q, id, next.Status, next.ResolvedBy, next.ResolvedAt); err != nil {
		return Report{}, fmt.Errorf("update report %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Report{}, err
	}
	next.ID = cur.ID
	return next, nil
}
