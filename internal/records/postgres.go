package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists records in the missing_persons table
// (see migrations/0001_missing_persons.sql).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const personColumns = `id, name, age, gender, lat, lng, address, photo_url, description,
	missing_date, category, status, source, height, weight, body_type, face_shape,
	hair_style, hair_color, clothing, reporter, created_at`

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM missing_persons WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) Create(ctx context.Context, p MissingPerson) (MissingPerson, error) {
	var reporter []byte
	if p.Reporter != nil {
		b, err := json.Marshal(p.Reporter)
		if err != nil {
			return MissingPerson{}, fmt.Errorf("encode reporter: %w", err)
		}
		reporter = b
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	q := `INSERT INTO missing_persons (` + personColumns + `)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	      ON CONFLICT (id) DO NOTHING
	      RETURNING ` + personColumns
	row := s.pool.QueryRow(ctx, q,
		p.ID, p.Name, p.Age, string(p.Gender), p.Location.Lat, p.Location.Lng, p.Location.Address,
		p.PhotoURL, p.Description, p.MissingDate, string(p.Category), string(p.Status), string(p.Source),
		p.Physical.Height, p.Physical.Weight, p.Physical.BodyType, p.Physical.FaceShape,
		p.Physical.HairStyle, p.Physical.HairColor, p.Physical.Clothing, reporter, p.CreatedAt,
	)
	out, err := scanPerson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return MissingPerson{}, ErrExists
	}
	return out, err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (MissingPerson, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+personColumns+` FROM missing_persons WHERE id = $1`, id)
	p, err := scanPerson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return MissingPerson{}, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]MissingPerson, error) {
	var where []string
	var args []any
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("category", string(f.Category))
	add("status", string(f.Status))
	add("source", string(f.Source))

	q := `SELECT ` + personColumns + ` FROM missing_persons`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.limit())
	q += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MissingPerson{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM missing_persons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPerson(row pgx.Row) (MissingPerson, error) {
	var (
		p                        MissingPerson
		gender, cat, status, src string
		reporter                 []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Age, &gender, &p.Location.Lat, &p.Location.Lng, &p.Location.Address,
		&p.PhotoURL, &p.Description, &p.MissingDate, &cat, &status, &src,
		&p.Physical.Height, &p.Physical.Weight, &p.Physical.BodyType, &p.Physical.FaceShape,
		&p.Physical.HairStyle, &p.Physical.HairColor, &p.Physical.Clothing, &reporter, &p.CreatedAt)
	if err != nil {
		return MissingPerson{}, err
	}
	p.Gender, p.Category, p.Status, p.Source = Gender(gender), Category(cat), Status(status), Source(src)
	if len(reporter) > 0 {
		var r Reporter
		if err := json.Unmarshal(reporter, &r); err != nil {
			return MissingPerson{}, fmt.Errorf("decode reporter: %w", err)
		}
		p.Reporter = &r
	}
	return p, nil
}
