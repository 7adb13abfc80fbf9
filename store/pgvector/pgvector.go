package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"doc_retrieval/store"

	"github.com/lib/pq"
)

// Config contains connection details for a Postgres server with the pgvector
// extension. Collection names the table holding the chunks; it must have an
// id column, a text column named DocumentField and a vector column "embedding".
type Config struct {
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	SSLMode       string
	Collection    string
	DocumentField string
}

// Collection implements store.Collection on a pgvector table
type Collection struct {
	db    *sql.DB
	table string
	query string
}

// DSN renders cfg as a lib/pq connection string.
func (cfg Config) DSN() string {
	parts := []string{
		"host=" + quoteDSNValue(cfg.Host),
		"port=" + strconv.Itoa(cfg.Port),
		"user=" + quoteDSNValue(cfg.User),
		"dbname=" + quoteDSNValue(cfg.DBName),
		"sslmode=" + quoteDSNValue(cfg.SSLMode),
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(cfg.Password))
	}
	return strings.Join(parts, " ")
}

// Open connects to Postgres and checks that the collection table exists.
func Open(ctx context.Context, cfg Config) (*Collection, error) {
	connector, err := pq.NewConnector(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("fail to parse postgres dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("fail to reach postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	c, err := newCollection(ctx, db, cfg.Collection, cfg.DocumentField)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// newCollection binds db to table after checking that the table exists.
func newCollection(ctx context.Context, db *sql.DB, table, documentColumn string) (*Collection, error) {
	var regclass sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", pq.QuoteIdentifier(table)).Scan(&regclass); err != nil {
		return nil, fmt.Errorf("fail to look up table %s: %w", table, err)
	}
	if !regclass.Valid {
		return nil, fmt.Errorf("pgvector table %s: %w", table, store.ErrCollectionNotFound)
	}

	return &Collection{
		db:    db,
		table: table,
		query: searchQuery(table, documentColumn),
	}, nil
}

func (c *Collection) Name() string {
	return c.table
}

// Query implements store.Collection
func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]store.Match, error) {
	rows, err := c.db.QueryContext(ctx, c.query, floatsToPgVectorLiteral(vector), k)
	if err != nil {
		return nil, fmt.Errorf("fail to search pgvector table %s: %w", c.table, err)
	}
	defer rows.Close()

	var res []store.Match
	for rows.Next() {
		var (
			m   store.Match
			doc sql.NullString
		)
		if err := rows.Scan(&m.ID, &doc, &m.Distance); err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrMalformedResult, err)
		}
		if !doc.Valid {
			return nil, fmt.Errorf("%w: row %s has a NULL document", store.ErrMalformedResult, m.ID)
		}
		m.Document = doc.String
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fail to read pgvector rows: %w", err)
	}
	if len(res) > k {
		return nil, fmt.Errorf("%w: %d rows for limit %d", store.ErrMalformedResult, len(res), k)
	}
	return res, nil
}

func (c *Collection) Close() error {
	return c.db.Close()
}

// searchQuery orders by cosine distance (<=>), matching the default index opclass.
func searchQuery(table, documentColumn string) string {
	return fmt.Sprintf(`SELECT id::text, %s, (embedding <=> $1::vector)::real AS distance
		FROM %s
		ORDER BY distance
		LIMIT $2`, pq.QuoteIdentifier(documentColumn), pq.QuoteIdentifier(table))
}

func floatsToPgVectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, f := range v {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteString("]")
	return sb.String()
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
