package creators

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresIndex queries the creator directory table read-only.
type PostgresIndex struct {
	pool  *pgxpool.Pool
	query string
}

// NewPostgresIndex connects to dsn and prepares the lookup against table.name.
func NewPostgresIndex(ctx context.Context, dsn, table string) (*PostgresIndex, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid creators table %q", table)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect creators db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping creators db: %w", err)
	}

	return &PostgresIndex{
		pool:  pool,
		query: lookupQuery(table),
	}, nil
}

func lookupQuery(table string) string {
	return fmt.Sprintf(`SELECT 1 FROM %s WHERE name ILIKE '%%' || $1 || '%%' ESCAPE '\' LIMIT 1`, table)
}

// Contains runs a case-insensitive contains match limited to one row.
func (p *PostgresIndex) Contains(ctx context.Context, name string) (bool, error) {
	var one int
	err := p.pool.QueryRow(ctx, p.query, escapeLike(name)).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query creators: %w", err)
	}
	return true, nil
}

// Close releases the pool.
func (p *PostgresIndex) Close() {
	p.pool.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
