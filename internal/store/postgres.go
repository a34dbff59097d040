package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/db"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	url             TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	industry        TEXT NOT NULL DEFAULT '',
	stage           TEXT NOT NULL DEFAULT '',
	tags            JSONB NOT NULL DEFAULT '[]',
	location        TEXT NOT NULL DEFAULT '',
	founded         INTEGER NOT NULL DEFAULT 0,
	logo            TEXT NOT NULL DEFAULT '',
	enrichment      JSONB,
	enrichment_demo BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lists (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS list_companies (
	list_id    TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	PRIMARY KEY (list_id, company_id)
);

CREATE TABLE IF NOT EXISTS saved_searches (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	filters    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS page_cache (
	url        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	fetched_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_url ON companies(url);
CREATE INDEX IF NOT EXISTS idx_companies_demo ON companies(enrichment_demo) WHERE enrichment_demo;
CREATE INDEX IF NOT EXISTS idx_list_companies_company ON list_companies(company_id);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- companies ---

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	tags, enrichment, demo, err := encodeCompany(c)
	if err != nil {
		return eris.Wrap(err, "postgres: encode company")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO companies (`+companyColumns+`, enrichment_demo)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Name, c.URL, c.Description, c.Industry, c.Stage, tags, c.Location, c.Founded, c.Logo,
		enrichment, c.CreatedAt, c.UpdatedAt, demo,
	)
	return eris.Wrap(err, "postgres: insert company")
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanPgCompany(row)
	if err != nil {
		return nil, pgNotFoundOr(err, "postgres: get company")
	}
	return c, nil
}

func (s *PostgresStore) GetCompanyByURL(ctx context.Context, url string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE url = $1 ORDER BY created_at LIMIT 1`, url)
	c, err := scanPgCompany(row)
	if err != nil {
		return nil, pgNotFoundOr(err, "postgres: get company by url")
	}
	return c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	where, args := companyWhere(filter, func(n int) string { return fmt.Sprintf("$%d", n) }, "tags::text")
	rows, err := s.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies`+where+` ORDER BY created_at, name`+pageClause(filter),
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanPgCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate companies")
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()
	tags, _, _, err := encodeCompany(&model.Company{Tags: c.Tags})
	if err != nil {
		return eris.Wrap(err, "postgres: encode tags")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1, url = $2, description = $3, industry = $4, stage = $5, tags = $6,
		 location = $7, founded = $8, logo = $9, updated_at = $10 WHERE id = $11`,
		c.Name, c.URL, c.Description, c.Industry, c.Stage, tags,
		c.Location, c.Founded, c.Logo, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", c.ID)
	}
	return nil
}

func (s *PostgresStore) SetEnrichment(ctx context.Context, id string, e *model.Enrichment) error {
	enrichment, demo, err := encodeEnrichment(e)
	if err != nil {
		return eris.Wrap(err, "postgres: encode enrichment")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET enrichment = $1, enrichment_demo = $2, updated_at = $3 WHERE id = $4`,
		enrichment, demo, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set enrichment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	return nil
}

// DeleteCompanies relies on ON DELETE CASCADE to drop list memberships.
func (s *PostgresStore) DeleteCompanies(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete companies")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ClearDemoEnrichments(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET enrichment = NULL, enrichment_demo = false, updated_at = $1 WHERE enrichment_demo`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear demo enrichments")
	}
	return tag.RowsAffected(), nil
}

// --- lists ---

func (s *PostgresStore) CreateList(ctx context.Context, l *model.CompanyList) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	if l.CompanyIDs == nil {
		l.CompanyIDs = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lists (id, name, description, color, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.Name, l.Description, l.Color, l.CreatedAt, l.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert list")
}

func (s *PostgresStore) GetList(ctx context.Context, id string) (*model.CompanyList, error) {
	var l model.CompanyList
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, color, created_at, updated_at,
		 COALESCE((SELECT array_agg(company_id ORDER BY position) FROM list_companies WHERE list_id = lists.id), '{}')
		 FROM lists WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Description, &l.Color, &l.CreatedAt, &l.UpdatedAt, &l.CompanyIDs)
	if err != nil {
		return nil, pgNotFoundOr(err, "postgres: get list")
	}
	return &l, nil
}

func (s *PostgresStore) ListLists(ctx context.Context) ([]model.CompanyList, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, color, created_at, updated_at,
		 COALESCE((SELECT array_agg(company_id ORDER BY position) FROM list_companies WHERE list_id = lists.id), '{}')
		 FROM lists ORDER BY created_at, name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lists")
	}
	defer rows.Close()

	var out []model.CompanyList
	for rows.Next() {
		var l model.CompanyList
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Color, &l.CreatedAt, &l.UpdatedAt, &l.CompanyIDs); err != nil {
			return nil, eris.Wrap(err, "postgres: scan list")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate lists")
}

func (s *PostgresStore) CountLists(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lists`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count lists")
}

func (s *PostgresStore) DeleteList(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete list %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "list %s", id)
	}
	return nil
}

func (s *PostgresStore) AddToList(ctx context.Context, listID string, companyIDs ...string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin add to list")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `UPDATE lists SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), listID)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: touch list %s", listID)
	}
	if tag.RowsAffected() == 0 {
		return 0, eris.Wrapf(ErrNotFound, "list %s", listID)
	}

	var pos int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM list_companies WHERE list_id = $1`, listID,
	).Scan(&pos); err != nil {
		return 0, eris.Wrap(err, "postgres: next position")
	}

	added := 0
	for _, cid := range companyIDs {
		tag, err := tx.Exec(ctx,
			`INSERT INTO list_companies (list_id, company_id, position) VALUES ($1, $2, $3)
			 ON CONFLICT (list_id, company_id) DO NOTHING`,
			listID, cid, pos,
		)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: insert list member")
		}
		if tag.RowsAffected() > 0 {
			added++
			pos++
		}
	}
	return added, eris.Wrap(tx.Commit(ctx), "postgres: commit add to list")
}

func (s *PostgresStore) RemoveFromList(ctx context.Context, listID, companyID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE lists SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), listID)
	if err != nil {
		return eris.Wrapf(err, "postgres: touch list %s", listID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "list %s", listID)
	}
	_, err = s.pool.Exec(ctx,
		`DELETE FROM list_companies WHERE list_id = $1 AND company_id = $2`, listID, companyID)
	return eris.Wrap(err, "postgres: remove list member")
}

// --- saved searches ---

func (s *PostgresStore) CreateSavedSearch(ctx context.Context, ss *model.SavedSearch) error {
	if ss.ID == "" {
		ss.ID = uuid.New().String()
	}
	ss.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO saved_searches (id, name, filters, created_at) VALUES ($1, $2, $3, $4)`,
		ss.ID, ss.Name, ss.Filters, ss.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert saved search")
}

func (s *PostgresStore) ListSavedSearches(ctx context.Context) ([]model.SavedSearch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, filters, created_at FROM saved_searches ORDER BY created_at, name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list saved searches")
	}
	defer rows.Close()

	var out []model.SavedSearch
	for rows.Next() {
		var ss model.SavedSearch
		if err := rows.Scan(&ss.ID, &ss.Name, &ss.Filters, &ss.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan saved search")
		}
		out = append(out, ss)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate saved searches")
}

func (s *PostgresStore) DeleteSavedSearch(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete saved search %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "saved search %s", id)
	}
	return nil
}

// --- settings ---

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&v)
	if err != nil {
		return "", pgNotFoundOr(err, "postgres: get setting")
	}
	return v, nil
}

func (s *PostgresStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set setting %s", key)
}

// --- page cache ---

func (s *PostgresStore) GetPage(ctx context.Context, url string, now time.Time) (*model.CachedPage, error) {
	var p model.CachedPage
	err := s.pool.QueryRow(ctx,
		`SELECT url, content, source, fetched_at, expires_at FROM page_cache WHERE url = $1 AND expires_at > $2`,
		url, now.UTC(),
	).Scan(&p.URL, &p.Content, &p.Source, &p.FetchedAt, &p.ExpiresAt)
	if err != nil {
		return nil, pgNotFoundOr(err, "postgres: get page")
	}
	return &p, nil
}

func (s *PostgresStore) PutPage(ctx context.Context, p model.CachedPage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO page_cache (url, content, source, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (url) DO UPDATE SET content = EXCLUDED.content, source = EXCLUDED.source,
		 fetched_at = EXCLUDED.fetched_at, expires_at = EXCLUDED.expires_at`,
		p.URL, p.Content, p.Source, p.FetchedAt.UTC(), p.ExpiresAt.UTC(),
	)
	return eris.Wrap(err, "postgres: put page")
}

func (s *PostgresStore) DeleteExpiredPages(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM page_cache WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired pages")
	}
	return tag.RowsAffected(), nil
}

// helpers

func pgNotFoundOr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrap(ErrNotFound, msg)
	}
	return eris.Wrap(err, msg)
}

func scanPgCompany(row pgx.Row) (*model.Company, error) {
	var (
		c          model.Company
		tags       []byte
		enrichment []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.URL, &c.Description, &c.Industry, &c.Stage, &tags,
		&c.Location, &c.Founded, &c.Logo, &enrichment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeCompany(&c, tags, enrichment != nil, enrichment); err != nil {
		return nil, err
	}
	return &c, nil
}
