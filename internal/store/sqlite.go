package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection keeps per-connection pragmas in force and
	// serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	url             TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	industry        TEXT NOT NULL DEFAULT '',
	stage           TEXT NOT NULL DEFAULT '',
	tags            TEXT NOT NULL DEFAULT '[]',
	location        TEXT NOT NULL DEFAULT '',
	founded         INTEGER NOT NULL DEFAULT 0,
	logo            TEXT NOT NULL DEFAULT '',
	enrichment      TEXT,
	enrichment_demo INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS lists (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS list_companies (
	list_id    TEXT NOT NULL,
	company_id TEXT NOT NULL,
	position   INTEGER NOT NULL,
	PRIMARY KEY (list_id, company_id)
);

CREATE TABLE IF NOT EXISTS saved_searches (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	filters    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS page_cache (
	url        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	fetched_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_url ON companies(url);
CREATE INDEX IF NOT EXISTS idx_companies_demo ON companies(enrichment_demo);
CREATE INDEX IF NOT EXISTS idx_list_companies_company ON list_companies(company_id);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- companies ---

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	tags, enrichment, demo, err := encodeCompany(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode company")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`, enrichment_demo)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.URL, c.Description, c.Industry, c.Stage, tags, c.Location, c.Founded, c.Logo,
		enrichment, c.CreatedAt, c.UpdatedAt, demo,
	)
	return eris.Wrap(err, "sqlite: insert company")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if err != nil {
		return nil, notFoundOr(err, "sqlite: get company")
	}
	return c, nil
}

func (s *SQLiteStore) GetCompanyByURL(ctx context.Context, url string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE url = ? ORDER BY created_at LIMIT 1`, url)
	c, err := scanCompany(row)
	if err != nil {
		return nil, notFoundOr(err, "sqlite: get company by url")
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	where, args := companyWhere(filter, func(int) string { return "?" }, "tags")
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies`+where+` ORDER BY created_at, name`+pageClause(filter),
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()
	tags, err := json.Marshal(nonNil(c.Tags))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tags")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, url = ?, description = ?, industry = ?, stage = ?, tags = ?,
		 location = ?, founded = ?, logo = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.URL, c.Description, c.Industry, c.Stage, string(tags),
		c.Location, c.Founded, c.Logo, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", c.ID)
	}
	return checkRowsAffected(res, "company", c.ID)
}

func (s *SQLiteStore) SetEnrichment(ctx context.Context, id string, e *model.Enrichment) error {
	enrichment, demo, err := encodeEnrichment(e)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode enrichment")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET enrichment = ?, enrichment_demo = ?, updated_at = ? WHERE id = ?`,
		enrichment, demo, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set enrichment %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

func (s *SQLiteStore) DeleteCompanies(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ph, args := sqlitePlaceholders(ids)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin delete companies")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_companies WHERE company_id IN (`+ph+`)`, args...); err != nil {
		return 0, eris.Wrap(err, "sqlite: delete list memberships")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE id IN (`+ph+`)`, args...)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete companies")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: commit delete companies")
}

func (s *SQLiteStore) ClearDemoEnrichments(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET enrichment = NULL, enrichment_demo = 0, updated_at = ? WHERE enrichment_demo = 1`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear demo enrichments")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

// --- lists ---

func (s *SQLiteStore) CreateList(ctx context.Context, l *model.CompanyList) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	if l.CompanyIDs == nil {
		l.CompanyIDs = []string{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lists (id, name, description, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Description, l.Color, l.CreatedAt, l.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert list")
}

func (s *SQLiteStore) GetList(ctx context.Context, id string) (*model.CompanyList, error) {
	var l model.CompanyList
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, color, created_at, updated_at FROM lists WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.Description, &l.Color, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "sqlite: get list")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT company_id FROM list_companies WHERE list_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list members")
	}
	defer rows.Close()

	l.CompanyIDs = []string{}
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan member")
		}
		l.CompanyIDs = append(l.CompanyIDs, cid)
	}
	return &l, eris.Wrap(rows.Err(), "sqlite: iterate members")
}

func (s *SQLiteStore) ListLists(ctx context.Context) ([]model.CompanyList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, color, created_at, updated_at FROM lists ORDER BY created_at, name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lists")
	}
	var out []model.CompanyList
	index := map[string]int{}
	for rows.Next() {
		var l model.CompanyList
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Color, &l.CreatedAt, &l.UpdatedAt); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan list")
		}
		l.CompanyIDs = []string{}
		index[l.ID] = len(out)
		out = append(out, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate lists")
	}

	members, err := s.db.QueryContext(ctx,
		`SELECT list_id, company_id FROM list_companies ORDER BY list_id, position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list members")
	}
	defer members.Close()
	for members.Next() {
		var lid, cid string
		if err := members.Scan(&lid, &cid); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan member")
		}
		if i, ok := index[lid]; ok {
			out[i].CompanyIDs = append(out[i].CompanyIDs, cid)
		}
	}
	return out, eris.Wrap(members.Err(), "sqlite: iterate members")
}

func (s *SQLiteStore) CountLists(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lists`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count lists")
}

func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete list")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_companies WHERE list_id = ?`, id); err != nil {
		return eris.Wrap(err, "sqlite: delete list members")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete list %s", id)
	}
	if err := checkRowsAffected(res, "list", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete list")
}

func (s *SQLiteStore) AddToList(ctx context.Context, listID string, companyIDs ...string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin add to list")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE lists SET updated_at = ? WHERE id = ?`, time.Now().UTC(), listID)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: touch list %s", listID)
	}
	if err := checkRowsAffected(res, "list", listID); err != nil {
		return 0, err
	}

	var pos int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM list_companies WHERE list_id = ?`, listID,
	).Scan(&pos); err != nil {
		return 0, eris.Wrap(err, "sqlite: next position")
	}

	added := 0
	for _, cid := range companyIDs {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO list_companies (list_id, company_id, position) VALUES (?, ?, ?)
			 ON CONFLICT (list_id, company_id) DO NOTHING`,
			listID, cid, pos,
		)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: insert list member")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
			pos++
		}
	}
	return added, eris.Wrap(tx.Commit(), "sqlite: commit add to list")
}

func (s *SQLiteStore) RemoveFromList(ctx context.Context, listID, companyID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lists SET updated_at = ? WHERE id = ?`, time.Now().UTC(), listID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: touch list %s", listID)
	}
	if err := checkRowsAffected(res, "list", listID); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM list_companies WHERE list_id = ? AND company_id = ?`, listID, companyID)
	return eris.Wrap(err, "sqlite: remove list member")
}

// --- saved searches ---

func (s *SQLiteStore) CreateSavedSearch(ctx context.Context, ss *model.SavedSearch) error {
	if ss.ID == "" {
		ss.ID = uuid.New().String()
	}
	ss.CreatedAt = time.Now().UTC()
	filters, err := json.Marshal(ss.Filters)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal filters")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_searches (id, name, filters, created_at) VALUES (?, ?, ?, ?)`,
		ss.ID, ss.Name, string(filters), ss.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert saved search")
}

func (s *SQLiteStore) ListSavedSearches(ctx context.Context) ([]model.SavedSearch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, filters, created_at FROM saved_searches ORDER BY created_at, name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list saved searches")
	}
	defer rows.Close()

	var out []model.SavedSearch
	for rows.Next() {
		var ss model.SavedSearch
		var filters string
		if err := rows.Scan(&ss.ID, &ss.Name, &filters, &ss.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan saved search")
		}
		if err := json.Unmarshal([]byte(filters), &ss.Filters); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal filters")
		}
		out = append(out, ss)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate saved searches")
}

func (s *SQLiteStore) DeleteSavedSearch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete saved search %s", id)
	}
	return checkRowsAffected(res, "saved search", id)
}

// --- settings ---

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", notFoundOr(err, "sqlite: get setting")
	}
	return v, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set setting %s", key)
}

// --- page cache ---

func (s *SQLiteStore) GetPage(ctx context.Context, url string, now time.Time) (*model.CachedPage, error) {
	var (
		p                  model.CachedPage
		fetched, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, content, source, fetched_at, expires_at FROM page_cache WHERE url = ? AND expires_at > ?`,
		url, now.UnixMilli(),
	).Scan(&p.URL, &p.Content, &p.Source, &fetched, &expiresAt)
	if err != nil {
		return nil, notFoundOr(err, "sqlite: get page")
	}
	p.FetchedAt = time.UnixMilli(fetched).UTC()
	p.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &p, nil
}

func (s *SQLiteStore) PutPage(ctx context.Context, p model.CachedPage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_cache (url, content, source, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (url) DO UPDATE SET content = excluded.content, source = excluded.source,
		 fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		p.URL, p.Content, p.Source, p.FetchedAt.UnixMilli(), p.ExpiresAt.UnixMilli(),
	)
	return eris.Wrap(err, "sqlite: put page")
}

func (s *SQLiteStore) DeleteExpiredPages(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM page_cache WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired pages")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

// notFoundOr maps sql.ErrNoRows to ErrNotFound and wraps anything else.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Wrap(ErrNotFound, msg)
	}
	return eris.Wrap(err, msg)
}

func sqlitePlaceholders(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var (
		c          model.Company
		tags       string
		enrichment sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.URL, &c.Description, &c.Industry, &c.Stage, &tags,
		&c.Location, &c.Founded, &c.Logo, &enrichment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := decodeCompany(&c, []byte(tags), enrichment.Valid, []byte(enrichment.String)); err != nil {
		return nil, err
	}
	return &c, nil
}
