package store

import (
	"context"
	"database/sql"
	"fmt"

	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/search"
)

// OfferIndex is implemented by backends that can answer filters natively.
type OfferIndex interface {
	ReplaceOffers(ctx context.Context, records []domain.Record) error
	Search(ctx context.Context, f domain.Filter) ([]domain.Record, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// stateWriter persists the state keys and the offer index in one
// transaction, so a loaded index always matches the loaded offers.
type stateWriter interface {
	SaveState(ctx context.Context, pairs map[string]string, records []domain.Record) error
}

var (
	_ OfferIndex  = (*SQLite)(nil)
	_ stateWriter = (*SQLite)(nil)
)

// ReplaceOffers rewrites the mirror so row order follows the accumulated set.
func (s *SQLite) ReplaceOffers(ctx context.Context, records []domain.Record) error {
	return s.SaveState(ctx, nil, records)
}

func (s *SQLite) SaveState(ctx context.Context, pairs map[string]string, records []domain.Record) error {
	tx, err := s.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := setManyTx(ctx, tx, pairs); err != nil {
		return err
	}
	if err := replaceOffersTx(ctx, tx, records); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceOffersTx(ctx context.Context, tx *sql.Tx, records []domain.Record) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM offers;`); err != nil {
		return fmt.Errorf("clear offers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO offers (pos, id, title, company, location, url, posted_date, description, source, scraped_at,
                    title_fold, company_fold, location_fold, description_fold)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  pos = excluded.pos, title = excluded.title, company = excluded.company, location = excluded.location,
  url = excluded.url, posted_date = excluded.posted_date, description = excluded.description,
  source = excluded.source, scraped_at = excluded.scraped_at,
  title_fold = excluded.title_fold, company_fold = excluded.company_fold,
  location_fold = excluded.location_fold, description_fold = excluded.description_fold;`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			i, r.ID, r.Title, r.Company, r.Location, r.URL, r.PostedDate, r.Description, string(r.Source), r.ScrapedAt,
			search.Fold(r.Title), search.Fold(r.Company), search.Fold(r.Location), search.Fold(r.Description),
		); err != nil {
			return fmt.Errorf("insert offer %s: %w", r.ID, err)
		}
	}
	return nil
}

// Search evaluates the filter in SQL with the same semantics as search.Apply.
func (s *SQLite) Search(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	f = f.Normalize()
	q, loc, comp := search.Fold(f.Search), search.Fold(f.Location), search.Fold(f.Company)

	rows, err := s.db.Pool.QueryContext(ctx, `
SELECT id, title, company, location, url, posted_date, description, source, scraped_at
FROM offers
WHERE (? = '' OR instr(title_fold, ?) > 0 OR instr(company_fold, ?) > 0 OR instr(description_fold, ?) > 0)
  AND (? = '' OR instr(location_fold, ?) > 0)
  AND (? = '' OR instr(company_fold, ?) > 0)
  AND (? = '' OR source = ?)
ORDER BY pos
LIMIT ? OFFSET ?;`,
		q, q, q, q,
		loc, loc,
		comp, comp,
		string(f.Source), string(f.Source),
		f.Limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Record, 0)
	for rows.Next() {
		var r domain.Record
		var src string
		if err := rows.Scan(&r.ID, &r.Title, &r.Company, &r.Location, &r.URL, &r.PostedDate, &r.Description, &src, &r.ScrapedAt); err != nil {
			return nil, err
		}
		r.Source = domain.Source(src)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Stats(ctx context.Context) (domain.Stats, error) {
	st := domain.Stats{JobsBySource: map[string]int{}}
	if err := s.db.Pool.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(DISTINCT company), COUNT(DISTINCT location) FROM offers;`,
	).Scan(&st.TotalJobs, &st.TotalCompanies, &st.TotalLocations); err != nil {
		return domain.Stats{}, err
	}

	rows, err := s.db.Pool.QueryContext(ctx, `SELECT source, COUNT(*) FROM offers GROUP BY source;`)
	if err != nil {
		return domain.Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return domain.Stats{}, err
		}
		st.JobsBySource[src] = n
	}
	return st, rows.Err()
}
