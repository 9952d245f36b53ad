package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"watchscout-engine/internal/domain"
)

func ListSources(ctx context.Context, db *sql.DB, activeOnly bool) ([]domain.SourceConfig, error) {
	query := `
SELECT id, name, url, domain, fetch_strategy, custom_backend, source_type,
       search_url_template, listing_selector, title_selector, price_selector,
       link_selector, image_selector, wait_selector,
       rate_limit_seconds, active, error_count, last_error, last_success_at
FROM sources`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name;`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []domain.SourceConfig
	for rows.Next() {
		var s domain.SourceConfig
		var rateSecs float64
		var active int
		var lastSuccess sql.NullString
		if err := rows.Scan(
			&s.ID, &s.Name, &s.URL, &s.Domain, &s.FetchStrategy, &s.CustomBackend, &s.SourceType,
			&s.SearchURLTemplate, &s.ListingSelector, &s.TitleSelector, &s.PriceSelector,
			&s.LinkSelector, &s.ImageSelector, &s.WaitSelector,
			&rateSecs, &active, &s.ErrorCount, &s.LastError, &lastSuccess,
		); err != nil {
			return nil, err
		}
		s.RateLimit = time.Duration(rateSecs * float64(time.Second))
		s.Active = active != 0
		if lastSuccess.Valid {
			if t, err := time.Parse(time.RFC3339, lastSuccess.String); err == nil {
				s.LastSuccessAt = &t
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func ListCriteria(ctx context.Context, db *sql.DB, activeOnly bool) ([]domain.SearchCriterion, error) {
	query := `
SELECT id, manufacturer, model, reference_number, year, allowed_countries, active
FROM search_criteria`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id;`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	defer rows.Close()

	var out []domain.SearchCriterion
	for rows.Next() {
		var c domain.SearchCriterion
		var countriesJSON string
		var active int
		if err := rows.Scan(&c.ID, &c.Manufacturer, &c.Model, &c.ReferenceNumber, &c.Year, &countriesJSON, &active); err != nil {
			return nil, err
		}
		c.Active = active != 0
		_ = json.Unmarshal([]byte(countriesJSON), &c.AllowedCountries)
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateSourceStats writes discovery outcome back onto a source: success
// refreshes last_success_at and clears the error; failure bumps the error
// counter and records the message. The engine never touches selectors.
func UpdateSourceStats(ctx context.Context, db *sql.DB, sourceID int64, success bool, errMsg string) error {
	if success {
		_, err := db.ExecContext(ctx, `
UPDATE sources SET last_success_at = ?, last_error = '' WHERE id = ?;`,
			time.Now().UTC().Format(time.RFC3339), sourceID)
		return err
	}
	_, err := db.ExecContext(ctx, `
UPDATE sources SET error_count = error_count + 1, last_error = ? WHERE id = ?;`,
		errMsg, sourceID)
	return err
}
