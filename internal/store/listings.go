package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"watchscout-engine/internal/domain"
)

// CreateListing persists a newly accepted listing. The fingerprint column is
// unique: a concurrent run that raced us to the same listing surfaces as an
// error here, never as a second row.
func CreateListing(ctx context.Context, db *sql.DB, l domain.Listing) (int64, error) {
	if l.Fingerprint == "" {
		return 0, fmt.Errorf("create listing: missing fingerprint")
	}
	if l.Link == "" {
		return 0, fmt.Errorf("create listing: missing link")
	}
	if l.Name == "" {
		l.Name = strings.TrimSpace(l.Manufacturer + " " + l.Model)
	}
	if l.Availability == "" {
		l.Availability = domain.AvailabilityAvailable
	}
	now := time.Now().UTC()
	if l.DiscoveredAt.IsZero() {
		l.DiscoveredAt = now
	}
	if l.LastCheckedAt.IsZero() {
		l.LastCheckedAt = now
	}

	res, err := db.ExecContext(ctx, `
INSERT INTO listings(
  name, manufacturer, model, reference_number, year, condition, price, currency,
  location, country, seller_name, seller_url, link, image_url, fingerprint,
  source_name, source_type, criterion_id, availability, discovered_at, last_checked_at
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		l.Name, l.Manufacturer, l.Model, l.ReferenceNumber, l.Year, string(l.Condition), l.Price, string(l.Currency),
		l.Location, l.Country, l.SellerName, l.SellerURL, l.Link, l.ImageURL, l.Fingerprint,
		l.SourceName, l.SourceType, l.CriterionID, string(l.Availability),
		l.DiscoveredAt.Format(time.RFC3339), l.LastCheckedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("create listing: %w", err)
	}
	return res.LastInsertId()
}

func ListFingerprints(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT fingerprint FROM listings;`)
	if err != nil {
		return nil, fmt.Errorf("list fingerprints: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

func ListAvailableListings(ctx context.Context, db *sql.DB) ([]domain.Listing, error) {
	return queryListings(ctx, db, `WHERE availability = ?`, 0, string(domain.AvailabilityAvailable))
}

// ListRecentListings backs the status API: newest first, bounded.
func ListRecentListings(ctx context.Context, db *sql.DB, limit int) ([]domain.Listing, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return queryListings(ctx, db, ``, limit)
}

func queryListings(ctx context.Context, db *sql.DB, where string, limit int, args ...any) ([]domain.Listing, error) {
	query := `
SELECT id, name, manufacturer, model, reference_number, year, condition, price, currency,
       location, country, seller_name, seller_url, link, image_url, fingerprint,
       source_name, source_type, criterion_id, availability, discovered_at, last_checked_at, sold_at
FROM listings ` + where + `
ORDER BY discovered_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	query += ";"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		var l domain.Listing
		var cond, curr, avail, discovered, checked string
		var sold sql.NullString
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Manufacturer, &l.Model, &l.ReferenceNumber, &l.Year, &cond, &l.Price, &curr,
			&l.Location, &l.Country, &l.SellerName, &l.SellerURL, &l.Link, &l.ImageURL, &l.Fingerprint,
			&l.SourceName, &l.SourceType, &l.CriterionID, &avail, &discovered, &checked, &sold,
		); err != nil {
			return nil, err
		}
		l.Condition = domain.Condition(cond)
		l.Currency = domain.Currency(curr)
		l.Availability = domain.Availability(avail)
		l.DiscoveredAt, _ = time.Parse(time.RFC3339, discovered)
		l.LastCheckedAt, _ = time.Parse(time.RFC3339, checked)
		if sold.Valid {
			if t, err := time.Parse(time.RFC3339, sold.String); err == nil {
				l.SoldAt = &t
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateAvailability transitions a listing's lifecycle state and refreshes
// last_checked_at. soldAt is only set on the transition to Sold; the
// availability checker is the sole caller that passes it.
func UpdateAvailability(ctx context.Context, db *sql.DB, id int64, state domain.Availability, soldAt *time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if soldAt != nil {
		_, err := db.ExecContext(ctx, `
UPDATE listings SET availability = ?, sold_at = ?, last_checked_at = ? WHERE id = ?;`,
			string(state), soldAt.UTC().Format(time.RFC3339), now, id)
		return err
	}
	_, err := db.ExecContext(ctx, `
UPDATE listings SET availability = ?, last_checked_at = ? WHERE id = ?;`,
		string(state), now, id)
	return err
}
