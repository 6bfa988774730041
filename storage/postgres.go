package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"plex_harvester/models"
)

// PostgresStore persists validated listing records, keyed by Centris ID.
// The store, not the extraction core, owns the duplicate policy: by default a
// known identifier is skipped; with updateExisting the record is replaced in
// place so price changes are tracked.
type PostgresStore struct {
	pool           *pgxpool.Pool
	updateExisting bool
}

func NewPostgresStore(ctx context.Context, connString string, updateExisting bool) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool, updateExisting: updateExisting}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS plex_listings (
		centris_id BIGINT PRIMARY KEY,
		url TEXT NOT NULL,
		price BIGINT NOT NULL,
		scrape_date TEXT NOT NULL,
		city TEXT NOT NULL,
		neighborhood TEXT,
		title TEXT,
		description TEXT,
		address TEXT,
		construction_year INT,
		units JSONB,
		unit_count INT,
		living_area INT,
		building_area INT,
		commercial_area INT,
		lot_area INT,
		parking INT NOT NULL DEFAULT 0,
		usage TEXT,
		building_style TEXT,
		gross_revenue INT,
		taxes_yearly INT,
		municipal_assessment INT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		last_checked_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_plex_listings_city ON plex_listings(city);
	CREATE INDEX IF NOT EXISTS idx_plex_listings_neighborhood ON plex_listings(neighborhood);
	CREATE INDEX IF NOT EXISTS idx_plex_listings_active ON plex_listings(active, last_checked_at);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// ListingExists reports whether a Centris ID is already known.
func (s *PostgresStore) ListingExists(ctx context.Context, centrisID int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM plex_listings WHERE centris_id = $1)`, centrisID).Scan(&exists)
	return exists, err
}

// ExistingIDs loads the full identifier set for duplicate detection before a
// run. The core treats this as a read-only collaborator input.
func (s *PostgresStore) ExistingIDs(ctx context.Context) (map[int]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT centris_id FROM plex_listings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int]struct{})
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// SaveListing inserts a record, honoring the store's duplicate policy.
// Returns true when a row was written.
func (s *PostgresStore) SaveListing(ctx context.Context, rec *models.PlexListing) (bool, error) {
	var units []byte
	if len(rec.Units) > 0 {
		var err error
		units, err = json.Marshal(rec.Units)
		if err != nil {
			return false, fmt.Errorf("marshal units: %w", err)
		}
	}

	conflict := `ON CONFLICT (centris_id) DO NOTHING`
	if s.updateExisting {
		conflict = `ON CONFLICT (centris_id) DO UPDATE SET
			url = EXCLUDED.url,
			price = EXCLUDED.price,
			scrape_date = EXCLUDED.scrape_date,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			address = EXCLUDED.address,
			construction_year = EXCLUDED.construction_year,
			units = EXCLUDED.units,
			unit_count = EXCLUDED.unit_count,
			living_area = EXCLUDED.living_area,
			building_area = EXCLUDED.building_area,
			commercial_area = EXCLUDED.commercial_area,
			lot_area = EXCLUDED.lot_area,
			parking = EXCLUDED.parking,
			usage = EXCLUDED.usage,
			building_style = EXCLUDED.building_style,
			gross_revenue = EXCLUDED.gross_revenue,
			taxes_yearly = EXCLUDED.taxes_yearly,
			municipal_assessment = EXCLUDED.municipal_assessment`
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO plex_listings (
			centris_id, url, price, scrape_date, city, neighborhood,
			title, description, address, construction_year, units, unit_count,
			living_area, building_area, commercial_area, lot_area, parking,
			usage, building_style, gross_revenue, taxes_yearly, municipal_assessment
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		) `+conflict,
		rec.CentrisID, rec.URL, rec.Price, rec.ScrapeDate, rec.City, nullableString(rec.Neighborhood),
		rec.Title, rec.Description, rec.Address, rec.ConstructionYear, units, rec.UnitCount,
		rec.LivingArea, rec.BuildingArea, rec.CommercialArea, rec.LotArea, rec.Parking,
		rec.Usage, rec.BuildingStyle, rec.GrossRevenue, rec.TaxesYearly, rec.MunicipalAssessment)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListListings returns every stored record, for the metrics viewer.
func (s *PostgresStore) ListListings(ctx context.Context) ([]models.PlexListing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT centris_id, url, price, scrape_date, city, neighborhood,
			title, description, address, construction_year, units, unit_count,
			living_area, building_area, commercial_area, lot_area, parking,
			usage, building_style, gross_revenue, taxes_yearly, municipal_assessment
		FROM plex_listings ORDER BY centris_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.PlexListing
	for rows.Next() {
		var rec models.PlexListing
		var neighborhood *string
		var units []byte
		if err := rows.Scan(&rec.CentrisID, &rec.URL, &rec.Price, &rec.ScrapeDate, &rec.City, &neighborhood,
			&rec.Title, &rec.Description, &rec.Address, &rec.ConstructionYear, &units, &rec.UnitCount,
			&rec.LivingArea, &rec.BuildingArea, &rec.CommercialArea, &rec.LotArea, &rec.Parking,
			&rec.Usage, &rec.BuildingStyle, &rec.GrossRevenue, &rec.TaxesYearly, &rec.MunicipalAssessment); err != nil {
			return nil, err
		}
		if neighborhood != nil {
			rec.Neighborhood = *neighborhood
		}
		if len(units) > 0 {
			if err := json.Unmarshal(units, &rec.Units); err != nil {
				return nil, fmt.Errorf("unmarshal units for %d: %w", rec.CentrisID, err)
			}
		}
		listings = append(listings, rec)
	}
	return listings, rows.Err()
}

// StaleActiveListings returns active listings whose last liveness check is
// older than staleAfter, oldest first. Never-checked listings come first.
func (s *PostgresStore) StaleActiveListings(ctx context.Context, staleAfter time.Duration, limit int) ([]models.ListingRef, error) {
	cutoff := time.Now().Add(-staleAfter)
	rows, err := s.pool.Query(ctx, `
		SELECT centris_id, url, price FROM plex_listings
		WHERE active AND (last_checked_at IS NULL OR last_checked_at < $1)
		ORDER BY last_checked_at ASC NULLS FIRST
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []models.ListingRef
	for rows.Next() {
		var ref models.ListingRef
		if err := rows.Scan(&ref.CentrisID, &ref.URL, &ref.Price); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// TouchListing records a successful liveness check.
func (s *PostgresStore) TouchListing(ctx context.Context, centrisID int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE plex_listings SET last_checked_at = now() WHERE centris_id = $1`, centrisID)
	return err
}

// MarkDelisted flags a listing as no longer on the market. The row is kept:
// sold and delisted records still feed the neighborhood statistics.
func (s *PostgresStore) MarkDelisted(ctx context.Context, centrisID int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE plex_listings SET active = FALSE, last_checked_at = now() WHERE centris_id = $1`, centrisID)
	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
