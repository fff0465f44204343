package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/lib/pq"
)

var (
	_ domain.MetricRepository   = (*MetricRepository)(nil)
	_ domain.BusinessRepository = (*BusinessRepository)(nil)
	_ domain.AccessChecker      = (*MembershipChecker)(nil)
)

// MetricRepository reads metric samples joined with their definitions
type MetricRepository struct {
	db *sql.DB
}

// NewMetricRepository creates a metric repository
func NewMetricRepository(c *Client) *MetricRepository {
	return &MetricRepository{db: c.DB}
}

const listSamplesQuery = `
SELECT s.id, s.business_id, s.metric_id, s.value, s.recorded_at,
       d.id, d.name, d.unit, d.category
FROM metric_samples s
JOIN metric_definitions d ON d.id = s.metric_id
WHERE s.business_id = $1
  AND ($2::timestamptz IS NULL OR s.recorded_at >= $2)
  AND ($3::timestamptz IS NULL OR s.recorded_at <= $3)
  AND (cardinality($4::text[]) = 0 OR d.category = ANY($4))
ORDER BY s.recorded_at DESC`

// ListSamples returns samples newest first. Zero range bounds are open.
func (r *MetricRepository) ListSamples(ctx context.Context, businessID string, dr models.DateRange, categories []string) ([]models.MetricSample, error) {
	if categories == nil {
		categories = []string{}
	}

	rows, err := r.db.QueryContext(ctx, listSamplesQuery,
		businessID, nullTime(dr.Start), nullTime(dr.End), pq.Array(categories))
	if err != nil {
		return nil, fmt.Errorf("failed to query metric samples: %w", err)
	}
	defer rows.Close()

	var samples []models.MetricSample
	for rows.Next() {
		var s models.MetricSample
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.MetricID, &s.Value, &s.RecordedAt,
			&s.Definition.ID, &s.Definition.Name, &s.Definition.Unit, &s.Definition.Category); err != nil {
			return nil, fmt.Errorf("failed to scan metric sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metric samples: %w", err)
	}
	return samples, nil
}

// InsertSample stores one sample. Used by the seeder.
func (r *MetricRepository) InsertSample(ctx context.Context, s models.MetricSample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO metric_samples (id, business_id, metric_id, value, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.BusinessID, s.MetricID, s.Value, s.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert metric sample: %w", err)
	}
	return nil
}

// UpsertDefinition stores or refreshes a metric definition
func (r *MetricRepository) UpsertDefinition(ctx context.Context, d models.MetricDefinition) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO metric_definitions (id, name, unit, category) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit, category = EXCLUDED.category`,
		d.ID, d.Name, d.Unit, d.Category)
	if err != nil {
		return fmt.Errorf("failed to upsert metric definition: %w", err)
	}
	return nil
}

// BusinessRepository reads business metadata
type BusinessRepository struct {
	db *sql.DB
}

// NewBusinessRepository creates a business repository
func NewBusinessRepository(c *Client) *BusinessRepository {
	return &BusinessRepository{db: c.DB}
}

// GetBusiness returns the business or a not found error
func (r *BusinessRepository) GetBusiness(ctx context.Context, businessID string) (*models.BusinessMetadata, error) {
	var b models.BusinessMetadata
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, total_scans, points_awarded, active_users FROM businesses WHERE id = $1`, businessID).
		Scan(&b.ID, &b.Name, &b.TotalScans, &b.PointsAwarded, &b.ActiveUsers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("business")
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return &b, nil
}

// UpsertBusiness stores a business and one owner membership. Used by the seeder.
func (r *BusinessRepository) UpsertBusiness(ctx context.Context, b models.BusinessMetadata, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO businesses (id, name, total_scans, points_awarded, active_users) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, total_scans = EXCLUDED.total_scans,
    points_awarded = EXCLUDED.points_awarded, active_users = EXCLUDED.active_users`,
		b.ID, b.Name, b.TotalScans, b.PointsAwarded, b.ActiveUsers); err != nil {
		return fmt.Errorf("failed to upsert business: %w", err)
	}
	if ownerID != "" {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO business_members (business_id, user_id, role) VALUES ($1, $2, 'owner')
ON CONFLICT (business_id, user_id) DO NOTHING`, b.ID, ownerID); err != nil {
			return fmt.Errorf("failed to add business owner: %w", err)
		}
	}
	return tx.Commit()
}

// MembershipChecker grants access to members of a business
type MembershipChecker struct {
	db *sql.DB
}

// NewMembershipChecker creates a membership-based access checker
func NewMembershipChecker(c *Client) *MembershipChecker {
	return &MembershipChecker{db: c.DB}
}

// CanManageBusiness reports whether userID is a member of businessID
func (m *MembershipChecker) CanManageBusiness(ctx context.Context, userID, businessID string) (bool, error) {
	var ok bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM business_members WHERE business_id = $1 AND user_id = $2)`,
		businessID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check business membership: %w", err)
	}
	return ok, nil
}
