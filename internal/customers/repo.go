package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/healthpulse-backend/internal/timeseries"
	"github.com/angelmondragon/healthpulse-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
)

// Store is the read side the scoring services depend on.
type Store interface {
	GetSnapshot(ctx context.Context, id string) (Snapshot, error)
	GetTimeSeries(ctx context.Context, id, metric string, r timeseries.Range) ([]timeseries.Point, error)
	ListCustomerIDs(ctx context.Context) ([]string, error)
}

// Repository handles customer persistence.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository binds a GORM DB to customer operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// GetSnapshot loads a customer and defaults it into a Snapshot.
func (r *Repository) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	var record models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return Snapshot{}, pkgerrors.Unavailable(err, "load customer")
	}
	return NewSnapshot(record.ID, AttributesFromModel(record), r.now().UTC()), nil
}

// GetTimeSeries returns the raw points of one metric, ascending by date.
func (r *Repository) GetTimeSeries(ctx context.Context, id, metric string, rng timeseries.Range) ([]timeseries.Point, error) {
	query := r.db.WithContext(ctx).
		Model(&models.MetricPoint{}).
		Where("customer_id = ? AND metric = ?", id, metric)
	if !rng.From.IsZero() {
		query = query.Where("recorded_on >= ?", rng.From)
	}
	if !rng.To.IsZero() {
		query = query.Where("recorded_on <= ?", rng.To)
	}

	var rows []models.MetricPoint
	if err := query.Order("recorded_on ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Unavailable(err, "load time series")
	}
	points := make([]timeseries.Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, timeseries.Point{Date: row.RecordedOn.UTC(), Value: row.Value})
	}
	return points, nil
}

// ListCustomerIDs returns every customer id that has not churned.
func (r *Repository) ListCustomerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("lifecycle_stage <> ?", "churned").
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, pkgerrors.Unavailable(err, "list customers")
	}
	return ids, nil
}

// Upsert creates or fully replaces a customer record.
func (r *Repository) Upsert(ctx context.Context, customer *models.Customer) error {
	if customer == nil {
		return fmt.Errorf("customer is required")
	}
	if strings.TrimSpace(customer.ID) == "" {
		customer.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(customer).Error
}

// AppendPoints records new observations for a metric.
func (r *Repository) AppendPoints(ctx context.Context, customerID, metric string, points []timeseries.Point) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]models.MetricPoint, 0, len(points))
	for _, p := range points {
		rows = append(rows, models.MetricPoint{
			ID:         uuid.NewString(),
			CustomerID: customerID,
			Metric:     metric,
			RecordedOn: p.Date.UTC(),
			Value:      p.Value,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}
