package playbooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/healthpulse-backend/pkg/db/models"
	"github.com/angelmondragon/healthpulse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/healthpulse-backend/pkg/errors"
	"github.com/angelmondragon/healthpulse-backend/pkg/pagination"
)

// Repository persists playbook overrides and recommendations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListPlaybooks returns persisted playbooks. Rows with an unreadable type
// or criteria document are skipped.
func (r *Repository) ListPlaybooks(ctx context.Context) ([]Playbook, error) {
	var rows []models.Playbook
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Playbook, 0, len(rows))
	for _, row := range rows {
		p, err := playbookFromModel(row)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// UpsertPlaybook stores an override for a seed or a new playbook.
func (r *Repository) UpsertPlaybook(ctx context.Context, p Playbook) error {
	criteria, err := json.Marshal(p.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	row := models.Playbook{
		ID:           p.ID,
		Name:         p.Name,
		Type:         p.Type.String(),
		Criteria:     string(criteria),
		DurationDays: p.DurationDays,
		StepCount:    p.StepCount,
		SuccessRate:  p.SuccessRate,
	}
	if p.Description != "" {
		row.Description = &p.Description
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (r *Repository) CreateRecommendation(ctx context.Context, rec Recommendation) error {
	alternatives, err := json.Marshal(rec.AlternativePlaybooks)
	if err != nil {
		return fmt.Errorf("encode alternatives: %w", err)
	}
	row := models.PlaybookRecommendation{
		ID:               rec.ID,
		CustomerID:       rec.CustomerID,
		PlaybookID:       rec.RecommendedPlaybook.ID,
		PlaybookType:     rec.RecommendedPlaybook.Type.String(),
		FitScore:         rec.FitScore,
		Reasoning:        rec.Reasoning,
		Alternatives:     string(alternatives),
		TriggerType:      rec.TriggerType.String(),
		TriggerEvent:     rec.TriggerEvent,
		Status:           rec.Status.String(),
		RequiresApproval: rec.RequiresApproval,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// GetRecommendation loads a recommendation. The playbook is resolved
// against library, falling back to a stub carrying only ID and type.
func (r *Repository) GetRecommendation(ctx context.Context, id string, library []Playbook) (Recommendation, error) {
	var row models.PlaybookRecommendation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Recommendation{}, pkgerrors.New(pkgerrors.CodeNotFound, "recommendation not found")
		}
		return Recommendation{}, err
	}
	return recommendationFromModel(row, library), nil
}

// UpdateStatus writes a status change only if the stored status is still
// from, so concurrent transitions cannot both succeed.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to enums.RecommendationStatus, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.PlaybookRecommendation{}).
		Where("id = ? AND status = ?", id, from.String()).
		Updates(map[string]any{"status": to.String(), "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "recommendation status changed concurrently")
	}
	return nil
}

// ListRecommendations returns one page of a customer's recommendations,
// newest first. The returned cursor is empty on the last page.
func (r *Repository) ListRecommendations(ctx context.Context, customerID string, library []Playbook, params pagination.Params) ([]Recommendation, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).Where("customer_id = ?", customerID)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.PlaybookRecommendation
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]Recommendation, 0, len(rows))
	for _, row := range rows {
		out = append(out, recommendationFromModel(row, library))
	}
	return out, next, nil
}

// ListOpenRecommendations returns the customer's recommendations that are
// pending approval, started or active.
func (r *Repository) ListOpenRecommendations(ctx context.Context, customerID string, library []Playbook) ([]Recommendation, error) {
	statuses := make([]string, 0, len(enums.OpenRecommendationStatuses))
	for _, s := range enums.OpenRecommendationStatuses {
		statuses = append(statuses, s.String())
	}
	var rows []models.PlaybookRecommendation
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID, statuses).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Recommendation, 0, len(rows))
	for _, row := range rows {
		out = append(out, recommendationFromModel(row, library))
	}
	return out, nil
}

func playbookFromModel(row models.Playbook) (Playbook, error) {
	t, err := enums.ParsePlaybookType(row.Type)
	if err != nil {
		return Playbook{}, err
	}
	var criteria Criteria
	if err := json.Unmarshal([]byte(row.Criteria), &criteria); err != nil {
		return Playbook{}, fmt.Errorf("decode criteria for %s: %w", row.ID, err)
	}
	p := Playbook{
		ID:           row.ID,
		Name:         row.Name,
		Type:         t,
		Criteria:     criteria,
		DurationDays: row.DurationDays,
		StepCount:    row.StepCount,
		SuccessRate:  row.SuccessRate,
	}
	if row.Description != nil {
		p.Description = *row.Description
	}
	return p, nil
}

func recommendationFromModel(row models.PlaybookRecommendation, library []Playbook) Recommendation {
	playbook, ok := findPlaybook(library, row.PlaybookID)
	if !ok {
		playbook = Playbook{ID: row.PlaybookID, Type: enums.PlaybookType(row.PlaybookType)}
	}
	alternatives := []Alternative{}
	_ = json.Unmarshal([]byte(row.Alternatives), &alternatives)
	reasoning := []string(row.Reasoning)
	if reasoning == nil {
		reasoning = []string{}
	}
	return Recommendation{
		ID:                   row.ID,
		CustomerID:           row.CustomerID,
		RecommendedPlaybook:  playbook,
		FitScore:             row.FitScore,
		Reasoning:            reasoning,
		AlternativePlaybooks: alternatives,
		TriggerType:          enums.TriggerType(row.TriggerType),
		Status:               enums.RecommendationStatus(row.Status),
		RequiresApproval:     row.RequiresApproval,
		TriggerEvent:         row.TriggerEvent,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}
