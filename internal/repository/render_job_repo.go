// Package repository provides GORM-backed persistence for clipforge.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clipforge/clipforge/internal/models"
)

// renderJobRepo implements render job history persistence using GORM.
type renderJobRepo struct {
	db *gorm.DB
}

// NewRenderJobRepository creates a new render job history repository.
func NewRenderJobRepository(db *gorm.DB) *renderJobRepo {
	return &renderJobRepo{db: db}
}

// Record persists one terminal job record. It satisfies the render manager's
// history recorder contract.
func (r *renderJobRepo) Record(ctx context.Context, rec *models.RenderJobRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("recording render job: %w", err)
	}
	return nil
}

// GetByJobID retrieves a record by its job id.
func (r *renderJobRepo) GetByJobID(ctx context.Context, jobID string) (*models.RenderJobRecord, error) {
	var rec models.RenderJobRecord
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("render job record %s: %w", jobID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("getting render job record: %w", err)
	}
	return &rec, nil
}

// List returns the most recent records, newest first.
func (r *renderJobRepo) List(ctx context.Context, limit int) ([]*models.RenderJobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []*models.RenderJobRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing render job records: %w", err)
	}
	return recs, nil
}

// ListByStatus returns the most recent records with the given status.
func (r *renderJobRepo) ListByStatus(ctx context.Context, status models.RenderStatus, limit int) ([]*models.RenderJobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []*models.RenderJobRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("listing render job records by status: %w", err)
	}
	return recs, nil
}
