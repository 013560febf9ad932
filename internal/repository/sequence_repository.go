package repository

import (
	"context"

	"gorm.io/gorm"
)

// SequenceRepository issues sequential numbers per (tenant, scope, key).
// Next is a single atomic upsert, so two concurrent callers always receive
// distinct values; there is no select-max-then-insert window.
type SequenceRepository interface {
	Next(ctx context.Context, tenantID uint, scope, key string) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, tenantID uint, scope, key string) (int64, error) {
	var result struct {
		LastValue int64
	}

	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO number_sequences (tenant_id, scope, key, last_value, created_at, updated_at)
		VALUES (?, ?, ?, 1, NOW(), NOW())
		ON CONFLICT (tenant_id, scope, key)
		DO UPDATE SET last_value = number_sequences.last_value + 1, updated_at = NOW()
		RETURNING last_value`,
		tenantID, scope, key).
		Scan(&result).Error
	if err != nil {
		return 0, err
	}

	return result.LastValue, nil
}
