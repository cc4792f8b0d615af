package dao

import (
	"context"
	"strings"
	"time"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/model"
	"github.com/penflow/penflow-sync-service/pkg/timex"

	"gorm.io/gorm"
)

// changeRepository implements domain.ChangeRepository.
type changeRepository struct {
	dao *Dao
}

// NewChangeRepository creates a ChangeRepository instance.
func NewChangeRepository(dao *Dao) domain.ChangeRepository {
	return &changeRepository{dao: dao}
}

func (r *changeRepository) toDomain(m *model.Change) *domain.Change {
	if m == nil {
		return nil
	}
	return &domain.Change{
		ID:          m.ID,
		ChangesetID: m.ChangesetID,
		Position:    m.Position,
		Ops:         []byte(m.Ops),
		UID:         m.UID,
		ClientName:  m.ClientName,
		Timestamp:   m.Timestamp,
		CreatedAt:   time.Time(m.CreatedAt),
	}
}

func (r *changeRepository) toModel(change *domain.Change) *model.Change {
	if change == nil {
		return nil
	}
	return &model.Change{
		ID:          change.ID,
		ChangesetID: change.ChangesetID,
		Position:    change.Position,
		Ops:         string(change.Ops),
		UID:         change.UID,
		ClientName:  change.ClientName,
		Timestamp:   change.Timestamp,
		CreatedAt:   timex.Time(change.CreatedAt),
	}
}

func (r *changeRepository) ListSincePosition(ctx context.Context, changesetID string, sincePosition int64) ([]*domain.Change, error) {
	var rows []*model.Change
	err := r.dao.db.WithContext(ctx).
		Where("changeset_id = ? AND position > ?", changesetID, sincePosition).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	changes := make([]*domain.Change, 0, len(rows))
	for _, row := range rows {
		changes = append(changes, r.toDomain(row))
	}
	return changes, nil
}

func (r *changeRepository) ListAll(ctx context.Context, changesetID string) ([]*domain.Change, error) {
	return r.ListSincePosition(ctx, changesetID, 0)
}

func (r *changeRepository) Append(ctx context.Context, change *domain.Change) (*domain.Change, error) {
	m := r.toModel(change)
	m.ID = 0
	if time.Time(m.CreatedAt).IsZero() {
		m.CreatedAt = timex.Now()
	}

	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

func (r *changeRepository) Count(ctx context.Context, changesetID string) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.Change{}).
		Where("changeset_id = ?", changesetID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *changeRepository) DeleteByChangeset(ctx context.Context, changesetID string) error {
	return r.dao.db.WithContext(ctx).
		Where("changeset_id = ?", changesetID).
		Delete(&model.Change{}).Error
}

// IsDuplicatePosition matches the unique-index violation of
// idx_changeset_pos across sqlite and mysql.
func (r *changeRepository) IsDuplicatePosition(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}
