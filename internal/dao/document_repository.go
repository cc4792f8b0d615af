package dao

import (
	"context"
	"time"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/model"
	"github.com/penflow/penflow-sync-service/pkg/timex"

	"gorm.io/gorm"
)

// documentRepository implements domain.DocumentRepository.
type documentRepository struct {
	dao *Dao
}

// NewDocumentRepository creates a DocumentRepository instance.
func NewDocumentRepository(dao *Dao) domain.DocumentRepository {
	return &documentRepository{dao: dao}
}

func (r *documentRepository) toDomain(m *model.Document) *domain.Document {
	if m == nil {
		return nil
	}
	return &domain.Document{
		ID:          m.ID,
		ChangesetID: m.ChangesetID,
		UID:         m.UID,
		Title:       m.Title,
		UpdatedAt:   time.Time(m.UpdatedAt),
		CreatedAt:   time.Time(m.CreatedAt),
	}
}

func (r *documentRepository) GetByChangesetID(ctx context.Context, changesetID string) (*domain.Document, error) {
	var m model.Document
	err := r.dao.db.WithContext(ctx).Where("changeset_id = ?", changesetID).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *documentRepository) Create(ctx context.Context, document *domain.Document) (*domain.Document, error) {
	now := timex.Now()
	m := &model.Document{
		ChangesetID: document.ChangesetID,
		UID:         document.UID,
		Title:       document.Title,
		UpdatedAt:   now,
		CreatedAt:   now,
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

func (r *documentRepository) UpdateTitle(ctx context.Context, changesetID string, title string) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("changeset_id = ?", changesetID).
		Updates(map[string]interface{}{
			"title":      title,
			"updated_at": timex.Now(),
		}).Error
}

func (r *documentRepository) Touch(ctx context.Context, changesetID string) error {
	return r.dao.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("changeset_id = ?", changesetID).
		Update("updated_at", timex.Now()).Error
}

func (r *documentRepository) List(ctx context.Context, uid int64) ([]*domain.Document, error) {
	var rows []*model.Document
	err := r.dao.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	documents := make([]*domain.Document, 0, len(rows))
	for _, row := range rows {
		documents = append(documents, r.toDomain(row))
	}
	return documents, nil
}

func (r *documentRepository) DeleteByChangesetID(ctx context.Context, changesetID string) error {
	return r.dao.db.WithContext(ctx).
		Where("changeset_id = ?", changesetID).
		Delete(&model.Document{}).Error
}
