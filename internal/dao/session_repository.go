package dao

import (
	"context"
	"time"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/model"
	"github.com/penflow/penflow-sync-service/pkg/timex"

	"gorm.io/gorm"
)

// sessionRepository implements domain.SessionRepository.
type sessionRepository struct {
	dao *Dao
}

// NewSessionRepository creates a SessionRepository instance.
func NewSessionRepository(dao *Dao) domain.SessionRepository {
	return &sessionRepository{dao: dao}
}

func (r *sessionRepository) toDomain(m *model.Session) *domain.Session {
	if m == nil {
		return nil
	}
	return &domain.Session{
		ID:        m.ID,
		UID:       m.UID,
		Token:     m.Token,
		ClientIP:  m.ClientIP,
		ExpiredAt: time.Time(m.ExpiredAt),
		CreatedAt: time.Time(m.CreatedAt),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	m := &model.Session{
		UID:       session.UID,
		Token:     session.Token,
		ClientIP:  session.ClientIP,
		ExpiredAt: timex.Time(session.ExpiredAt),
		CreatedAt: timex.Now(),
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var m model.Session
	err := r.dao.db.WithContext(ctx).Where("token = ?", token).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.dao.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.Session{}).Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.dao.db.WithContext(ctx).
		Where("expired_at < ?", timex.Time(before)).
		Delete(&model.Session{})
	return result.RowsAffected, result.Error
}

func (r *sessionRepository) CountByUID(ctx context.Context, uid int64) (int64, error) {
	var count int64
	err := r.dao.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("uid = ?", uid).
		Count(&count).Error
	return count, err
}
