package dao

import (
	"context"
	"time"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/model"
	"github.com/penflow/penflow-sync-service/pkg/timex"

	"gorm.io/gorm"
)

// userRepository implements domain.UserRepository.
type userRepository struct {
	dao *Dao
}

// NewUserRepository creates a UserRepository instance.
func NewUserRepository(dao *Dao) domain.UserRepository {
	return &userRepository{dao: dao}
}

func (r *userRepository) toDomain(m *model.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		UID:       m.UID,
		Name:      m.Name,
		LoginKey:  m.LoginKey,
		Password:  m.Password,
		UpdatedAt: time.Time(m.UpdatedAt),
		CreatedAt: time.Time(m.CreatedAt),
	}
}

func (r *userRepository) getBy(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var m model.User
	err := r.dao.db.WithContext(ctx).Where(query, args...).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *userRepository) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	return r.getBy(ctx, "uid = ?", uid)
}

func (r *userRepository) GetByLoginKey(ctx context.Context, loginKey string) (*domain.User, error) {
	return r.getBy(ctx, "login_key = ?", loginKey)
}

func (r *userRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	return r.getBy(ctx, "name = ?", name)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := timex.Now()
	m := &model.User{
		Name:      user.Name,
		LoginKey:  user.LoginKey,
		Password:  user.Password,
		UpdatedAt: now,
		CreatedAt: now,
	}
	if err := r.dao.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}
