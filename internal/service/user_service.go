package service

import (
	"context"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/util"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

const authTimeLayout = "2006-01-02 15:04:05"

// UserService handles signup and login-key authentication. An account is
// identified by a server-generated uuid login key the client stores; the
// session token returned alongside is what every later request carries. A
// password is optional, accounts that set one must present it on login.
type UserService interface {
	// Signup creates an account and its first session.
	Signup(ctx context.Context, params *dto.UserSignupRequest, clientIP string) (*dto.UserAuthResponse, error)

	// Login exchanges a login key for a fresh session.
	Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.UserAuthResponse, error)

	// Logout removes the presented session.
	Logout(ctx context.Context, token string) error

	// Get returns an account by uid.
	Get(ctx context.Context, uid int64) (*domain.User, error)
}

// userService implements UserService.
type userService struct {
	repo     domain.UserRepository
	sessions SessionService
	logger   *zap.Logger
	config   *ServiceConfig
}

// NewUserService creates a UserService instance.
func NewUserService(repo domain.UserRepository, sessions SessionService, logger *zap.Logger, cfg *ServiceConfig) UserService {
	return &userService{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
	}
}

func (s *userService) Signup(ctx context.Context, params *dto.UserSignupRequest, clientIP string) (*dto.UserAuthResponse, error) {
	if s.config != nil && !s.config.User.RegisterIsEnable {
		return nil, code.ErrorUserSignupDisabled
	}

	var passwordHash string
	if params.Password != "" {
		hash, err := util.GeneratePasswordHash(params.Password)
		if err != nil {
			return nil, code.ErrorUserSignupFailed.WithDetails(err.Error())
		}
		passwordHash = hash
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Name:     params.Name,
		LoginKey: uuid.NewString(),
		Password: passwordHash,
	})
	if err != nil {
		return nil, code.ErrorUserSignupFailed.WithDetails(err.Error())
	}

	if s.logger != nil {
		s.logger.Info("user signed up", zap.Int64("uid", user.UID), zap.String("name", user.Name))
	}

	return s.toAuthResponse(ctx, user, clientIP, true)
}

func (s *userService) Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.UserAuthResponse, error) {
	user, err := s.repo.GetByLoginKey(ctx, params.LoginKey)
	if err != nil {
		return nil, code.ErrorStoreRead.WithDetails(err.Error())
	}
	if user == nil {
		return nil, code.ErrorInvalidLoginKey
	}

	if user.Password != "" && !util.CheckPasswordHash(params.Password, user.Password) {
		return nil, code.ErrorUserLoginFailed
	}

	if s.logger != nil {
		s.logger.Info("user logged in", zap.Int64("uid", user.UID))
	}

	return s.toAuthResponse(ctx, user, clientIP, false)
}

func (s *userService) Logout(ctx context.Context, token string) error {
	_, err := s.sessions.Delete(ctx, token)
	return err
}

func (s *userService) Get(ctx context.Context, uid int64) (*domain.User, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, code.ErrorStoreRead.WithDetails(err.Error())
	}
	if user == nil {
		return nil, code.ErrorUserNotFound
	}
	return user, nil
}

// toAuthResponse mints a session for the account and builds the auth
// payload. The login key is only revealed at signup.
func (s *userService) toAuthResponse(ctx context.Context, user *domain.User, clientIP string, withLoginKey bool) (*dto.UserAuthResponse, error) {
	session, err := s.sessions.Create(ctx, user.UID, clientIP)
	if err != nil {
		return nil, err
	}

	resp := &dto.UserAuthResponse{}
	if err := copier.Copy(resp, user); err != nil {
		return nil, code.ErrorInternal.WithDetails(err.Error())
	}
	if !withLoginKey {
		resp.LoginKey = ""
	}
	resp.Token = session.Token
	resp.ExpiredAt = session.ExpiredAt.Format(authTimeLayout)

	return resp, nil
}
