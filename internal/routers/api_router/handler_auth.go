package api_router

import (
	"github.com/penflow/penflow-sync-service/internal/app"
	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/internal/middleware"
	pkgapp "github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles signup, login-key exchange and session teardown.
type AuthHandler struct {
	*Handler
}

// NewAuthHandler creates an AuthHandler instance.
func NewAuthHandler(a *app.App) *AuthHandler {
	return &AuthHandler{Handler: NewHandler(a)}
}

// Signup creates an account and returns its login key plus a first session.
func (h *AuthHandler) Signup(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	params := &dto.UserSignupRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("api.auth.Signup.BindAndValid", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	auth, err := h.App.UserService.Signup(c.Request.Context(), params, pkgapp.GetRequestIP(c))
	if err != nil {
		h.respondError(c, code.ErrorUserSignupFailed, err)
		return
	}

	response.ToResponse(code.Success.WithData(auth))
}

// Login exchanges a stored login key for a fresh session token.
func (h *AuthHandler) Login(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	params := &dto.UserLoginRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("api.auth.Login.BindAndValid", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	auth, err := h.App.UserService.Login(c.Request.Context(), params, pkgapp.GetRequestIP(c))
	if err != nil {
		h.respondError(c, code.ErrorUserLoginFailed, err)
		return
	}

	response.ToResponse(code.Success.WithData(auth))
}

// Logout removes the presented session. Presenting an already-removed token
// is an error, not a silent success.
func (h *AuthHandler) Logout(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	token := pkgapp.GetSessionToken(c)
	if token == "" {
		response.ToResponse(code.ErrorNotSessionToken)
		return
	}

	if err := h.App.UserService.Logout(c.Request.Context(), token); err != nil {
		h.respondError(c, code.ErrorSessionDeleteFailed, err)
		return
	}

	response.ToResponse(code.Success)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := middleware.GetSessionUID(c)
	user, err := h.App.UserService.Get(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, code.ErrorUserNotFound, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.UserAuthResponse{
		UID:  user.UID,
		Name: user.Name,
	}))
}
