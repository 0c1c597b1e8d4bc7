package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/upload"
	"github.com/trezcool/lophoc/core/user"
)

type userApi struct {
	svc       *user.Service
	uploadSvc *upload.Service
	auth      *authenticator
	validate  *validator.Validate
	logger    core.Logger
}

func registerUserAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps, auth *authenticator) {
	api := userApi{
		svc:       deps.UserSvc,
		uploadSvc: deps.UploadSvc,
		auth:      auth,
		validate:  deps.Validate,
		logger:    deps.Logger,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	// TODO: rate limit `/login` & `/password-reset`
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", authed...)
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me)
	ag.PUT("/me", api.updateMe)
	ag.PUT("/me/password", api.changePassword)
	ag.GET("/roles", api.queryRoles)
	ag.GET("", api.query, lecturerMiddleware)
	ag.PUT("/:id/role", api.setRole, lecturerMiddleware)
	ag.PUT("/:id/active", api.setActive, lecturerMiddleware)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			return core.NewFieldError("email", user.ErrEmailExists.Error())
		}
		return errors.Wrap(err, "registering user")
	}
	return respond(ctx, http.StatusCreated, "User registered successfully", usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.auth.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return respondOK(ctx, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	if cause := errors.Cause(err); !(err == nil || cause == user.ErrNotFound || cause == user.ErrAccountInactive) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return respond(ctx, http.StatusOK,
		"If the email address supplied is associated with an active account on this system, "+
			"an email will arrive in your inbox shortly with instructions to reset your password.",
		nil,
	)
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return respond(ctx, http.StatusOK, "Password has been reset with the new password.", nil)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return respondOK(ctx, LoginResponse{Token: token})
}

func (api *userApi) logout(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	api.auth.revoke(claims)
	return respond(ctx, http.StatusOK, "Logged out successfully", nil)
}

func (api *userApi) me(ctx echo.Context) error {
	return respondOK(ctx, contextUser(ctx))
}

func (api *userApi) updateMe(ctx echo.Context) error {
	usr := contextUser(ctx)

	var data user.UpdateInfo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInfo")
	}
	if err := data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}
	avatar, err := saveFormFile(ctx, api.uploadSvc, "avatar")
	if err != nil {
		return err
	}
	data.Avatar = avatar

	usr, err = api.svc.UpdateInfo(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user info")
	}
	return respond(ctx, http.StatusOK, "User info updated successfully", usr)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ChangePassword(ctx.Request().Context(), contextUser(ctx), data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return respond(ctx, http.StatusOK, "Password changed successfully", nil)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return respondOK(ctx, user.Roles)
}

func (api *userApi) query(ctx echo.Context) error {
	params := ctx.QueryParams()
	filter := &user.QueryFilter{Search: params.Get("search")}
	for _, r := range params["role"] {
		filter.Roles = append(filter.Roles, user.Role(r))
	}
	if v := params.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return core.NewFieldError("is_active", "must be a boolean")
		}
		filter.IsActive = &active
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return respondOK(ctx, users)
}

func (api *userApi) setRole(ctx echo.Context) error {
	var data user.SetRole
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetRole")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.SetRole(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data.Role)
	if err != nil {
		return errors.Wrap(err, "setting role")
	}
	return respond(ctx, http.StatusOK, "Role updated successfully", usr)
}

func (api *userApi) setActive(ctx echo.Context) error {
	var data SetActiveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetActiveRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	usr, err := api.svc.SetActive(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), *data.IsActive)
	if err != nil {
		return errors.Wrap(err, "setting activation")
	}
	msg := "User deactivated successfully"
	if usr.IsActive {
		msg = "User activated successfully"
	}
	return respond(ctx, http.StatusOK, msg, usr)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SetActiveRequest struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
