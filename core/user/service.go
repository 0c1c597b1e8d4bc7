package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
)

var (
	// errors
	ErrNotFound        = errors.New("user not found")
	ErrEmailExists     = errors.New("a user with this email already exists")
	ErrUsernameExists  = errors.New("a user with this username already exists")
	ErrInvalidRole     = errors.New("invalid role")
	ErrWrongPassword   = errors.New("old password is incorrect")
	ErrSelfManagement  = errors.New("you cannot change your own role or activation")
	ErrAccountInactive = errors.New("account is not active")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrUsernameExists when a User (not in excludedIDs)
		// already has the email or username. Empty values are not checked.
		CheckUniqueness(ctx context.Context, email, username string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Username or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		tokenGen *tokenGenerator
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		tokenGen: newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *Service) checkUniqueness(email, uname string, excludedIDs ...string) error {
	if err := svc.repo.CheckUniqueness(context.Background(), email, uname, excludedIDs...); err != nil {
		var field string
		switch pkgerrors.Cause(err) {
		case ErrEmailExists:
			field = "email"
		case ErrUsernameExists:
			field = "username"
		default:
			return pkgerrors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: pkgerrors.Cause(err).Error()})
	}
	return nil
}

func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		Username:  nu.Username,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

// GetStudent returns the active student with the given ID.
func (svc *Service) GetStudent(ctx context.Context, id string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return User{}, core.NewNotFoundError(errors.New("student not found"))
		}
		return User{}, err
	}
	if !usr.Role.CanEnroll() {
		return User{}, core.NewNotFoundError(errors.New("student not found"))
	}
	if !usr.IsActive {
		return User{}, core.NewPermissionError("student account is inactive")
	}
	return usr, nil
}

func (svc *Service) UpdateInfo(ctx context.Context, usr User, ui UpdateInfo) (User, error) {
	if ui.Username != "" {
		usr.Username = ui.Username
	}
	if ui.Phone != "" {
		usr.Phone = ui.Phone
	}
	if ui.Address != "" {
		usr.Address = ui.Address
	}
	if ui.Avatar != "" {
		usr.Avatar = ui.Avatar
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) error {
	if err := usr.CheckPassword(cp.OldPassword); err != nil {
		return core.NewValidationError(ErrWrongPassword, core.FieldError{Field: "old_password", Error: ErrWrongPassword.Error()})
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return pkgerrors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err := svc.repo.UpdateUser(ctx, usr)
	return err
}

// SetRole changes the role of the User `id`. Only users who can manage users may do so, never on themselves.
func (svc *Service) SetRole(ctx context.Context, actor User, id string, role Role) (User, error) {
	usr, err := svc.getManaged(ctx, actor, id)
	if err != nil {
		return User{}, err
	}
	usr.Role = role
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetActive deactivates or reactivates the User `id`.
func (svc *Service) SetActive(ctx context.Context, actor User, id string, active bool) (User, error) {
	usr, err := svc.getManaged(ctx, actor, id)
	if err != nil {
		return User{}, err
	}
	usr.IsActive = active
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) getManaged(ctx context.Context, actor User, id string) (User, error) {
	if !actor.Role.CanManageUsers() {
		return User{}, core.NewPermissionError("permission denied")
	}
	if actor.ID == id {
		return User{}, core.NewPermissionError(ErrSelfManagement.Error())
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return User{}, core.NewNotFoundError(err)
		}
		return User{}, pkgerrors.Wrap(err, "finding user by ID")
	}
	return usr, nil
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	usr.LastLogin = &now
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrAccountInactive
	}
	svc.mailSvc.SendMessages(svc.passwordResetMail(usr))
	return nil
}

func (svc *Service) passwordResetMail(usr User) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.DisplayName(),
			"UID":   EncodeUID(usr),
			"Token": svc.tokenGen.makeToken(usr),
		},
	}
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	invalidErr := core.NewValidationError(errors.New("invalid token"), core.FieldError{Field: "token", Error: "invalid token"})

	id, err := decodeUID(rp.UID)
	if err != nil {
		return invalidErr
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return invalidErr
		}
		return pkgerrors.Wrap(err, "finding user by ID")
	}
	if err := svc.tokenGen.verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return pkgerrors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return pkgerrors.Wrap(err, fmt.Sprintf("updating user %s", usr.ID))
	}
	return nil
}
