package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/lophoc/core"
)

// Role is the capability-tagged variant of a User: a Lecturer or a Student.
type Role string

// Roles
const (
	RoleLecturer Role = "LECTURER"
	RoleStudent  Role = "STUDENT"
)

var Roles = []RoleInfo{
	{Name: "Lecturer", Value: RoleLecturer},
	{Name: "Student", Value: RoleStudent},
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// ParseRole resolves a role name (case-insensitive).
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(core.CleanString(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	return r == RoleLecturer || r == RoleStudent
}

func (r Role) IsLecturer() bool { return r == RoleLecturer }
func (r Role) IsStudent() bool  { return r == RoleStudent }

// CanManageClasses reports whether the role may create and run classes
// (attendance, assignments, materials, absence reviews).
func (r Role) CanManageClasses() bool { return r == RoleLecturer }

// CanManageUsers reports whether the role may change other users' role and activation.
func (r Role) CanManageUsers() bool { return r == RoleLecturer }

// CanEnroll reports whether the role may be a member of a class.
func (r Role) CanEnroll() bool { return r == RoleStudent }

// CanNotify reports whether the role may send notifications to students.
func (r Role) CanNotify() bool { return r == RoleLecturer }

type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	Phone        string     `json:"phone" db:"phone"`
	Address      string     `json:"address" db:"address"`
	Avatar       string     `json:"avatar" db:"avatar"`
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    *time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// DisplayName returns the username, or the email when no username was set.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (u User) IsLecturer() bool { return u.Role.IsLecturer() }
func (u User) IsStudent() bool  { return u.Role.IsStudent() }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,min=3,max=50,alphanum_"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Role = Role(strings.ToUpper(core.CleanString(string(nu.Role))))

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email, nu.Username)
}

// UpdateInfo defines what information a User may change about themselves.
type UpdateInfo struct {
	Username string `json:"username" form:"username" validate:"omitempty,min=3,max=50,alphanum_"`
	Phone    string `json:"phone" form:"phone" validate:"omitempty,phone"`
	Address  string `json:"address" form:"address" validate:"omitempty,max=255"`
	Avatar   string `json:"-" form:"-"` // set from the uploaded file
}

func (ui *UpdateInfo) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	ui.Username = core.CleanString(ui.Username, true /* lower */)
	ui.Phone = core.CleanString(ui.Phone)
	ui.Address = core.CleanString(ui.Address)

	if err := validate.Struct(ui); err != nil {
		return err
	}
	if ui.Username != "" && ui.Username != origUsr.Username {
		return svc.checkUniqueness("", ui.Username, origUsr.ID)
	}
	return nil
}

type ChangePassword struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,nefield=OldPassword"`
}

func (cp ChangePassword) Validate(validate *validator.Validate) error { return validate.Struct(cp) }

type SetRole struct {
	Role Role `json:"role" validate:"required,role"`
}

func (sr *SetRole) Validate(validate *validator.Validate) error {
	sr.Role = Role(strings.ToUpper(core.CleanString(string(sr.Role))))
	return validate.Struct(sr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type GetFilter struct {
	ID              string
	Email           string
	UsernameOrEmail string
}

type QueryFilter struct {
	Search   string `query:"search"`
	Roles    []Role `query:"role"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i, r := range qf.Roles {
		qf.Roles[i] = Role(strings.ToUpper(core.CleanString(string(r))))
	}
}
