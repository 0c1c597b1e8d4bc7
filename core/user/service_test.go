package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/user"
	testutil "github.com/trezcool/lophoc/tests"
)

func validationTags(err error) []string {
	var tags []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			tags = append(tags, fe.Tag())
		}
	}
	return tags
}

func TestNewUser_Validate(t *testing.T) {
	app := testutil.NewApp(t)
	app.CreateUser(t, "taken@test.test", user.RoleStudent)
	_, err := app.UserSvc.Register(context.Background(), user.NewUser{
		Email: "other@test.test", Username: "taken_name", Password: testutil.DefaultPassword, Role: user.RoleStudent,
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		nu        user.NewUser
		wantTag   string
		wantField string
	}{
		{name: "bad role", nu: user.NewUser{Email: "a@test.test", Password: testutil.DefaultPassword, Role: "ADMIN"}, wantTag: "role"},
		{name: "bad email", nu: user.NewUser{Email: "nope", Password: testutil.DefaultPassword, Role: user.RoleStudent}, wantTag: "email"},
		{name: "short password", nu: user.NewUser{Email: "a@test.test", Password: "a.1", Role: user.RoleStudent}, wantTag: "pwdminlen"},
		{name: "numeric password", nu: user.NewUser{Email: "a@test.test", Password: "98765432", Role: user.RoleStudent}, wantTag: "pwdnotallnum"},
		{name: "spaced password", nu: user.NewUser{Email: "a@test.test", Password: "my pass.9", Role: user.RoleStudent}, wantTag: "pwdnospace"},
		{name: "common password", nu: user.NewUser{Email: "a@test.test", Password: "Password1", Role: user.RoleStudent}, wantTag: "pwdnocommon"},
		{name: "similar password", nu: user.NewUser{Email: "nguyenvan@test.test", Password: "nguyenvan.", Role: user.RoleStudent}, wantTag: "pwdtoosim"},
		{name: "email taken", nu: user.NewUser{Email: " TAKEN@test.test", Password: testutil.DefaultPassword, Role: user.RoleStudent}, wantField: "email"},
		{name: "username taken", nu: user.NewUser{Email: "b@test.test", Username: "Taken_Name", Password: testutil.DefaultPassword, Role: user.RoleStudent}, wantField: "username"},
		{name: "valid", nu: user.NewUser{Email: "New@Test.test", Username: "new_one", Password: testutil.DefaultPassword, Role: "lecturer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(app.Validate, app.UserSvc)
			switch {
			case tt.wantTag != "":
				assert.Contains(t, validationTags(err), tt.wantTag)
			case tt.wantField != "":
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				require.Len(t, verr.Fields, 1)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, "new@test.test", tt.nu.Email)
				assert.Equal(t, user.RoleLecturer, tt.nu.Role)
			}
		})
	}
}

func TestService_ChangePassword(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	usr := app.CreateUser(t, "u@test.test", user.RoleStudent)

	err := app.UserSvc.ChangePassword(ctx, usr, user.ChangePassword{OldPassword: "wrong", NewPassword: "N3w.pass"})
	assert.True(t, core.IsValidation(err))

	require.NoError(t, app.UserSvc.ChangePassword(ctx, usr, user.ChangePassword{OldPassword: testutil.DefaultPassword, NewPassword: "N3w.pass"}))
	usr, err = app.UserSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("N3w.pass"))
}

func TestService_SetRoleAndActive(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	student := app.CreateUser(t, "stu@test.test", user.RoleStudent)

	tests := []struct {
		name    string
		actor   user.User
		id      string
		wantErr func(error) bool
	}{
		{name: "students cannot manage users", actor: student, id: lecturer.ID, wantErr: core.IsPermission},
		{name: "not on oneself", actor: lecturer, id: lecturer.ID, wantErr: core.IsPermission},
		{name: "unknown user", actor: lecturer, id: "3f1e8c1a-1b2c-4d5e-8f90-a1b2c3d4e5f6", wantErr: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.UserSvc.SetRole(ctx, tt.actor, tt.id, user.RoleLecturer)
			assert.True(t, tt.wantErr(err), "SetRole() error = %v", err)
			_, err = app.UserSvc.SetActive(ctx, tt.actor, tt.id, false)
			assert.True(t, tt.wantErr(err), "SetActive() error = %v", err)
		})
	}

	usr, err := app.UserSvc.SetRole(ctx, lecturer, student.ID, user.RoleLecturer)
	require.NoError(t, err)
	assert.True(t, usr.IsLecturer())

	usr, err = app.UserSvc.SetActive(ctx, lecturer, student.ID, false)
	require.NoError(t, err)
	assert.False(t, usr.IsActive)
}

func TestService_GetStudent(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	student := app.CreateUser(t, "stu@test.test", user.RoleStudent)

	_, err := app.UserSvc.GetStudent(ctx, lecturer.ID)
	assert.True(t, core.IsNotFound(err))

	got, err := app.UserSvc.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.Email, got.Email)

	_, err = app.UserSvc.SetActive(ctx, lecturer, student.ID, false)
	require.NoError(t, err)
	_, err = app.UserSvc.GetStudent(ctx, student.ID)
	assert.True(t, core.IsPermission(err))
}

func TestService_PasswordReset(t *testing.T) {
	app := testutil.NewApp(t)
	ctx := context.Background()
	usr := app.CreateUser(t, "reset@test.test", user.RoleStudent)

	require.NoError(t, app.UserSvc.RequestPasswordReset(ctx, "Reset@Test.test "))
	sent := app.Mailer.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "reset@test.test", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, app.Conf.FrontendBaseURL)
	assert.NotEmpty(t, msg.HTMLContent)

	data := msg.TemplateData.(map[string]interface{})
	uid, token := data["UID"].(string), data["Token"].(string)
	assert.Equal(t, user.EncodeUID(usr), uid)
	assert.True(t, strings.Contains(msg.TextContent, token))

	tests := []struct {
		name string
		rp   user.ResetUserPassword
	}{
		{name: "bad uid", rp: user.ResetUserPassword{UID: "%%%", Token: token, Password: "N3w.pass"}},
		{name: "unknown uid", rp: user.ResetUserPassword{UID: user.EncodeUID(user.User{ID: "nobody"}), Token: token, Password: "N3w.pass"}},
		{name: "bad token", rp: user.ResetUserPassword{UID: uid, Token: "HE4TS-sigsig", Password: "N3w.pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, core.IsValidation(app.UserSvc.ResetPassword(ctx, tt.rp)))
		})
	}

	require.NoError(t, app.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "N3w.pass"}))
	usr, err := app.UserSvc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("N3w.pass"))

	// the token is bound to the old password hash
	assert.True(t, core.IsValidation(app.UserSvc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: "0ther.pass"})))

	t.Run("inactive account", func(t *testing.T) {
		lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
		_, err := app.UserSvc.SetActive(ctx, lecturer, usr.ID, false)
		require.NoError(t, err)
		assert.Equal(t, user.ErrAccountInactive, app.UserSvc.RequestPasswordReset(ctx, usr.Email))
	})
}
