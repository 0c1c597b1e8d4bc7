package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/lophoc/apps/api/echo"
	"github.com/trezcool/lophoc/core/user"
	testutil "github.com/trezcool/lophoc/tests"
)

func Test_userApi_register(t *testing.T) {
	app, server := setup(t)
	app.CreateUser(t, "taken@test.test", user.RoleStudent)

	tests := []httpTest{
		{
			name: "bad role", method: http.MethodPost, path: "/v1/users/register",
			body:     []byte(`{"email": "a@test.test", "password": "Pwd.1234", "role": "ADMIN"}`),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: map[string]string{"role": "invalid role"}}),
		},
		{
			name: "short password", method: http.MethodPost, path: "/v1/users/register",
			body:     []byte(`{"email": "a@test.test", "password": "a.1", "role": "STUDENT"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: map[string]string{"password": "password must contain at least 6 characters"}}),
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/users/register",
			body:     []byte(`{"email": "Taken@test.test", "password": "Pwd.1234", "role": "STUDENT"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: map[string]string{"email": user.ErrEmailExists.Error()}}),
		},
		{
			name: "ok", method: http.MethodPost, path: "/v1/users/register",
			body:     []byte(`{"email": "new@test.test", "password": "Pwd.1234", "role": "lecturer"}`),
			wantCode: http.StatusCreated,
		},
	}
	runHTTPTests(t, server, tests)

	usr, err := app.UserSvc.GetByEmail(ctx(), "new@test.test")
	require.NoError(t, err)
	assert.True(t, usr.IsLecturer())
}

func Test_userApi_login(t *testing.T) {
	app, server := setup(t)
	usr := app.CreateUser(t, "user@test.test", user.RoleStudent)
	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	inactive := app.CreateUser(t, "off@test.test", user.RoleStudent)
	_, err := app.UserSvc.SetActive(ctx(), lecturer, inactive.ID, false)
	require.NoError(t, err)

	authFailed := marshalObj(t, httpErr{Error: "authentication failed"})
	tests := []httpTest{
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"email": "nobody@test.test", "password": "Pwd.1234"}`),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"email": "user@test.test", "password": "nope"}`),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"email": "off@test.test", "password": "Pwd.1234"}`),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	runHTTPTests(t, server, tests)

	req, rec := newRequest(http.MethodPost, "/v1/users/login", []byte(`{"email": " USER@test.test", "password": "Pwd.1234"}`))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login echoapi.LoginResponse
	decodeData(t, rec, &login)
	require.NotEmpty(t, login.Token)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", login.Token)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var me user.User
	decodeData(t, rec, &me)
	assert.Equal(t, usr.ID, me.ID)
	assert.NotNil(t, me.LastLogin)
}

func Test_userApi_auth(t *testing.T) {
	app, server := setup(t)
	usr := app.CreateUser(t, "user@test.test", user.RoleStudent)
	token := getToken(t, app, usr)

	runHTTPTests(t, server, []httpTest{
		{name: "no token", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "bad token", path: "/v1/users/me", token: "not.a.jwt", wantCode: http.StatusUnauthorized},
		{name: "ok", path: "/v1/users/me", token: token, wantCode: http.StatusOK},
	})

	t.Run("refresh", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
		server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var refreshed echoapi.LoginResponse
		decodeData(t, rec, &refreshed)

		// the refreshed token replaces the old one
		req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", token)
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		token = refreshed.Token
	})

	t.Run("logout", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/logout", token)
		server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", token)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "token has been revoked"}),
		}, rec)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app, server := setup(t)
	app.CreateUser(t, "user@test.test", user.RoleStudent)

	for _, email := range []string{"user@test.test", "unknown@test.test"} {
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", marshalObj(t, map[string]string{"email": email}))
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, email)
	}
	// only the existing user gets an email
	assert.Len(t, app.Mailer.SentMessages(), 1)

	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", []byte(
		`{"uid": "x", "token": "y", "password": "N3w.pass", "password_confirm": "N3w.pass"}`,
	))
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshalObj(t, httpErr{Error: map[string]string{"token": "invalid token"}}),
	}, rec)
}

func Test_userApi_manage(t *testing.T) {
	app, server := setup(t)
	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	student := app.CreateUser(t, "stu@test.test", user.RoleStudent)
	lecToken, stuToken := getToken(t, app, lecturer), getToken(t, app, student)

	runHTTPTests(t, server, []httpTest{
		{
			name: "query: lecturer required", path: "/v1/users", token: stuToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "query", path: "/v1/users?role=student&ordering=-email", token: lecToken, wantCode: http.StatusOK},
		{
			name: "set role: not on self", method: http.MethodPut, path: "/v1/users/" + lecturer.ID + "/role",
			body: []byte(`{"role": "STUDENT"}`), token: lecToken, wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: user.ErrSelfManagement.Error()}),
		},
		{
			name: "set active: is_active required", method: http.MethodPut, path: "/v1/users/" + student.ID + "/active",
			body: []byte(`{}`), token: lecToken, wantCode: http.StatusBadRequest,
		},
		{
			name: "deactivate", method: http.MethodPut, path: "/v1/users/" + student.ID + "/active",
			body: []byte(`{"is_active": false}`), token: lecToken, wantCode: http.StatusOK,
		},
		{
			name: "deactivated users are locked out", path: "/v1/users/me", token: stuToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/users?search=STU", lecToken)
	server.ServeHTTP(rec, req)
	var users []user.User
	decodeData(t, rec, &users)
	require.Len(t, users, 1)
	assert.Equal(t, student.ID, users[0].ID)
}

func Test_userApi_changePassword(t *testing.T) {
	app, server := setup(t)
	usr := app.CreateUser(t, "user@test.test", user.RoleStudent)
	token := getToken(t, app, usr)

	runHTTPTests(t, server, []httpTest{
		{
			name: "same password", method: http.MethodPut, path: "/v1/users/me/password", token: token,
			body:     marshalObj(t, user.ChangePassword{OldPassword: testutil.DefaultPassword, NewPassword: testutil.DefaultPassword}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "wrong old password", method: http.MethodPut, path: "/v1/users/me/password", token: token,
			body:     marshalObj(t, user.ChangePassword{OldPassword: "wrong", NewPassword: "N3w.pass"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: map[string]string{"old_password": user.ErrWrongPassword.Error()}}),
		},
		{
			name: "ok", method: http.MethodPut, path: "/v1/users/me/password", token: token,
			body:     marshalObj(t, user.ChangePassword{OldPassword: testutil.DefaultPassword, NewPassword: "N3w.pass"}),
			wantCode: http.StatusOK,
		},
	})
}
