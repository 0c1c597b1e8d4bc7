package echoapi_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/user"
)

func Test_absenceApi(t *testing.T) {
	app, server := setup(t)
	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	student := app.CreateUser(t, "stu@test.test", user.RoleStudent)
	outsider := app.CreateUser(t, "out@test.test", user.RoleStudent)

	today := time.Now().UTC()
	cls := app.CreateClass(t, lecturer, "Go 101", today, today.AddDate(0, 0, 30))
	app.Enroll(t, cls, student)

	stuToken := getToken(t, app, student)
	lecToken := getToken(t, app, lecturer)
	path := "/v1/classes/" + cls.ID + "/absences"
	day := today.AddDate(0, 0, 3).Format("2006-01-02")

	requestAbsence := func(token string, fields map[string]string, filename string) (int, absence.Request) {
		req, rec := newMultipartFieldRequest(t, http.MethodPost, path, token, fields, "proof", filename, []byte("%PDF-1.4 proof"))
		server.ServeHTTP(rec, req)
		var ar absence.Request
		if rec.Code == http.StatusCreated {
			decodeData(t, rec, &ar)
		}
		return rec.Code, ar
	}

	t.Run("request validation", func(t *testing.T) {
		code, _ := requestAbsence(stuToken, map[string]string{"reason": "sick"}, "")
		assert.Equal(t, http.StatusBadRequest, code, "date required")

		code, _ = requestAbsence(stuToken, map[string]string{"date": day}, "")
		assert.Equal(t, http.StatusBadRequest, code, "reason required")

		code, _ = requestAbsence(stuToken, map[string]string{"date": today.AddDate(0, 3, 0).Format("2006-01-02"), "reason": "sick"}, "")
		assert.Equal(t, http.StatusBadRequest, code, "out of range")

		code, _ = requestAbsence(stuToken, map[string]string{"date": day, "reason": "sick"}, "proof.exe")
		assert.Equal(t, http.StatusBadRequest, code, "unsupported proof")

		code, _ = requestAbsence(getToken(t, app, outsider), map[string]string{"date": day, "reason": "sick"}, "")
		assert.Equal(t, http.StatusForbidden, code, "not a member")
	})

	code, ar := requestAbsence(stuToken, map[string]string{"date": day, "reason": "sick"}, "note.pdf")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, absence.StatusPending, ar.Status)
	assert.True(t, strings.HasSuffix(ar.ProofURL, "_note.pdf"), ar.ProofURL)

	// the lecturer is notified
	notifs, err := app.NotificationSvc.List(ctx(), lecturer, core.Page{Count: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeAbsence, notifs[0].Type)
	assert.Equal(t, ar.ID, notifs[0].RelatedID)

	runHTTPTests(t, server, []httpTest{
		{name: "list: lecturer only", path: path, token: stuToken, wantCode: http.StatusForbidden},
		{name: "list: bad status", path: path + "?status=MAYBE", token: lecToken, wantCode: http.StatusBadRequest},
		{name: "list", path: path + "?status=pending&date=" + day, token: lecToken, wantCode: http.StatusOK},
		{
			name: "review: bad status", method: http.MethodPut, path: "/v1/absences/" + ar.ID + "/review", token: lecToken,
			body: []byte(`{"status": "PENDING"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "review", method: http.MethodPut, path: "/v1/absences/" + ar.ID + "/review", token: lecToken,
			body: []byte(`{"status": "approved"}`), wantCode: http.StatusOK,
		},
		{
			name: "review twice", method: http.MethodPut, path: "/v1/absences/" + ar.ID + "/review", token: lecToken,
			body: []byte(`{"status": "REJECTED"}`), wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: absence.ErrAlreadyChecked.Error()}),
		},
		{name: "no pending left", path: path + "?status=PENDING", token: lecToken, wantCode: http.StatusOK, wantData: []byte(`{"code": 1000, "message": "OK", "data": []}`)},
	})

	notifs, err = app.NotificationSvc.List(ctx(), student, core.Page{Count: 10})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeAbsenceAccepted, notifs[0].Type)
}
