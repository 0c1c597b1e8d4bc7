package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/conversation"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/upload"
	"github.com/trezcool/lophoc/core/user"
)

func Test_conversationApi(t *testing.T) {
	app, server := setup(t)
	alice := app.CreateUser(t, "alice@test.test", user.RoleLecturer)
	bob := app.CreateUser(t, "bob@test.test", user.RoleStudent)
	eve := app.CreateUser(t, "eve@test.test", user.RoleStudent)
	aliceToken, bobToken := getToken(t, app, alice), getToken(t, app, bob)

	send := func(token string, fields map[string]string, filename string) (int, conversation.Message) {
		req, rec := newMultipartRequest(t, http.MethodPost, "/v1/messages", token, fields, filename, []byte("%PDF"))
		server.ServeHTTP(rec, req)
		var msg conversation.Message
		if rec.Code == http.StatusCreated {
			decodeData(t, rec, &msg)
		}
		return rec.Code, msg
	}

	code, _ := send(aliceToken, map[string]string{"receiver_id": bob.ID}, "")
	assert.Equal(t, http.StatusBadRequest, code, "empty message")
	code, _ = send(aliceToken, map[string]string{"receiver_id": alice.ID, "message": "me"}, "")
	assert.Equal(t, http.StatusBadRequest, code, "self message")

	code, first := send(aliceToken, map[string]string{"receiver_id": bob.ID, "message": "hello"}, "")
	require.Equal(t, http.StatusCreated, code)
	code, withFile := send(bobToken, map[string]string{"receiver_id": alice.ID}, "homework.pdf")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, first.ConversationID, withFile.ConversationID)
	assert.True(t, strings.HasSuffix(withFile.FileURL, "_homework.pdf"), withFile.FileURL)

	convPath := "/v1/conversations/" + first.ConversationID
	runHTTPTests(t, server, []httpTest{
		{name: "bad page", path: "/v1/conversations?count=1000", token: bobToken, wantCode: http.StatusBadRequest},
		{name: "conversations", path: "/v1/conversations", token: bobToken, wantCode: http.StatusOK},
		{name: "messages: outsider", path: convPath + "/messages", token: getToken(t, app, eve), wantCode: http.StatusNotFound},
		{
			name: "mark read", method: http.MethodPut, path: convPath + "/read", token: bobToken, wantCode: http.StatusOK,
			wantData: []byte(`{"code": 1000, "message": "Messages marked as read", "data": {"count": 1}}`),
		},
		{
			name: "edit: not the sender", method: http.MethodPut, path: "/v1/messages/" + first.ID, token: bobToken,
			body: []byte(`{"message": "hi"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "edit", method: http.MethodPut, path: "/v1/messages/" + first.ID, token: aliceToken,
			body: []byte(`{"message": "hi there"}`), wantCode: http.StatusOK,
		},
		{
			name: "block", method: http.MethodPut, path: convPath + "/block", token: bobToken, wantCode: http.StatusOK,
			wantData: marshalObj(t, map[string]interface{}{"code": 1000, "message": conversation.MsgBlocked, "data": map[string]bool{"blocked": true}}),
		},
	})

	code, _ = send(aliceToken, map[string]string{"receiver_id": bob.ID, "message": "are you there?"}, "")
	assert.Equal(t, http.StatusForbidden, code, "blocked by the receiver")

	req, rec := newAuthRequest(http.MethodGet, convPath+"/messages", aliceToken)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var msgs []conversation.Message
	decodeData(t, rec, &msgs)
	require.Len(t, msgs, 2)

	runHTTPTests(t, server, []httpTest{
		{name: "delete: not the sender", method: http.MethodDelete, path: "/v1/messages/" + first.ID, token: bobToken, wantCode: http.StatusForbidden},
		{name: "delete", method: http.MethodDelete, path: "/v1/messages/" + first.ID, token: aliceToken, wantCode: http.StatusOK},
		{name: "delete twice", method: http.MethodDelete, path: "/v1/messages/" + first.ID, token: aliceToken, wantCode: http.StatusNotFound},
	})
}

func Test_notificationApi(t *testing.T) {
	app, server := setup(t)
	lecturer := app.CreateUser(t, "lec@test.test", user.RoleLecturer)
	student := app.CreateUser(t, "stu@test.test", user.RoleStudent)
	other := app.CreateUser(t, "other@test.test", user.RoleStudent)
	lecToken, stuToken := getToken(t, app, lecturer), getToken(t, app, student)

	runHTTPTests(t, server, []httpTest{
		{
			name: "students cannot notify", method: http.MethodPost, path: "/v1/notifications", token: stuToken,
			body: []byte(`{"receiver_id": "` + other.ID + `", "type": "GENERAL", "message": "hey"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "bad type", method: http.MethodPost, path: "/v1/notifications", token: lecToken,
			body: []byte(`{"receiver_id": "` + student.ID + `", "type": "SPAM", "message": "hey"}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: map[string]string{"type": "invalid notification type"}}),
		},
		{
			name: "receiver must be a student", method: http.MethodPost, path: "/v1/notifications", token: lecToken,
			body: []byte(`{"receiver_id": "` + lecturer.ID + `", "type": "GENERAL", "message": "hey"}`), wantCode: http.StatusNotFound,
		},
		{
			name: "send", method: http.MethodPost, path: "/v1/notifications", token: lecToken,
			body: []byte(`{"receiver_id": "` + student.ID + `", "type": "GENERAL", "message": "Room changed"}`), wantCode: http.StatusCreated,
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/notifications?count=5", stuToken)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var notifs []notification.Notification
	decodeData(t, rec, &notifs)
	require.Len(t, notifs, 1)
	assert.Equal(t, "Room changed", notifs[0].Message)
	assert.False(t, notifs[0].IsRead)

	runHTTPTests(t, server, []httpTest{
		{
			name: "mark read: not the receiver", method: http.MethodPut, path: "/v1/notifications/read", token: getToken(t, app, other),
			body: []byte(`{"notification_ids": ["` + notifs[0].ID + `"]}`), wantCode: http.StatusForbidden,
		},
		{
			name: "mark read: empty", method: http.MethodPut, path: "/v1/notifications/read", token: stuToken,
			body: []byte(`{"notification_ids": []}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "mark read", method: http.MethodPut, path: "/v1/notifications/read", token: stuToken,
			body: []byte(`{"notification_ids": ["` + notifs[0].ID + `"]}`), wantCode: http.StatusOK,
		},
	})

	notifs, err := app.NotificationSvc.List(ctx(), student, core.Page{})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.True(t, notifs[0].IsRead)
}

func Test_uploadApi(t *testing.T) {
	app, server := setup(t)
	token := getToken(t, app, app.CreateUser(t, "stu@test.test", user.RoleStudent))

	req, rec := newMultipartRequest(t, http.MethodPost, "/v1/uploads", token, nil, "", nil)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "file required")

	req, rec = newMultipartRequest(t, http.MethodPost, "/v1/uploads", token, nil, "virus.exe", []byte("MZ"))
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, string(marshalObj(t, httpErr{Error: map[string]string{"file": upload.ErrUnsupportedType.Error()}})), rec.Body.String())

	req, rec = newMultipartRequest(t, http.MethodPost, "/v1/uploads", token, nil, "my photo.JPG", []byte("\xff\xd8\xff"))
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var f upload.File
	resp := decodeData(t, rec, &f)
	assert.Equal(t, "File uploaded successfully", resp.Message)
	assert.True(t, strings.HasSuffix(f.Name, "_my_photo.jpg"), f.Name)
	assert.Equal(t, int64(3), f.Size)
	assert.Equal(t, "image/jpeg", f.ContentType)
}

func Test_homeAndMetrics(t *testing.T) {
	_, server := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newRequest(http.MethodGet, "/metrics")
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lophoc_http_requests_total")
}
