package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/lecturehub/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func introVideo() *videoPart {
	return &videoPart{filename: "intro.mp4", contentType: "video/mp4", data: make([]byte, 2<<20)}
}

func createLecture(t *testing.T, api *testAPI, token string) int {
	t.Helper()
	rec := api.do(t, multipartRequest(t, http.MethodPost, "/api/lectures/", map[string]string{
		"title":       "Intro",
		"description": "First steps",
	}, introVideo()), token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "Lecture created successfully", body["message"])
	lecture := body["lecture"].(map[string]any)
	assert.True(t, strings.HasPrefix(lecture["videoUrl"].(string), "http://localhost:5001/mock-s3/"))
	return int(lecture["id"].(float64))
}

func TestLectures_CreatorViewAndForbiddenDelete(t *testing.T) {
	api := newTestAPI(t, true)
	adminUser, adminToken := api.seedUser(t, "alice", types.RoleAdmin)
	_, userToken := api.seedUser(t, "bob", types.RoleUser)

	id := createLecture(t, api, adminToken)
	path := "/api/lectures/" + strconv.Itoa(id)

	rec := api.do(t, newRequest(http.MethodGet, path), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Intro", body["title"])
	assert.Equal(t, map[string]any{"id": float64(adminUser.ID), "username": "alice"}, body["createdBy"])

	rec = api.do(t, newRequest(http.MethodGet, path), userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "Intro", body["title"])
	assert.NotContains(t, body, "createdBy")

	rec = api.do(t, newRequest(http.MethodDelete, path), userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to delete this lecture", decodeBody(t, rec)["message"])

	rec = api.do(t, newRequest(http.MethodGet, path), userToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLectures_ListHidesCreatorFromUsers(t *testing.T) {
	api := newTestAPI(t, true)
	_, adminToken := api.seedUser(t, "alice", types.RoleAdmin)
	_, userToken := api.seedUser(t, "bob", types.RoleUser)
	createLecture(t, api, adminToken)

	rec := api.do(t, newRequest(http.MethodGet, "/api/lectures"), userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "createdBy")

	rec = api.do(t, newRequest(http.MethodGet, "/api/lectures"), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"createdBy":{"id":1,"username":"alice"}`)
}

func TestLectures_CreateRequiresAdmin(t *testing.T) {
	api := newTestAPI(t, true)
	_, userToken := api.seedUser(t, "bob", types.RoleUser)

	rec := api.do(t, multipartRequest(t, http.MethodPost, "/api/lectures", map[string]string{"title": "Intro"}, introVideo()), userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, api.lectures.items)
}

func TestLectures_CreateValidation(t *testing.T) {
	api := newTestAPI(t, true)
	_, adminToken := api.seedUser(t, "alice", types.RoleAdmin)

	rec := api.do(t, multipartRequest(t, http.MethodPost, "/api/lectures", map[string]string{"title": "Intro"}, nil), adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Video file is required", decodeBody(t, rec)["message"])

	rec = api.do(t, multipartRequest(t, http.MethodPost, "/api/lectures", map[string]string{"title": " "}, introVideo()), adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title is required", decodeBody(t, rec)["message"])

	pdf := &videoPart{filename: "notes.pdf", contentType: "application/pdf", data: []byte("%PDF")}
	rec = api.do(t, multipartRequest(t, http.MethodPost, "/api/lectures", map[string]string{"title": "Intro"}, pdf), adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only video files are allowed", decodeBody(t, rec)["message"])
}

func TestLectures_OwnerUpdatesWithJSON(t *testing.T) {
	api := newTestAPI(t, true)
	_, adminToken := api.seedUser(t, "alice", types.RoleAdmin)
	owner, ownerToken := api.seedUser(t, "bob", types.RoleUser)
	_, otherToken := api.seedUser(t, "carol", types.RoleUser)

	id := createLecture(t, api, adminToken)
	lecture := api.lectures.items[id]
	lecture.CreatorID = owner.ID
	api.lectures.items[id] = lecture
	path := "/api/lectures/" + strconv.Itoa(id)

	rec := api.do(t, jsonRequest(t, http.MethodPut, path, map[string]string{"title": "Renamed", "description": ""}), ownerToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody(t, rec)["lecture"].(map[string]any)
	assert.Equal(t, "Renamed", updated["title"])
	assert.Equal(t, "", updated["description"])
	assert.Equal(t, lecture.VideoURL, updated["videoUrl"])

	rec = api.do(t, jsonRequest(t, http.MethodPut, path, map[string]string{"title": "Hijacked"}), otherToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to update this lecture", decodeBody(t, rec)["message"])
}

func TestLectures_UpdateReplacesVideo(t *testing.T) {
	api := newTestAPI(t, true)
	_, adminToken := api.seedUser(t, "alice", types.RoleAdmin)
	id := createLecture(t, api, adminToken)
	before := api.lectures.items[id].VideoURL

	rec := api.do(t, multipartRequest(t, http.MethodPut, "/api/lectures/"+strconv.Itoa(id), nil,
		&videoPart{filename: "v2.webm", contentType: "video/webm", data: []byte("webm")}), adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeBody(t, rec)["lecture"].(map[string]any)
	assert.NotEqual(t, before, updated["videoUrl"])
	assert.True(t, strings.HasSuffix(updated["videoUrl"].(string), "-v2.webm"))
	assert.Equal(t, "Intro", updated["title"])
}

func TestLectures_DeleteTwice(t *testing.T) {
	api := newTestAPI(t, true)
	_, adminToken := api.seedUser(t, "alice", types.RoleAdmin)
	id := createLecture(t, api, adminToken)
	path := "/api/lectures/" + strconv.Itoa(id)

	rec := api.do(t, newRequest(http.MethodDelete, path), adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lecture deleted successfully", decodeBody(t, rec)["message"])

	rec = api.do(t, newRequest(http.MethodDelete, path), adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Lecture not found", decodeBody(t, rec)["message"])
}

func TestLectures_BadIDIsNotFound(t *testing.T) {
	api := newTestAPI(t, true)
	_, token := api.seedUser(t, "bob", types.RoleUser)

	rec := api.do(t, newRequest(http.MethodGet, "/api/lectures/not-a-number"), token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLectures_RequireToken(t *testing.T) {
	api := newTestAPI(t, true)

	rec := api.do(t, newRequest(http.MethodGet, "/api/lectures"), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token, authorization denied", decodeBody(t, rec)["message"])

	rec = api.do(t, newRequest(http.MethodGet, "/api/lectures"), "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is not valid", decodeBody(t, rec)["message"])
}

func TestLectures_ServerErrorDetail(t *testing.T) {
	for _, expose := range []bool{true, false} {
		api := newTestAPI(t, expose)
		_, token := api.seedUser(t, "bob", types.RoleUser)
		api.lectures.listErr = errDatabaseDown

		rec := api.do(t, newRequest(http.MethodGet, "/api/lectures"), token)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Server error", body["message"])
		if expose {
			assert.Contains(t, body["error"], "database down")
		} else {
			assert.NotContains(t, body, "error")
		}
	}
}
