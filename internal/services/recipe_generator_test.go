package services

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

func completionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, deepSeekModel, body["model"])
		assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDeepSeekGenerator(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{"title":"番茄炒蛋","description":"快手","category":"凉菜","tags":["家常"],"ingredients":[{"name":"鸡蛋","amount":"2个"}],"steps":["打蛋","炒"]}`)

	draft, err := NewDeepSeekGenerator("key").WithEndpoint(srv.URL).Generate(context.Background(), "鸡蛋")
	require.NoError(t, err)
	assert.Equal(t, "番茄炒蛋", draft.Title)
	assert.Equal(t, models.CategoryOther, draft.Category)
	assert.Equal(t, []string{"打蛋", "炒"}, draft.Steps)
}

func TestDeepSeekGenerator_Failures(t *testing.T) {
	_, err := NewDeepSeekGenerator("").Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGeneratorUnavailable)

	srv := completionServer(t, http.StatusTooManyRequests, "")
	_, err = NewDeepSeekGenerator("key").WithEndpoint(srv.URL).Generate(context.Background(), "x")
	assert.ErrorContains(t, err, "status=429")

	srv = completionServer(t, http.StatusOK, "I cannot do that")
	_, err = NewDeepSeekGenerator("key").WithEndpoint(srv.URL).Generate(context.Background(), "x")
	assert.Error(t, err)
}

func TestParseDraft(t *testing.T) {
	draft, err := parseDraft("```json\n{\"title\":\"粥\",\"category\":\"早餐\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryBreakfast, draft.Category)

	_, err = parseDraft("   ")
	assert.Error(t, err)

	_, err = parseDraft(`{"title":""}`)
	assert.Error(t, err)
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestOpenImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	f, err := openImage(fileHeader(t, "a.png", png))
	require.NoError(t, err)
	f.Close()

	_, err = openImage(fileHeader(t, "a.txt", []byte("hello world")))
	assert.ErrorIs(t, err, ErrInvalidUpload)
}
