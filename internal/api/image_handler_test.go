package api

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"autodealer/inventory/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucketURL = "https://bucket.s3.amazonaws.com/"

func TestImageCommit(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/temp_b1/a.jpg", "image/jpeg", []byte("a"))
	env.store.Seed("cars/temp_b1/b.jpg", "image/jpeg", []byte("b"))

	w := env.do(t, http.MethodPost, "/api/images/commit", map[string]any{
		"carId": "car42",
		"images": []string{
			bucketURL + "cars/temp_b1/a.jpg",
			bucketURL + "cars/car42/old.jpg",
			"/api/images/get?key=cars%2Ftemp_b1%2Fb.jpg",
			"https://cdn.example.com/x.jpg",
		},
	}, true)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{
		bucketURL + "cars/car42/a.jpg",
		bucketURL + "cars/car42/old.jpg",
		bucketURL + "cars/car42/b.jpg",
		"https://cdn.example.com/x.jpg",
	}, body["images"])

	assert.Equal(t, []string{"cars/car42/a.jpg", "cars/car42/b.jpg"}, env.store.Keys())
	assert.Equal(t, "image/jpeg", env.store.ContentType("cars/car42/a.jpg"))
}

func TestImageCommit_PartsEntityType(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("parts/temp_b9/p.png", "image/png", nil)

	w := env.do(t, http.MethodPost, "/api/images/commit", map[string]any{
		"entityId":   "part7",
		"entityType": "parts",
		"images":     []string{"parts/temp_b9/p.png"},
	}, true)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{bucketURL + "parts/part7/p.png"}, decode(t, w)["images"])
}

func TestImageCommit_FailedRelocationKeepsOriginal(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/temp_b1/a.jpg", "image/jpeg", nil)
	env.store.FailOn(storagetest.OpCopy, "", errors.New("access denied"))
	ref := bucketURL + "cars/temp_b1/a.jpg"

	w := env.do(t, http.MethodPost, "/api/images/commit", map[string]any{
		"carId": "car42", "images": []string{ref},
	}, true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{ref}, decode(t, w)["images"])
	assert.True(t, env.store.Has("cars/temp_b1/a.jpg"))
}

func TestImageCommit_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"malformed", "{"},
		{"no entity", map[string]any{"images": []string{"a"}}},
		{"no images", map[string]any{"carId": "car42", "images": []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, http.MethodPost, "/api/images/commit", tt.body, true)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Invalid request data", body["error"])
		})
	}
}

func TestImageCommit_UnknownEntityType(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/images/commit", map[string]any{
		"carId": "car42", "entityType": "boats", "images": []string{"x"},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImageCommit_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/images/commit", map[string]any{"carId": "c", "images": []string{"x"}}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImageCleanup(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/temp_b1/a.jpg", "image/jpeg", nil)
	env.store.Seed("cars/temp_b1/b.jpg", "image/jpeg", nil)
	env.store.Seed("cars/temp_b2/c.jpg", "image/jpeg", nil)

	w := env.do(t, http.MethodPost, "/api/images/cleanup", map[string]string{"batchId": "b1"}, true)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["deletedCount"])
	assert.Equal(t, "Cleaned up 2 temporary files", body["message"])
	assert.NotContains(t, body, "failedCount")
	assert.Equal(t, []string{"cars/temp_b2/c.jpg"}, env.store.Keys())
}

func TestImageCleanup_EmptyBatch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/images/cleanup", map[string]string{"batchId": "nothing"}, true)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "No temporary files found", body["message"])
	assert.Equal(t, float64(0), body["deletedCount"])
}

func TestImageCleanup_ReportsFailures(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/temp_b1/a.jpg", "image/jpeg", nil)
	env.store.Seed("cars/temp_b1/b.jpg", "image/jpeg", nil)
	env.store.FailOn(storagetest.OpDelete, "cars/temp_b1/b.jpg", errors.New("access denied"))

	w := env.do(t, http.MethodPost, "/api/images/cleanup", map[string]string{"batchId": "b1"}, true)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["deletedCount"])
	assert.Equal(t, float64(1), body["failedCount"])
}

func TestImageCleanup_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/images/cleanup", map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Batch ID is required", decode(t, w)["error"])

	env.store.FailOn(storagetest.OpList, "", errors.New("network down"))
	w = env.do(t, http.MethodPost, "/api/images/cleanup", map[string]string{"batchId": "b1"}, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestImageGet(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/car42/a.jpg", "image/jpeg", []byte("jpeg-bytes"))
	env.store.Seed("cars/car42/raw", "", []byte("raw"))

	w := env.do(t, http.MethodGet, "/api/images/get?key=%2Fcars%2Fcar42%2Fa.jpg", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))

	w = env.do(t, http.MethodGet, "/api/images/get?key=cars/car42/raw", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
}

func TestImageGet_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/car42/a.jpg", "image/jpeg", nil)
	env.store.FailOn(storagetest.OpGet, "cars/car42/a.jpg", errors.New("access denied"))

	w := env.do(t, http.MethodGet, "/api/images/get", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing key", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/images/get?key=cars/none.jpg", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", w.Body.String())

	// store errors other than a missing object look the same to the client
	w = env.do(t, http.MethodGet, "/api/images/get?key=cars/car42/a.jpg", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImageSignedURL(t *testing.T) {
	env := newTestEnv(t)
	ref := bucketURL + "cars/car42/a.jpg"

	w := env.do(t, http.MethodPost, "/api/images/signed-url", map[string]string{"imageUrl": ref}, false)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, ref, body["originalUrl"])
	assert.Equal(t, "cars/car42/a.jpg", body["key"])
	assert.Equal(t, "https://signed.example.test/cars%2Fcar42%2Fa.jpg?method=GET&expires=86400", body["signedUrl"])
}

func TestImageSignedURL_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/images/signed-url", map[string]string{}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Image URL is required", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/images/signed-url", map[string]string{"imageUrl": "https://cdn.example.com/a.jpg"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid image URL", decode(t, w)["error"])
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestImageUpload_Staged(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(multipartRequest(t, map[string]string{"batchId": "b1"},
		formFile{"Front View.PNG", "image/png", []byte("png")},
		formFile{"rear.jpg", "image/jpeg", []byte("jpg")},
	))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "b1", body["batchId"])
	images := body["images"].([]any)
	require.Len(t, images, 2)
	first := images[0].(map[string]any)
	key := first["key"].(string)
	assert.True(t, strings.HasPrefix(key, "cars/temp_b1/front-view_"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, bucketURL+key, first["url"])
	assert.Equal(t, "image/png", first["contentType"])
	assert.True(t, env.store.Has(key))
}

func TestImageUpload_EntityFolder(t *testing.T) {
	env := newTestEnv(t)

	w := env.serve(multipartRequest(t, map[string]string{"carId": "car42"},
		formFile{"a.webp", "image/webp", []byte("w")},
	))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	images := decode(t, w)["images"].([]any)
	key := images[0].(map[string]any)["key"].(string)
	assert.True(t, strings.HasPrefix(key, "cars/car42/"), key)
}

func TestImageUpload_Rejections(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 10<<20+1)
	tests := []struct {
		name  string
		files []formFile
		want  int
	}{
		{"no files", nil, http.StatusBadRequest},
		{"unsupported type", []formFile{{"a.gif", "image/gif", []byte("g")}}, http.StatusUnsupportedMediaType},
		{"too large", []formFile{{"a.jpg", "image/jpeg", big}}, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.serve(multipartRequest(t, nil, tt.files...))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Equal(t, false, decode(t, w)["success"])
			assert.Empty(t, env.store.Keys())
		})
	}
}

func TestImagePresign(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/images/presign", map[string]string{
		"batchId": "b1", "filename": "a.jpg", "contentType": "image/jpeg",
	}, true)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	upload := decode(t, w)["upload"].(map[string]any)
	key := upload["key"].(string)
	assert.True(t, strings.HasPrefix(key, "cars/temp_b1/a_"), key)
	assert.Contains(t, upload["uploadUrl"], "method=PUT")
	assert.Equal(t, bucketURL+key, upload["url"])
}

func TestImagePresign_UnsupportedType(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/images/presign", map[string]string{
		"filename": "a.svg", "contentType": "image/svg+xml",
	}, true)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestImageDelete(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/car42/a.jpg", "image/jpeg", nil)

	w := env.do(t, http.MethodDelete, "/api/images/delete", map[string]string{"imageUrl": bucketURL + "cars/car42/a.jpg"}, true)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "cars/car42/a.jpg", body["key"])
	assert.False(t, env.store.Has("cars/car42/a.jpg"))
}

func TestImageDelete_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodDelete, "/api/images/delete", map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/api/images/delete", map[string]string{"imageUrl": "https://cdn.example.com/a.jpg"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no valid image identifier provided", decode(t, w)["error"])

	env.store.FailOn(storagetest.OpDelete, "", errors.New("access denied"))
	w = env.do(t, http.MethodDelete, "/api/images/delete", map[string]string{"imageKey": "cars/car42/a.jpg"}, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestImageDeleteMany(t *testing.T) {
	env := newTestEnv(t)
	env.store.Seed("cars/car42/a.jpg", "image/jpeg", nil)
	env.store.Seed("cars/car42/b.jpg", "image/jpeg", nil)
	env.store.FailOn(storagetest.OpDelete, "cars/car42/b.jpg", errors.New("access denied"))

	w := env.do(t, http.MethodPost, "/api/images/delete", map[string]any{
		"imageUrls": []string{bucketURL + "cars/car42/a.jpg", "https://cdn.example.com/x.jpg"},
		"imageKeys": []string{"cars/car42/b.jpg"},
	}, true)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, float64(1), body["deleted"])
	assert.Equal(t, float64(1), body["failed"])
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["errors"], 1)
}

func TestImageDeleteMany_NothingResolvable(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/images/delete", map[string]any{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/images/delete", map[string]any{"imageUrls": []string{"https://cdn.example.com/x.jpg"}}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
