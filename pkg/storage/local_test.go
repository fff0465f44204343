package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadDownload(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, ReportsBucket, "b1/r1.pdf", []byte("%PDF-1.4"), "application/pdf"))

	data, err := store.Download(ctx, ReportsBucket, "b1/r1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	url := store.PublicURL(ReportsBucket, "b1/r1.pdf")
	assert.Equal(t, "http://localhost:8080/storage/v1/object/public/reports/b1/r1.pdf", url)
	assert.True(t, IsValidPublicURL(url))
}

func TestLocalStorage_Errors(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Download(ctx, ReportsBucket, "missing.pdf")
	assert.True(t, domain.IsNotFound(err))

	err = store.Upload(ctx, ReportsBucket, "../../etc/passwd", []byte("x"), "text/plain")
	assert.True(t, domain.IsValidation(err))

	err = store.Upload(ctx, "", "x.pdf", []byte("x"), "application/pdf")
	assert.True(t, domain.IsValidation(err))
}

func TestLocalStorage_Handler(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, store.Upload(context.Background(), ReportsBucket, "b1/r1.pdf", []byte("pdf bytes"), "application/pdf"))

	srv := httptest.NewServer(store.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/storage/v1/object/public/reports/b1/r1.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pdf bytes", string(body))
}

func TestLocalStorage_HandlerHidesDirectories(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, ReportsBucket, "biz-a/rep-1-secret.pdf", []byte("a"), "application/pdf"))
	require.NoError(t, store.Upload(ctx, ReportsBucket, "biz-b/rep-2-secret.pdf", []byte("b"), "application/pdf"))

	srv := httptest.NewServer(store.Handler())
	defer srv.Close()

	for _, path := range []string{
		"/storage/v1/object/public/",
		"/storage/v1/object/public/reports",
		"/storage/v1/object/public/reports/",
		"/storage/v1/object/public/reports/biz-a",
		"/storage/v1/object/public/reports/biz-a/",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.NotContains(t, string(body), "secret")
		})
	}

	resp, err := http.Get(srv.URL + "/storage/v1/object/public/reports/biz-a/rep-1-secret.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
