package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"autek/internal/config"
	"autek/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captured struct {
	method      string
	path        string
	query       url.Values
	contentType string
	body        string
}

func newCapturingServer(t *testing.T, status int, response string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*got = captured{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.Query(),
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL.String())

	c, err = New("http://example.com/api")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/", c.baseURL.String())
}

func TestDo_ResolvesAgainstBaseURL(t *testing.T) {
	srv, got := newCapturingServer(t, http.StatusOK, `{"data":[]}`)
	c, err := New(srv.URL + "/api/")
	require.NoError(t, err)

	body, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    "/category",
		Params: url.Values{"title": {"Phones & Tablets"}},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"data":[]}`, string(body))
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/category", got.path)
	assert.Equal(t, "Phones & Tablets", got.query.Get("title"))
	assert.Equal(t, "application/json", got.contentType)
}

func TestDo_JSONEncodesBody(t *testing.T) {
	srv, got := newCapturingServer(t, http.StatusOK, `{"data":{}}`)
	c, err := New(srv.URL + "/api/")
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{
		Method: http.MethodPut,
		URL:    "product/42",
		Body:   map[string]any{"description": "updated"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/product/42", got.path)
	assert.JSONEq(t, `{"description":"updated"}`, got.body)
}

func TestDo_ReaderBodyAndHeaderOverride(t *testing.T) {
	srv, got := newCapturingServer(t, http.StatusOK, `{"data":{}}`)
	c, err := New(srv.URL + "/api/")
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     "category",
		Headers: map[string]string{"Content-Type": "multipart/form-data; boundary=xyz"},
		Body:    strings.NewReader("raw payload"),
	})
	require.NoError(t, err)

	assert.Equal(t, "multipart/form-data; boundary=xyz", got.contentType)
	assert.Equal(t, "raw payload", got.body)
}

func TestDo_ErrorEnvelope(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusInternalServerError, `{"message":"failed to update product","error":"disk full"}`)
	c, err := New(srv.URL + "/api/")
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Method: http.MethodPut, URL: "product/1", Body: map[string]any{}})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "failed to update product", apiErr.Message)
	assert.JSONEq(t, `"disk full"`, string(apiErr.Detail))
	assert.Contains(t, err.Error(), "disk full")
}

func TestDo_ErrorWithoutEnvelope(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusBadGateway, `upstream down`)
	c, err := New(srv.URL + "/api/")
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{URL: "showcase"})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestDo_UsesConfiguredHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api/", WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{URL: "showcase"})
	assert.Error(t, err)
}

// newCatalogClient points a client at the real router backed by temp dirs
func newCatalogClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageFile, DataDir: filepath.Join(dir, "db")},
		Assets: config.AssetConfig{
			Driver:        config.AssetLocal,
			PublicDir:     filepath.Join(dir, "public"),
			MaxUploadSize: 1 << 20,
		},
	}

	ctx := context.Background()
	storage, err := server.OpenStorage(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assets, err := server.OpenAssets(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	router, err := server.NewRouter(ctx, cfg, zap.NewNop(), server.Dependencies{Storage: storage, Assets: assets})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/api/")
	require.NoError(t, err)
	return c
}

func TestCatalogRoundTrip(t *testing.T) {
	c := newCatalogClient(t)
	ctx := context.Background()

	category, err := c.CreateCategory(ctx, "Phones", File{Name: "phones.png", Content: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "Phones", category.Data.Title)
	assert.True(t, strings.HasPrefix(category.Data.Image, "/uploads/"))

	var form Form
	form.Set("title", "X1").Set("category", "phones").SetFloat("current", 100).SetFloat("old_price", 120)
	product, err := c.CreateProduct(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, 100.0, product.Data.Price.Current)

	matching, err := c.CategoryProducts(ctx, "PHONES")
	require.NoError(t, err)
	require.Len(t, matching, 1)
	assert.Equal(t, product.Data.ID, matching[0].ID)

	updated, err := c.UpdateProduct(ctx, product.Data.ID, map[string]any{"description": "updated"})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Data.Description)
	assert.Equal(t, "X1", updated.Data.Title)

	fetched, err := c.Product(ctx, product.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Data, fetched)

	workbook, err := c.ExportProducts(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, workbook)

	_, err = c.DeleteProduct(ctx, product.Data.ID)
	require.NoError(t, err)

	_, err = c.Product(ctx, product.Data.ID)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	removed, err := c.DeleteCategory(ctx, category.Data.ID)
	require.NoError(t, err)
	assert.Empty(t, removed.Warnings)

	categories, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestPopularProductsAndShowcase(t *testing.T) {
	c := newCatalogClient(t)
	ctx := context.Background()

	var form Form
	form.Set("title", "Mouse").SetFloat("price", 10).SetFloat("rate", 4.5)
	form.Image = &File{Name: "mouse.jpg", Content: strings.NewReader("jpg")}
	created, err := c.CreatePopularProduct(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, 10.0, created.Data.Price.Current)

	var update Form
	update.Set("id", strconv.FormatInt(created.Data.ID, 10)).Set("title", "Keyboard")
	updated, err := c.UpdatePopularProduct(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", updated.Data.Title)
	assert.Equal(t, 4.5, updated.Data.Rate)

	popular, err := c.PopularProducts(ctx)
	require.NoError(t, err)
	require.Len(t, popular, 1)

	_, err = c.DeletePopularProduct(ctx, created.Data.ID)
	require.NoError(t, err)

	showcases, err := c.Showcases(ctx)
	require.NoError(t, err)
	require.Len(t, showcases, 1)

	var banner Form
	banner.Set("id", strconv.FormatInt(showcases[0].ID, 10)).Set("main_text", "Sale").SetFloat("current", 99)
	showcase, err := c.UpdateShowcase(ctx, banner)
	require.NoError(t, err)
	assert.Equal(t, "Sale", showcase.Data.MainText)
	assert.Equal(t, 99.0, showcase.Data.Price.Current)
}

func TestValidationErrorSurfaces(t *testing.T) {
	c := newCatalogClient(t)

	_, err := c.CreateProduct(context.Background(), Form{})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	var details []map[string]string
	require.NoError(t, json.Unmarshal(apiErr.Detail, &details))
	assert.NotEmpty(t, details)
}
