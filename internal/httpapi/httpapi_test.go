package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas/kram-terminal-go/internal/catalogio"
	"github.com/thomas/kram-terminal-go/internal/shop"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, opts ...Option) (*shop.Catalog, *httptest.Server) {
	t.Helper()
	catalog := shop.NewCatalog()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	srv := New(catalog, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return catalog, ts
}

func do(t *testing.T, method, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndList(t *testing.T) {
	catalog, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/products",
		`{"name":"Phone","price":1000,"old_price":"1 200","smart":true}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	decode(t, resp, &created)
	assert.Equal(t, "Phone", created["name"])
	assert.Equal(t, "1000", created["price"])
	assert.Equal(t, true, created["smart"])
	assert.Equal(t, false, created["favorite"])
	assert.Equal(t, 1, catalog.Len())

	resp = do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created["id"], list[0]["id"])

	resp = do(t, http.MethodGet, ts.URL+"/api/products/"+created["id"].(string), "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateValidation(t *testing.T) {
	catalog, ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"price":"100"}`, http.StatusBadRequest},
		{"missing price", `{"name":"Phone"}`, http.StatusBadRequest},
		{"bad json", `{"name":`, http.StatusBadRequest},
		{"bad price", `{"name":"Phone","price":"free"}`, http.StatusUnprocessableEntity},
		{"negative price", `{"name":"Phone","price":-1}`, http.StatusUnprocessableEntity},
		{"exponent price", `{"name":"Phone","price":"1e50000000"}`, http.StatusUnprocessableEntity},
		{"exponent number", `{"name":"Phone","price":1e50000000}`, http.StatusUnprocessableEntity},
		{"sub-kopiyka price", `{"name":"Phone","price":0.001}`, http.StatusUnprocessableEntity},
		{"bad old price", `{"name":"Phone","price":1,"old_price":"x"}`, http.StatusUnprocessableEntity},
		{"bad image", `{"name":"Phone","price":1,"image_url":"ftp://x/y"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/api/products", tt.body, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
	assert.Equal(t, 0, catalog.Len())
}

func TestDeleteAndFavorite(t *testing.T) {
	catalog, ts := newTestServer(t)
	p, err := catalog.AddProduct(&shop.ProductDraft{Name: "Phone", Price: "1000"})
	require.NoError(t, err)

	resp := do(t, http.MethodPost, ts.URL+"/api/products/"+p.ID+"/favorite", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled shop.Product
	decode(t, resp, &toggled)
	assert.True(t, toggled.Favorite)

	resp = do(t, http.MethodGet, ts.URL+"/api/favorites", "", nil)
	var favorites []shop.Product
	decode(t, resp, &favorites)
	assert.Len(t, favorites, 1)

	for i := 0; i < 2; i++ {
		resp = do(t, http.MethodDelete, ts.URL+"/api/products/"+p.ID, "", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	assert.Equal(t, 0, catalog.Len())

	resp = do(t, http.MethodPost, ts.URL+"/api/products/"+p.ID+"/favorite", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIKeyRequiredForMutations(t *testing.T) {
	catalog, ts := newTestServer(t, WithAPIKey("s3cret"))

	resp := do(t, http.MethodPost, ts.URL+"/api/products", `{"name":"Phone","price":1}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/products", `{"name":"Phone","price":1}`,
		http.Header{APIKeyHeader: []string{"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/products", `{"name":"Phone","price":1}`,
		http.Header{APIKeyHeader: []string{"s3cret"}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads stay open")
	assert.Equal(t, 1, catalog.Len())
}

func TestExportAndImport(t *testing.T) {
	catalog, ts := newTestServer(t)
	_, err := catalog.AddProduct(&shop.ProductDraft{Name: "Phone", Price: "1000"})
	require.NoError(t, err)

	resp := do(t, http.MethodGet, ts.URL+"/api/export.xlsx", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, catalogio.ContentType, resp.Header.Get("Content-Type"))
	workbook, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	rows, err := catalogio.Read(bytes.NewReader(workbook))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Phone", rows[0].Draft.Name)

	// Import into a second server: the same ids are accepted once.
	other, ts2 := newTestServer(t)
	upload := func() *http.Response {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "products.xlsx")
		require.NoError(t, err)
		_, err = part.Write(workbook)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, ts2.URL+"/api/import", &body)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp = upload()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report struct {
		Added  int             `json:"added"`
		Failed []importFailure `json:"failed"`
	}
	decode(t, resp, &report)
	assert.Equal(t, 1, report.Added)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 1, other.Len())

	resp = upload()
	decode(t, resp, &report)
	assert.Equal(t, 0, report.Added)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 2, report.Failed[0].Row)

	resp = do(t, http.MethodPost, ts2.URL+"/api/import", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangeFeed(t *testing.T) {
	catalog, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/changes"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello shop.Change
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, shop.ChangeCatalogLoaded, hello.Kind)

	p, err := catalog.AddProduct(&shop.ProductDraft{Name: "Phone", Price: "1000"})
	require.NoError(t, err)

	var change shop.Change
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, shop.ChangeProductAdded, change.Kind)
	assert.Equal(t, p.ID, change.ProductID)
}
