// Package testutil provides a configurable mock storefront server for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// MockStorefront is a configurable mock listing-API server.
type MockStorefront struct {
	server  *httptest.Server
	mu      sync.RWMutex
	handler func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	Queries      []url.Values
	LastHeader   http.Header
}

// NewMockStorefront creates a mock server. Without a custom handler every
// request gets an empty product list.
func NewMockStorefront() *MockStorefront {
	mock := &MockStorefront{}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.Queries = append(mock.Queries, r.URL.Query())
		mock.LastHeader = r.Header.Clone()
		handler := mock.handler
		mock.mu.Unlock()

		if handler != nil {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"products": []}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockStorefront) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockStorefront) Close() {
	m.server.Close()
}

// SetHandler installs a custom handler for all requests.
func (m *MockStorefront) SetHandler(handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockStorefront) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// PagesRequested returns the value of param for every request, in order.
func (m *MockStorefront) PagesRequested(param string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pages := make([]string, 0, len(m.Queries))
	for _, q := range m.Queries {
		pages = append(pages, q.Get(param))
	}
	return pages
}

// ServeCatalog installs a handler that pages through total generated
// products ("p1".."pN") using the "page" and "size" query parameters.
// Pages past the end return an empty list.
func (m *MockStorefront) ServeCatalog(total int) {
	m.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		if page < 1 || size < 1 {
			http.Error(w, `{"error": "bad paging"}`, http.StatusBadRequest)
			return
		}

		start := (page - 1) * size
		end := start + size
		if end > total {
			end = total
		}

		var entries []string
		for i := start; i < end; i++ {
			entries = append(entries, ProductEntry(fmt.Sprintf("p%d", i+1), i+1))
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"data": {"products": [%s]}}`, strings.Join(entries, ","))
	})
}

// ProductEntry renders one GS Shop-shaped product entry with a nested
// sell price derived from n.
func ProductEntry(id string, n int) string {
	return fmt.Sprintf(
		`{"goodsNo": %q, "goodsNm": "Product %d", "price": {"sellPrice": %d}, "detailUrl": "https://shop.example/detail/%s"}`,
		id, n, n*1000, id)
}
