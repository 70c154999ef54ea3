package collector

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/hwanjo/gsshop-catalog-client/internal/testutil"
	"github.com/hwanjo/gsshop-catalog-client/pkg/client"
)

func TestProbe_LocksToFirstWorkingEndpoint(t *testing.T) {
	// Candidate A answers 404, B works, C must never be contacted.
	failing := testutil.NewMockStorefront()
	defer failing.Close()
	failing.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	working := testutil.NewMockStorefront()
	defer working.Close()
	working.ServeCatalog(20)

	untouched := testutil.NewMockStorefront()
	defer untouched.Close()
	untouched.ServeCatalog(20)

	c := newTestCollector(t, DefaultConfig())

	endpoint, err := c.Probe(context.Background(), []client.Endpoint{
		{URL: failing.URL()},
		{URL: working.URL()},
		{URL: untouched.URL()},
	})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if endpoint.URL != working.URL() {
		t.Errorf("accepted endpoint = %q, want %q", endpoint.URL, working.URL())
	}
	if got := untouched.GetRequestCount(); got != 0 {
		t.Errorf("later candidate contacted %d times, want 0", got)
	}
}

func TestProbe_RejectsEndpointWithoutExtractableRecords(t *testing.T) {
	// Valid JSON, but nothing the normalizer can use.
	unusable := testutil.NewMockStorefront()
	defer unusable.Close()
	unusable.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	})

	working := testutil.NewMockStorefront()
	defer working.Close()
	working.ServeCatalog(20)

	c := newTestCollector(t, DefaultConfig())

	endpoint, err := c.Probe(context.Background(), []client.Endpoint{
		{URL: unusable.URL()},
		{URL: working.URL()},
	})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if endpoint.URL != working.URL() {
		t.Errorf("accepted endpoint = %q, want %q", endpoint.URL, working.URL())
	}
}

func TestProbe_AllCandidatesFail(t *testing.T) {
	notFound := testutil.NewMockStorefront()
	defer notFound.Close()
	notFound.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	empty := testutil.NewMockStorefront()
	defer empty.Close() // default handler: empty product list

	c := newTestCollector(t, DefaultConfig())

	_, err := c.Probe(context.Background(), []client.Endpoint{
		{URL: notFound.URL()},
		{URL: empty.URL()},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var unreachable *EndpointUnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("error = %v, want *EndpointUnreachableError", err)
	}
	if len(unreachable.Attempts) != 2 {
		t.Fatalf("len(Attempts) = %d, want 2", len(unreachable.Attempts))
	}

	// Each attempt names its URL and a reason.
	if unreachable.Attempts[0].URL != notFound.URL() {
		t.Errorf("Attempts[0].URL = %q, want %q", unreachable.Attempts[0].URL, notFound.URL())
	}
	if !strings.Contains(unreachable.Attempts[0].Reason, "404") {
		t.Errorf("Attempts[0].Reason = %q, want mention of status 404", unreachable.Attempts[0].Reason)
	}
	if unreachable.Attempts[1].Reason != "no extractable records" {
		t.Errorf("Attempts[1].Reason = %q, want %q", unreachable.Attempts[1].Reason, "no extractable records")
	}
	if !strings.Contains(err.Error(), "no reachable endpoint") {
		t.Errorf("error message = %q, want mention of no reachable endpoint", err.Error())
	}
}

func TestProbe_NoCandidates(t *testing.T) {
	c := newTestCollector(t, DefaultConfig())

	if _, err := c.Probe(context.Background(), nil); err == nil {
		t.Error("Expected error for empty candidate list, got nil")
	}
}

func TestProbe_UsesMinimalPageSize(t *testing.T) {
	mock := testutil.NewMockStorefront()
	defer mock.Close()
	mock.ServeCatalog(100)

	c := newTestCollector(t, DefaultConfig())

	if _, err := c.Probe(context.Background(), []client.Endpoint{{URL: mock.URL()}}); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	sizes := mock.PagesRequested("size")
	if len(sizes) != 1 || sizes[0] != "5" {
		t.Errorf("probe sizes = %v, want a single request with size 5", sizes)
	}
	pages := mock.PagesRequested("page")
	if len(pages) != 1 || pages[0] != "1" {
		t.Errorf("probe pages = %v, want a single request for page 1", pages)
	}
}
