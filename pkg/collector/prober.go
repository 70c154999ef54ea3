package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/hwanjo/gsshop-catalog-client/pkg/client"
	"github.com/hwanjo/gsshop-catalog-client/pkg/normalize"
)

// probePageSize keeps the probe request minimal: one small first page is
// enough to decide whether an endpoint yields extractable records.
const probePageSize = 5

// DefaultCandidates returns the builtin candidate listing endpoints, in
// probing order. The storefront has moved its listing API between hosts and
// paging styles before; new incarnations belong at the front of this list.
func DefaultCandidates() []client.Endpoint {
	return []client.Endpoint{
		{URL: "https://www.gsshop.com/shop/ajax/goodsList.gs", PageParam: "pageNumber", SizeParam: "pageSize"},
		{URL: "https://api.gsshop.com/prdw/store/v1/goods", Offset: true, SizeParam: "limit"},
		{URL: "https://www.gsshop.com/api/display/goods"},
	}
}

// ProbeAttempt records why one candidate endpoint was rejected.
type ProbeAttempt struct {
	URL    string
	Reason string
}

// EndpointUnreachableError is returned when no candidate endpoint yields a
// usable paginated response.
type EndpointUnreachableError struct {
	Attempts []ProbeAttempt
}

// Error implements the error interface.
func (e *EndpointUnreachableError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s (%s)", attempt.URL, attempt.Reason))
	}
	return fmt.Sprintf("no reachable endpoint after %d candidates: %s",
		len(e.Attempts), strings.Join(reasons, "; "))
}

// Probe tries each candidate in order with a minimal first-page request and
// returns the first endpoint whose response yields at least one extractable
// record. Probing stops at the first accepted candidate; later candidates
// are never contacted. If every candidate fails, the returned error lists
// each attempted URL with its failure reason.
func (c *Collector) Probe(ctx context.Context, candidates []client.Endpoint) (client.Endpoint, error) {
	if len(candidates) == 0 {
		return client.Endpoint{}, fmt.Errorf("no candidate endpoints given")
	}

	attempts := make([]ProbeAttempt, 0, len(candidates))

	for _, candidate := range candidates {
		body, err := c.fetcher.FetchPage(ctx, candidate, 1, probePageSize)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("url", candidate.URL).
				Msg("Probe request failed, trying next candidate")
			attempts = append(attempts, ProbeAttempt{URL: candidate.URL, Reason: err.Error()})
			continue
		}

		result := normalize.Extract(body)
		if len(result.Products) == 0 {
			c.logger.Warn().
				Str("url", candidate.URL).
				Bool("empty", result.Empty).
				Msg("Probe yielded no extractable records, trying next candidate")
			attempts = append(attempts, ProbeAttempt{URL: candidate.URL, Reason: "no extractable records"})
			continue
		}

		c.logger.Info().
			Str("url", candidate.URL).
			Int("records", len(result.Products)).
			Msg("Endpoint accepted")
		return candidate, nil
	}

	return client.Endpoint{}, &EndpointUnreachableError{Attempts: attempts}
}
