// Command catalog-export collects unique product listings from a storefront
// API and writes them to a CSV file (and optionally to Postgres).
//
//	catalog-export -target 1000 -page-size 60 -delay 1s -output products.csv
//	catalog-export -base-url https://www.gsshop.com/api/display/goods -category 1548240
//	catalog-export -param msectid=1548240 -header "Cookie=SESSION=..."
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hwanjo/gsshop-catalog-client/internal/config"
	"github.com/hwanjo/gsshop-catalog-client/internal/observability"
	"github.com/hwanjo/gsshop-catalog-client/pkg/client"
	"github.com/hwanjo/gsshop-catalog-client/pkg/collector"
	"github.com/hwanjo/gsshop-catalog-client/pkg/export"
	"github.com/hwanjo/gsshop-catalog-client/pkg/logging"
)

// kvFlags collects repeatable KEY=VALUE flags.
type kvFlags []string

func (f *kvFlags) String() string {
	return strings.Join(*f, ",")
}

func (f *kvFlags) Set(value string) error {
	*f = append(*f, value)
	return nil
}

// parseKeyValues converts KEY=VALUE strings into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid key/value pair %q", pair)
		}
		result[key] = value
	}
	return result, nil
}

// buildEndpoints resolves the -base-url flag into the probing candidate list.
func buildEndpoints(baseURL, pageMode string) ([]client.Endpoint, error) {
	if baseURL == "auto" {
		return collector.DefaultCandidates(), nil
	}

	switch pageMode {
	case "page":
		return []client.Endpoint{{URL: baseURL}}, nil
	case "offset":
		return []client.Endpoint{{URL: baseURL, Offset: true}}, nil
	default:
		return nil, fmt.Errorf("invalid page mode %q (want page or offset)", pageMode)
	}
}

func main() {
	cfg := config.Load()

	target := flag.Int("target", 1000, "Number of unique products to collect")
	pageSize := flag.Int("page-size", 60, "Number of products per page")
	delay := flag.Duration("delay", 1*time.Second, "Delay between page requests")
	output := flag.String("output", "gsshop_products.csv", "CSV file to write results to")
	baseURL := flag.String("base-url", "auto", "Listing API base URL, or 'auto' to probe builtin candidates")
	pageMode := flag.String("page-mode", "page", "Paging style for -base-url: 'page' or 'offset'")
	category := flag.String("category", "", "Category/section identifier (msectid)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "Human-readable console logs instead of JSON")
	metricsPort := flag.String("metrics-port", cfg.MetricsPort, "Serve Prometheus metrics on this port (empty = off)")
	postgres := flag.String("postgres", cfg.DatabaseURL, "Postgres DSN for the optional export sink (empty = off)")

	var params, headers kvFlags
	flag.Var(&params, "param", "Additional query parameter KEY=VALUE (repeatable)")
	flag.Var(&headers, "header", "Additional HTTP header KEY=VALUE (repeatable)")
	flag.Parse()

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(*logLevel),
		Pretty: *pretty,
		Output: os.Stderr,
	})

	if *metricsPort != "" {
		observability.Start(*metricsPort)
	}

	extraParams, err := parseKeyValues(params)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -param flag")
	}
	extraHeaders, err := parseKeyValues(headers)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -header flag")
	}

	candidates, err := buildEndpoints(*baseURL, *pageMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -base-url / -page-mode flags")
	}

	clientCfg := client.DefaultConfig()
	if cfg.UserAgent != "" {
		clientCfg.UserAgent = cfg.UserAgent
	}
	clientCfg.Headers["Referer"] = cfg.Referer
	if cfg.Cookie != "" {
		clientCfg.Headers["Cookie"] = cfg.Cookie
	}
	for key, value := range extraHeaders {
		clientCfg.Headers[key] = value
	}

	clientCfg.Params = map[string]string{}
	if *category != "" {
		clientCfg.Params["msectid"] = *category
	}
	for key, value := range extraParams {
		clientCfg.Params[key] = value
	}

	fetcher, err := client.New(clientCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create fetcher")
	}

	runner, err := collector.New(fetcher, collector.Config{
		TargetCount: *target,
		PageSize:    *pageSize,
		Delay:       *delay,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create collector")
	}

	ctx := context.Background()

	endpoint, err := runner.Probe(ctx, candidates)
	if err != nil {
		log.Error().Err(err).Msg("No reachable endpoint")
		os.Exit(1)
	}

	state, runErr := runner.Run(ctx, endpoint)

	summary := log.Info()
	if runErr != nil {
		summary = log.Error().Err(runErr)
	}
	summary.
		Int("collected", state.Count()).
		Int("target", *target).
		Int("pages", state.PagesFetched).
		Int("skipped", state.Skipped).
		Str("status", string(state.Status)).
		Str("endpoint", endpoint.URL).
		Msg("Collection finished")

	// Partial results are worth exporting even when the run failed.
	if state.Count() == 0 {
		log.Warn().Msg("No products collected. Verify the API endpoint and parameters.")
	} else {
		if err := export.WriteCSV(*output, state.Products()); err != nil {
			log.Fatal().Err(err).Str("output", *output).Msg("CSV export failed")
		}
		log.Info().Str("output", *output).Int("products", state.Count()).Msg("CSV written")

		if *postgres != "" {
			if err := saveToPostgres(ctx, *postgres, state); err != nil {
				log.Fatal().Err(err).Msg("Postgres export failed")
			}
		}
	}

	if runErr != nil {
		var pageErr *collector.PageError
		if errors.As(runErr, &pageErr) {
			log.Error().Int("page", pageErr.Page).Msg("Run failed while fetching")
		}
		os.Exit(1)
	}
}

func saveToPostgres(ctx context.Context, dsn string, state *collector.FetchState) error {
	sink, err := export.NewPostgresSink(ctx, dsn)
	if err != nil {
		return err
	}
	defer sink.Close(ctx)

	if err := sink.Save(ctx, state.Products()); err != nil {
		return err
	}
	log.Info().Int("products", state.Count()).Msg("Postgres sink updated")
	return nil
}
