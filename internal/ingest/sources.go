package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SourceCatalog resolves the {year → download URL} mapping for a run.
type SourceCatalog interface {
	Resolve(ctx context.Context) (map[int]string, error)
}

// StaticCatalog is a fixed mapping, typically loaded from configuration.
type StaticCatalog map[int]string

func (c StaticCatalog) Resolve(_ context.Context) (map[int]string, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("static catalog is empty")
	}
	return c, nil
}

// FallbackURLs are the compendium locations known from manual inspection of
// the portal; the CKAN search misses recent years.
var FallbackURLs = map[int]string{
	2021: "https://www.ontario.ca/public-sector-salary-disclosure/pssd-assets/files/2021/tbs-pssd-compendium-salary-disclosed-2021-en-utf-8-2023-01-05.csv",
	2022: "https://www.ontario.ca/public-sector-salary-disclosure/pssd-assets/files/2022/tbs-pssd-compendium-salary-disclosed-2022-en-utf-8-2024-01-19.csv",
	2023: "https://www.ontario.ca/public-sector-salary-disclosure/pssd-assets/files/2023/tbs-pssd-compendium-salary-disclosed-2023-en-utf-8-2025-03-26.csv",
}

// CKANCatalog discovers compendium CSVs through a CKAN package search.
// Only full English compendium files qualify; addendum and no-salaries
// resources are partial exports and are excluded.
type CKANCatalog struct {
	BaseURL   string
	Query     string
	FirstYear int
	LastYear  int
	Fallback  map[int]string

	client *http.Client
}

func NewCKANCatalog(baseURL, query string) *CKANCatalog {
	if query == "" {
		query = "Public Sector Salary Disclosure"
	}
	return &CKANCatalog{
		BaseURL:   baseURL,
		Query:     query,
		FirstYear: 2014,
		LastYear:  time.Now().Year(),
		Fallback:  FallbackURLs,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

type ckanSearchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Results []struct {
			Resources []ckanResource `json:"resources"`
		} `json:"results"`
	} `json:"result"`
}

type ckanResource struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

func (c *CKANCatalog) Resolve(ctx context.Context) (map[int]string, error) {
	query := strings.ReplaceAll(c.Query, " ", "+")
	url := fmt.Sprintf("%s/action/package_search?q=%s&rows=50", strings.TrimRight(c.BaseURL, "/"), query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query CKAN: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CKAN returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read CKAN response: %w", err)
	}

	var search ckanSearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("decode CKAN response: %w", err)
	}
	if !search.Success {
		return nil, fmt.Errorf("CKAN search unsuccessful")
	}

	urls := make(map[int]string)
	for _, dataset := range search.Result.Results {
		for _, res := range dataset.Resources {
			year, ok := c.compendiumYear(res)
			if !ok {
				continue
			}
			if _, seen := urls[year]; !seen {
				urls[year] = res.URL
				slog.DebugContext(ctx, "Catalog resource selected", "year", year, "name", res.Name)
			}
		}
	}

	// Fallback URLs fill in years the search missed.
	for year, url := range c.Fallback {
		if _, seen := urls[year]; !seen {
			urls[year] = url
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no compendium resources found")
	}
	return urls, nil
}

// compendiumYear decides whether a resource is a full-year English compendium
// CSV and extracts its disclosure year.
func (c *CKANCatalog) compendiumYear(res ckanResource) (int, bool) {
	name := strings.ToLower(res.Name)
	url := strings.ToLower(res.URL)

	if strings.ToLower(res.Format) != "csv" {
		return 0, false
	}
	if !strings.Contains(name, "en") && !strings.Contains(url, "en-") {
		return 0, false
	}
	if !strings.Contains(name, "compendium") && !strings.Contains(name, "all sectors") {
		return 0, false
	}
	if strings.Contains(name, "addendum") || strings.Contains(name, "no salaries") || strings.Contains(name, "no-salaries") {
		return 0, false
	}

	for year := c.FirstYear; year <= c.LastYear; year++ {
		y := strconv.Itoa(year)
		if strings.Contains(res.Name, y) || strings.Contains(res.URL, y) {
			return year, true
		}
	}
	return 0, false
}
