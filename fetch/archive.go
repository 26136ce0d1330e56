package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultArchiveEndpoint is the snapshot availability API.
	DefaultArchiveEndpoint = "https://archive.org/wayback/available"

	// DefaultArchiveTimeout bounds one availability lookup.
	DefaultArchiveTimeout = 15 * time.Second

	maxArchiveBytes = 1 << 20 // 1MB, availability responses are tiny
)

// ArchiveClient looks up historical snapshots of URLs in a web
// archive. It only performs the availability check; snapshot content
// is fetched through the reader client like any other URL.
type ArchiveClient struct {
	endpoint string
	client   *http.Client
}

// NewArchiveClient creates an archive availability client.
func NewArchiveClient(endpoint string, timeout time.Duration) *ArchiveClient {
	if endpoint == "" {
		endpoint = DefaultArchiveEndpoint
	}
	if timeout == 0 {
		timeout = DefaultArchiveTimeout
	}
	return &ArchiveClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// availabilityResponse mirrors the archive API shape:
// {"archived_snapshots": {"closest": {"status": "200", "url": "..."}}}
type availabilityResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			Status    string `json:"status"`
			URL       string `json:"url"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Lookup returns the URL of the nearest available snapshot of target.
// A missing snapshot or one with a non-200 archived status is an
// error; the caller decides whether that ends the fallback chain.
func (a *ArchiveClient) Lookup(ctx context.Context, target string) (string, error) {
	lookupURL := a.endpoint + "?url=" + url.QueryEscape(target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes))
	if err != nil {
		return "", fmt.Errorf("read archive body: %w", err)
	}

	var avail availabilityResponse
	if err := json.Unmarshal(body, &avail); err != nil {
		return "", fmt.Errorf("parse archive response: %w", err)
	}

	closest := avail.ArchivedSnapshots.Closest
	if closest.URL == "" || closest.Status != "200" {
		return "", fmt.Errorf("no archive snapshot available for %s", target)
	}

	return closest.URL, nil
}
