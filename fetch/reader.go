package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vaultpipe/vaultpipe/weburl"
)

const (
	// DefaultReaderBaseURL is the public reader/extraction endpoint.
	// The service returns a markdown rendition of the target page.
	DefaultReaderBaseURL = "https://r.jina.ai"

	// DefaultReaderTimeout bounds one reader request.
	DefaultReaderTimeout = 30 * time.Second

	// maxReaderBytes caps a reader response body. Content is truncated
	// far below this downstream; the cap only guards memory.
	maxReaderBytes = 10 << 20 // 10MB
)

// ReaderClient fetches markdown renditions of web pages through a
// reader/extraction service. Its transport re-validates resolved IPs
// at dial time so a DNS answer that changes between validation and
// connection cannot reach a private address.
type ReaderClient struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	validator URLValidator
}

// NewReaderClient creates a reader client. apiKey may be empty; absence
// degrades to unauthenticated requests.
func NewReaderClient(baseURL, apiKey string, timeout time.Duration, validator URLValidator) *ReaderClient {
	if baseURL == "" {
		baseURL = DefaultReaderBaseURL
	}
	if timeout == 0 {
		timeout = DefaultReaderTimeout
	}
	if validator == nil {
		validator = &weburl.Validator{}
	}

	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	// Custom DialContext that validates resolved IPs to prevent DNS
	// rebinding attacks
	safeDialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("DNS lookup failed: %w", err)
		}

		for _, ipAddr := range ips {
			if weburl.IsPrivateIP(ipAddr.IP) {
				return nil, fmt.Errorf("connection to private IP %s is not allowed", ipAddr.IP)
			}
		}

		for _, ipAddr := range ips {
			connAddr := net.JoinHostPort(ipAddr.IP.String(), port)
			conn, err := dialer.DialContext(ctx, network, connAddr)
			if err == nil {
				return conn, nil
			}
		}

		return nil, fmt.Errorf("failed to connect to any resolved IP")
	}

	transport := &http.Transport{
		DialContext:           safeDialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &ReaderClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		validator: validator,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (max 5)")
				}
				if err := validator.Validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
	}
}

// Fetch retrieves target through the reader service and returns the
// markdown content plus the extracted title. target must already have
// passed validation; the constructed proxy URL is validated here as
// well before the request goes out.
func (r *ReaderClient) Fetch(ctx context.Context, target string) (content, title string, err error) {
	readerURL := r.baseURL + "/" + target
	if err := r.validator.Validate(readerURL); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readerURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/markdown")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("reader fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("reader HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReaderBytes))
	if err != nil {
		return "", "", fmt.Errorf("read reader body: %w", err)
	}

	content = string(body)
	return content, ExtractTitle(content), nil
}

// ExtractTitle returns the first top-level markdown heading, or ""
// when the content has none.
func ExtractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
