package fotmob

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the default FotMob base URL
	DefaultBaseURL = "https://www.fotmob.com"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 10 * time.Second

	// DefaultRequestDelay is the courtesy delay applied after every request
	// so the upstream does not rate-limit or ban the client
	DefaultRequestDelay = 1 * time.Second

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
)

// Client represents the FotMob API client
type Client struct {
	baseURL      string
	requestDelay time.Duration
	httpClient   *http.Client
}

// Config holds the configuration for the API client
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration
}

// APIError represents an error returned by the FotMob API
type APIError struct {
	Code    int
	Message string
	Status  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// NewClient creates a new FotMob API client with default settings
func NewClient() *Client {
	return NewClientWithConfig(Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		RequestDelay: DefaultRequestDelay,
	})
}

// NewClientWithConfig creates a new client with custom configuration
func NewClientWithConfig(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RequestDelay == 0 {
		config.RequestDelay = DefaultRequestDelay
	}

	return &Client{
		baseURL:      config.BaseURL,
		requestDelay: config.RequestDelay,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// get performs a GET request against the FotMob API and returns the raw body.
// Every call sleeps for the configured delay afterwards.
func (c *Client) get(path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Accept-Encoding is left to the transport so it decompresses gzip itself
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	// Courtesy delay before the next request can go out
	time.Sleep(c.requestDelay)

	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Code:    resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
			Status:  resp.Status,
		}
	}

	return body, nil
}

// GetMatchDetails retrieves the full nested match detail payload for a match id
func (c *Client) GetMatchDetails(matchID string) (*MatchDetails, error) {
	params := url.Values{}
	params.Set("matchId", matchID)

	body, err := c.get("/api/matchDetails", params)
	if err != nil {
		return nil, err
	}

	var details MatchDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match details: %w", err)
	}

	return &details, nil
}
