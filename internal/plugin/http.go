package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Iron-Ham/calcwizard/internal/errors"
)

// HTTPSource loads plugins from a plugin server.
//
//	GET {base}/plugins                    -> {"plugins": ["bands", ...]}
//	GET {base}/plugins/{id}/manifest.json -> Manifest
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient sets the HTTP client used by the source.
func WithHTTPClient(client *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.httpClient = &http.Client{Timeout: d}
	}
}

// NewHTTPSource creates a source for the plugin server at baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List fetches the plugin id list. Entries may be plain ids or objects
// carrying an "id" field.
func (s *HTTPSource) List(ctx context.Context) ([]string, error) {
	body, err := s.get(ctx, s.baseURL+"/plugins")
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}

	var resp struct {
		Plugins []json.RawMessage `json:"plugins"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode plugin list: %w", err)
	}

	ids := make([]string, 0, len(resp.Plugins))
	for _, raw := range resp.Plugins {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil {
			ids = append(ids, id)
			continue
		}
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.ID == "" {
			return nil, fmt.Errorf("decode plugin list: unexpected entry %s", string(raw))
		}
		ids = append(ids, obj.ID)
	}
	return ids, nil
}

// Load fetches and validates the manifest for id.
func (s *HTTPSource) Load(ctx context.Context, id string) (*Descriptor, error) {
	u := fmt.Sprintf("%s/plugins/%s/manifest.json", s.baseURL, url.PathEscape(id))
	body, err := s.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrPluginUnavailable, id, err)
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrMalformedManifest, id, err)
	}
	if err := m.Validate(id); err != nil {
		return nil, err
	}
	return m.Descriptor(), nil
}

func (s *HTTPSource) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
