// Package jobs is the HTTP client for the remote job service: fetching a
// job's record and status tree, submitting a calculation, and listing or
// deleting past jobs.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/jobstatus"
	"github.com/Iron-Ham/calcwizard/internal/logging"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

// DefaultCacheSize is the number of finished job records kept in memory.
const DefaultCacheSize = 128

// ID is a job identifier. The service sends it as a number or a string.
type ID string

// UnmarshalJSON accepts a JSON number or string.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job id: %s is neither a number nor a string", string(data))
	}
	*id = ID(n.String())
	return nil
}

// Record is a submitted job as returned by GET /api/jobs-data/{id}.
type Record struct {
	StepsData     wizard.Payload  `json:"stepsData"`
	ProcessStatus *jobstatus.Tree `json:"processStatus"`
	// Structure is the output structure, nil until the job produces one.
	Structure map[string]any `json:"structure"`
}

// Finished reports whether the record's status tree is finished.
func (r *Record) Finished() bool {
	return jobstatus.IsFinished(r.ProcessStatus, 0)
}

// Summary is one entry of the job list.
type Summary struct {
	ID           ID             `json:"id"`
	Label        string         `json:"label"`
	Created      string         `json:"ctime"`
	ProcessState string         `json:"attributes.process_state"`
	Structure    map[string]any `json:"extras.structure"`
	RelaxType    string         `json:"extras.workchain.relax_type"`
	Properties   []string       `json:"extras.workchain.properties"`
}

// DeleteResult is the response to a delete request.
type DeleteResult struct {
	Deleted      bool    `json:"deleted"`
	Message      string  `json:"message"`
	DeletedNodes []int64 `json:"deleted_nodes"`
}

// Client talks to the job service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cacheSize  int
	cache      *lru.Cache[string, *Record]
	logger     *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.httpClient = &http.Client{Timeout: d}
	}
}

// WithCacheSize sets how many finished records are cached.
func WithCacheSize(n int) Option {
	return func(cl *Client) {
		cl.cacheSize = n
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *logging.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient creates a client for the job service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cacheSize:  DefaultCacheSize,
		logger:     logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize <= 0 {
		c.cacheSize = 1
	}
	cache, err := lru.New[string, *Record](c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create job cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// GetJob fetches a job record. Records of finished jobs are cached, since
// they no longer change.
func (c *Client) GetJob(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, errors.ErrNoJob
	}
	if rec, ok := c.cache.Get(id); ok {
		return rec, nil
	}

	resp, err := c.do(ctx, http.MethodGet, "/api/jobs-data/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, errors.NewTransientError("fetch job", err).WithJobID(id)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransientError("read job", err).WithJobID(id)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewTransientError("fetch job",
			fmt.Errorf("server returned %d: %s", resp.StatusCode, serverDetail(body))).WithJobID(id)
	}

	rec, err := decodeRecord(body)
	if err != nil {
		return nil, errors.NewTransientError("decode job", err).WithJobID(id)
	}
	if rec.Finished() {
		c.cache.Add(id, rec)
	}
	return rec, nil
}

func decodeRecord(body []byte) (*Record, error) {
	var raw struct {
		StepsData     map[string]any  `json:"stepsData"`
		ProcessStatus json.RawMessage `json:"processStatus"`
		Structure     map[string]any  `json:"structure"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	rec := &Record{
		StepsData: wizard.PayloadFromMap(raw.StepsData),
		Structure: raw.Structure,
	}
	if len(raw.ProcessStatus) > 0 && string(raw.ProcessStatus) != "null" {
		tree, err := jobstatus.ParseTree(raw.ProcessStatus)
		if err != nil {
			return nil, err
		}
		rec.ProcessStatus = tree
	}
	return rec, nil
}

// ProcessStatus returns the job's status tree. It satisfies
// jobstatus.Fetcher.
func (c *Client) ProcessStatus(ctx context.Context, id string) (*jobstatus.Tree, error) {
	rec, err := c.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.ProcessStatus, nil
}

// Submit posts a calculation payload and returns the new job's id. A
// rejected submission returns a *errors.SubmissionError carrying the
// server's detail when it sent one.
func (c *Client) Submit(ctx context.Context, payload wizard.Payload) (string, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", errors.NewSubmissionError(0, "", "").WithCause(fmt.Errorf("encode payload: %w", err))
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/submit_workgraph", buf)
	if err != nil {
		return "", errors.NewSubmissionError(0, "", "").WithCause(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewSubmissionError(resp.StatusCode, statusText(resp), detailOf(body))
	}

	var out struct {
		Status string `json:"status"`
		JobID  ID     `json:"job_id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.NewSubmissionError(0, "", "").WithCause(fmt.Errorf("decode response: %w", err))
	}
	if out.JobID == "" {
		return "", errors.NewSubmissionError(resp.StatusCode, statusText(resp), "Server response did not include a job id")
	}
	c.logger.WithJob(string(out.JobID)).Info("job submitted", "status", out.Status)
	return string(out.JobID), nil
}

// List returns the job history, newest first as ordered by the service.
func (c *Client) List(ctx context.Context) ([]Summary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/jobs-data", nil)
	if err != nil {
		return nil, errors.NewTransientError("list jobs", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransientError("list jobs", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewTransientError("list jobs",
			fmt.Errorf("server returned %d: %s", resp.StatusCode, serverDetail(body)))
	}
	var out struct {
		Jobs []Summary `json:"jobs"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.NewTransientError("decode job list", err)
	}
	return out.Jobs, nil
}

// Delete removes a job and its provenance. With dryRun the service reports
// what would be deleted without deleting it.
func (c *Client) Delete(ctx context.Context, id string, dryRun bool) (*DeleteResult, error) {
	if id == "" {
		return nil, errors.ErrNoJob
	}
	path := "/api/jobs-data/" + url.PathEscape(id)
	if dryRun {
		path += "?dry_run=" + strconv.FormatBool(dryRun)
	}
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, errors.NewTransientError("delete job", err).WithJobID(id)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransientError("delete job", err).WithJobID(id)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewTransientError("delete job",
			fmt.Errorf("server returned %d: %s", resp.StatusCode, serverDetail(body))).WithJobID(id)
	}
	var out DeleteResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.NewTransientError("decode delete response", err).WithJobID(id)
	}
	if out.Deleted {
		c.cache.Remove(id)
	}
	return &out, nil
}

// Cached reports whether a record for id is cached.
func (c *Client) Cached(id string) bool {
	return c.cache.Contains(id)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.logger.Debug("job service request", "method", method, "path", path)
	return c.httpClient.Do(req)
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

// detailOf extracts the "detail" field of an error body. Non-string details
// (validation error lists) are returned as compact JSON.
func detailOf(body []byte) string {
	var out struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &out); err != nil || len(out.Detail) == 0 || string(out.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(out.Detail, &s); err == nil {
		return s
	}
	return string(out.Detail)
}

func serverDetail(body []byte) string {
	if d := detailOf(body); d != "" {
		return d
	}
	return strings.TrimSpace(string(body))
}
