// Package testutil provides fakes and fixtures for calcwizard tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/calcwizard/internal/plugin"
)

// Job is one job held by a JobService.
type Job struct {
	Label     string
	StepsData map[string]any
	// Statuses are served in order, the last one repeating.
	Statuses  []any
	Structure map[string]any
	served    int
}

// JobService is an in-memory job service behind an httptest server.
type JobService struct {
	Server *httptest.Server

	mu        sync.Mutex
	jobs      map[string]*Job
	order     []string
	nextID    int
	submitted []map[string]any
	failGet   map[string]int
	rejectAll *rejection
}

type rejection struct {
	code int
	body string
}

// NewJobService starts a fake job service. It is closed when the test ends.
func NewJobService(t *testing.T) *JobService {
	t.Helper()
	s := &JobService{
		jobs:    make(map[string]*Job),
		nextID:  100,
		failGet: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs-data", s.handleList)
	mux.HandleFunc("GET /api/jobs-data/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/jobs-data/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/submit_workgraph", s.handleSubmit)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the service's base URL.
func (s *JobService) URL() string {
	return s.Server.URL
}

// AddJob stores a job under id.
func (s *JobService) AddJob(id string, job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		s.order = append(s.order, id)
	}
	s.jobs[id] = job
}

// FailGet makes the next n fetches of id fail with a 500.
func (s *JobService) FailGet(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet[id] = n
}

// RejectSubmissions makes every submission fail with code and body.
func (s *JobService) RejectSubmissions(code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAll = &rejection{code: code, body: body}
}

// Submitted returns the payloads received so far.
func (s *JobService) Submitted() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.submitted...)
}

// Served returns how many times job id's status has been fetched.
func (s *JobService) Served(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		return j.served
	}
	return 0
}

func (s *JobService) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]map[string]any, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		j := s.jobs[id]
		pk, err := strconv.Atoi(id)
		var idValue any = id
		if err == nil {
			idValue = pk
		}
		jobs = append(jobs, map[string]any{
			"id":                          idValue,
			"label":                       j.Label,
			"ctime":                       "2026-10-19T10:00:00",
			"attributes.process_state":    "running",
			"extras.structure":            nil,
			"extras.workchain.relax_type": "positions",
			"extras.workchain.properties": []string{},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *JobService) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failGet[id] > 0 {
		s.failGet[id]--
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "Failed to fetch job status"})
		return
	}
	j, ok := s.jobs[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Workgraph " + id + " not found"})
		return
	}

	var status any
	if len(j.Statuses) > 0 {
		n := min(j.served, len(j.Statuses)-1)
		status = j.Statuses[n]
	}
	j.served++
	writeJSON(w, http.StatusOK, map[string]any{
		"stepsData":     j.StepsData,
		"processStatus": status,
		"structure":     j.Structure,
	})
}

func (s *JobService) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dryRun := r.URL.Query().Get("dry_run") == "true"
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Workgraph " + id + " not found"})
		return
	}
	pk, _ := strconv.Atoi(id)
	if dryRun {
		writeJSON(w, http.StatusOK, map[string]any{
			"deleted": false, "message": "Did not delete job " + id + " [dry-run]", "deleted_nodes": []int{pk},
		})
		return
	}
	delete(s.jobs, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": true, "message": "Deleted job " + id, "deleted_nodes": []int{pk},
	})
}

func (s *JobService) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectAll != nil {
		w.WriteHeader(s.rejectAll.code)
		_, _ = w.Write([]byte(s.rejectAll.body))
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": err.Error()})
		return
	}
	s.submitted = append(s.submitted, payload)

	s.nextID++
	id := strconv.Itoa(s.nextID)
	label := ""
	if rs, ok := payload["review_submit"].(map[string]any); ok {
		if tab, ok := rs["Label and Submit"].(map[string]any); ok {
			label, _ = tab["label"].(string)
		}
	}
	s.jobs[id] = &Job{Label: label, StepsData: payload, Statuses: []any{[]any{"Created", nil}}}
	s.order = append(s.order, id)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "job_id": s.nextID})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// BandsManifest is a settings-and-results plugin fixture.
func BandsManifest() *plugin.Manifest {
	return &plugin.Manifest{
		ID:      "bands",
		Title:   "Bands",
		Outline: "Electronic band structure",
		Setting: &plugin.Unit{Fields: []plugin.Field{
			{Key: "kpath_2d", Label: "2D k-path", Default: "hexagonal"},
		}},
		Result: &plugin.Unit{Fields: []plugin.Field{{Key: "band_gap", Label: "Band gap"}}},
	}
}

// PdosManifest is a plugin fixture contributing to all three slots.
func PdosManifest() *plugin.Manifest {
	return &plugin.Manifest{
		ID:      "pdos",
		Title:   "PDOS",
		Outline: "Projected density of states",
		Setting: &plugin.Unit{Fields: []plugin.Field{
			{Key: "nscf_kpoints_distance", Label: "NSCF k-points distance", Default: 0.1},
		}},
		CodeResources: &plugin.Unit{Note: "dos.x and projwfc.x codes"},
		Result:        &plugin.Unit{Fields: []plugin.Field{{Key: "dos"}}},
	}
}

// XPSManifest is a settings-and-results plugin fixture.
func XPSManifest() *plugin.Manifest {
	return &plugin.Manifest{
		ID:      "xps",
		Title:   "XPS",
		Outline: "X-ray Photoelectron Spectroscopy (XPS)",
		Setting: &plugin.Unit{Fields: []plugin.Field{
			{Key: "core_hole_treatment", Label: "Core-hole treatment", Default: "xch_smear", Options: []any{"full", "xch_fixed", "xch_smear"}},
		}},
		Result: &plugin.Unit{Fields: []plugin.Field{{Key: "binding_energies", Label: "Binding energies"}}},
	}
}

// WritePluginDir writes each manifest to dir/{id}/plugin.yaml.
func WritePluginDir(t *testing.T, dir string, manifests ...*plugin.Manifest) {
	t.Helper()
	for _, m := range manifests {
		data, err := yaml.Marshal(m)
		if err != nil {
			t.Fatalf("marshal manifest %s: %v", m.ID, err)
		}
		pdir := filepath.Join(dir, m.ID)
		if err := os.MkdirAll(pdir, 0o755); err != nil {
			t.Fatalf("create plugin dir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(pdir, plugin.ManifestFile), data, 0o644); err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
}

// NewPluginServer serves the manifests as a plugin server. Ids listed in
// broken are advertised but answer 500.
func NewPluginServer(t *testing.T, manifests []*plugin.Manifest, broken ...string) *httptest.Server {
	t.Helper()
	byID := make(map[string]*plugin.Manifest, len(manifests))
	ids := make([]string, 0, len(manifests)+len(broken))
	for _, m := range manifests {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}
	ids = append(ids, broken...)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /plugins", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"plugins": ids})
	})
	mux.HandleFunc("GET /plugins/{id}/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		m, ok := byID[r.PathValue("id")]
		if !ok {
			http.Error(w, "plugin failed to load", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// StatusTree builds a decoded JSON status value: a leaf string when no
// children are given, otherwise a [label, children] pair.
func StatusTree(label string, children ...any) any {
	if len(children) == 0 {
		return label
	}
	return []any{label, children}
}

// Contains reports whether every substring is present in s.
func Contains(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
