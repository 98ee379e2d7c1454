package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Iron-Ham/calcwizard/internal/errors"
	"github.com/Iron-Ham/calcwizard/internal/testutil"
	"github.com/Iron-Ham/calcwizard/internal/wizard"
)

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(url, append([]Option{WithTimeout(5 * time.Second)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{`42`, "42", false},
		{`"42"`, "42", false},
		{`"abc"`, "abc", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.in), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if id != tt.want {
				t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, id, tt.want)
			}
		})
	}
}

func TestClient_GetJob(t *testing.T) {
	svc := testutil.NewJobService(t)
	svc.AddJob("7", &testutil.Job{
		StepsData: map[string]any{
			"structure": map[string]any{"Upload": map[string]any{"name": "Si"}},
			"bogus":     "not an object",
		},
		Statuses: []any{[]any{"Running", []any{"Finished"}}},
	})
	c := newTestClient(t, svc.URL())

	rec, err := c.GetJob(context.Background(), "7")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got := rec.StepsData["structure"]["Upload"]["name"]; got != "Si" {
		t.Errorf("stepsData name = %v, want Si", got)
	}
	if _, ok := rec.StepsData["bogus"]; ok {
		t.Error("non-object step entries should be dropped")
	}
	if rec.Structure != nil {
		t.Error("missing structure should decode as nil")
	}
	if rec.Finished() {
		t.Error("running job reported finished")
	}
	if c.Cached("7") {
		t.Error("unfinished records must not be cached")
	}
}

func TestClient_CachesFinishedRecords(t *testing.T) {
	svc := testutil.NewJobService(t)
	svc.AddJob("8", &testutil.Job{Statuses: []any{"Finished"}})
	c := newTestClient(t, svc.URL(), WithCacheSize(4))
	ctx := context.Background()

	for range 3 {
		if _, err := c.GetJob(ctx, "8"); err != nil {
			t.Fatalf("GetJob() error = %v", err)
		}
	}
	if got := svc.Served("8"); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
	if !c.Cached("8") {
		t.Error("finished record should be cached")
	}
}

func TestClient_GetJobErrors(t *testing.T) {
	svc := testutil.NewJobService(t)
	svc.AddJob("9", &testutil.Job{Statuses: []any{"Running"}})
	svc.FailGet("9", 1)
	c := newTestClient(t, svc.URL())
	ctx := context.Background()

	_, err := c.GetJob(ctx, "9")
	if !errors.IsRetryable(err) {
		t.Errorf("500 should be a transient error, got %v", err)
	}
	var te *errors.TransientError
	if !errors.As(err, &te) || te.JobID != "9" {
		t.Errorf("error = %v, want TransientError for job 9", err)
	}

	if _, err := c.GetJob(ctx, "missing"); !errors.Is(err, errors.ErrJobNotFound) {
		t.Errorf("GetJob(missing) error = %v, want ErrJobNotFound", err)
	}
	if _, err := c.GetJob(ctx, ""); !errors.Is(err, errors.ErrNoJob) {
		t.Errorf("GetJob(\"\") error = %v, want ErrNoJob", err)
	}
}

func TestClient_ProcessStatus(t *testing.T) {
	svc := testutil.NewJobService(t)
	svc.AddJob("3", &testutil.Job{Statuses: []any{
		testutil.StatusTree("Finished", []any{"child1", "Finished"}, "Finished"),
	}})
	c := newTestClient(t, svc.URL())

	tree, err := c.ProcessStatus(context.Background(), "3")
	if err != nil {
		t.Fatalf("ProcessStatus() error = %v", err)
	}
	if len(tree.Children) != 2 || tree.Children[0].Name != "child1" {
		t.Errorf("tree = %v", tree)
	}
}

func TestClient_Submit(t *testing.T) {
	svc := testutil.NewJobService(t)
	c := newTestClient(t, svc.URL())

	payload := wizard.Payload{
		"structure":     {"Upload": {"name": "Si"}},
		"review_submit": {"Label and Submit": {"label": "Si2"}},
	}
	id, err := c.Submit(context.Background(), payload)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if id != "101" {
		t.Errorf("Submit() id = %q, want 101", id)
	}
	got := svc.Submitted()
	if len(got) != 1 {
		t.Fatalf("submitted %d payloads, want 1", len(got))
	}
	if _, ok := got[0]["review_submit"]; !ok {
		t.Errorf("payload = %v", got[0])
	}
}

func TestClient_SubmitRejected(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantMsg string
	}{
		{"server detail", 500, `{"detail":"Structure is missing"}`, "Error submitting data: Structure is missing"},
		{"validation list", 422, `{"detail":[{"loc":["body"],"msg":"field required"}]}`, `Error submitting data: [{"loc":["body"],"msg":"field required"}]`},
		{"no detail", 502, `upstream down`, "Error submitting data: Server responded with 502, Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewJobService(t)
			svc.RejectSubmissions(tt.code, tt.body)
			c := newTestClient(t, svc.URL())

			_, err := c.Submit(context.Background(), wizard.Payload{})
			var se *errors.SubmissionError
			if !errors.As(err, &se) {
				t.Fatalf("Submit() error = %v, want SubmissionError", err)
			}
			if se.StatusCode != tt.code {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.code)
			}
			if got := errors.UserMessage(err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestClient_SubmitStringJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","job_id":"wg-12"}`))
	}))
	defer srv.Close()

	id, err := newTestClient(t, srv.URL).Submit(context.Background(), wizard.Payload{})
	if err != nil || id != "wg-12" {
		t.Errorf("Submit() = %q, %v; want wg-12", id, err)
	}
}

func TestClient_SubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).Submit(context.Background(), wizard.Payload{})
	var se *errors.SubmissionError
	if !errors.As(err, &se) || se.StatusCode != 0 {
		t.Errorf("Submit() error = %v, want SubmissionError without status", err)
	}
}

func TestClient_ListAndDelete(t *testing.T) {
	svc := testutil.NewJobService(t)
	svc.AddJob("1", &testutil.Job{Label: "first", Statuses: []any{"Finished"}})
	svc.AddJob("2", &testutil.Job{Label: "second"})
	c := newTestClient(t, svc.URL())
	ctx := context.Background()

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "2" || list[1].Label != "first" {
		t.Errorf("List() = %+v", list)
	}

	if _, err := c.GetJob(ctx, "1"); err != nil {
		t.Fatal(err)
	}

	dry, err := c.Delete(ctx, "1", true)
	if err != nil {
		t.Fatalf("Delete(dry run) error = %v", err)
	}
	if dry.Deleted || !c.Cached("1") {
		t.Errorf("dry run deleted=%v cached=%v", dry.Deleted, c.Cached("1"))
	}

	res, err := c.Delete(ctx, "1", false)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !res.Deleted || len(res.DeletedNodes) != 1 || res.DeletedNodes[0] != 1 {
		t.Errorf("Delete() = %+v", res)
	}
	if c.Cached("1") {
		t.Error("deleted job should leave the cache")
	}

	if _, err := c.Delete(ctx, "1", false); !errors.Is(err, errors.ErrJobNotFound) {
		t.Errorf("second Delete() error = %v, want ErrJobNotFound", err)
	}
}
