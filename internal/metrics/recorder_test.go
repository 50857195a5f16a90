package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestRecorder_ObserveOp(t *testing.T) {
	t.Parallel()
	r := NewRecorder()

	r.ObserveOp("add", 4, time.Millisecond, nil)
	r.ObserveOp("add", 0, time.Millisecond, apperrors.ShapeError{Op: "add"})
	r.ObserveOp("quo", 2, time.Millisecond, errors.New("boom"))

	body := scrape(t, r)
	for _, want := range []string{
		`bigtensor_ops_total{op="add",status="ok"} 1`,
		`bigtensor_ops_total{op="add",status="error"} 1`,
		`bigtensor_op_elements_total{op="add"} 4`,
		`bigtensor_errors_total{kind="shape"} 1`,
		`bigtensor_errors_total{kind="internal"} 1`,
		`bigtensor_op_duration_seconds_count{op="add"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %q", want)
		}
	}
}

func TestRecorder_Handler(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.IncActiveRequests()
	r.ObserveRequest("/v1/compute", http.StatusOK)

	body := scrape(t, r)
	for _, want := range []string{
		"bigtensor_active_requests 1",
		`bigtensor_requests_total{code="200",path="/v1/compute"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %q", want)
		}
	}

	r.DecActiveRequests()
	if body := scrape(t, r); !strings.Contains(body, "bigtensor_active_requests 0") {
		t.Error("gauge should return to 0")
	}
}

func TestRecorders_AreIndependent(t *testing.T) {
	t.Parallel()
	a, b := NewRecorder(), NewRecorder()
	a.IncActiveRequests()
	if body := scrape(t, b); !strings.Contains(body, "bigtensor_active_requests 0") {
		t.Error("second recorder should not see the first recorder's gauge")
	}
}
