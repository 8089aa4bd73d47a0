package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nugetaudit/pkg/audit"
	errs "github.com/matzehuels/nugetaudit/pkg/errors"
	"github.com/matzehuels/nugetaudit/pkg/integrations/nuget"
)

const legacyRoot = `{"items": [{"@id": "https://registry.test/legacy.lib/index.json#page/1.0.0/1.3.0", "items": [
	{"catalogEntry": {"id": "Legacy.Lib", "version": "1.2.0"}},
	{"catalogEntry": {"id": "Legacy.Lib", "version": "1.3.0", "deprecation": {"message": "Unmaintained", "reasons": ["Legacy"]}}}
]}]}`

// newTestServer serves one registry package, Legacy.Lib, and 404 for all
// other ids.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/legacy.lib/index.json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, legacyRoot)
	}))
	t.Cleanup(registry.Close)

	s := &server{
		auditor: audit.New(audit.Options{
			Catalog: nuget.NewClient(nil).WithBaseURL(registry.URL),
			Logger:  log.New(io.Discard),
			Now:     func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
		}),
		settings: audit.Settings{IncludeSourceControl: false},
		logger:   log.New(io.Discard),
	}
	api := httptest.NewServer(s.routes())
	t.Cleanup(api.Close)
	return api
}

func TestServeHealthz(t *testing.T) {
	api := newTestServer(t)

	resp, err := http.Get(api.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServeAudit(t *testing.T) {
	api := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   errs.Code
	}{
		{"deprecated version", "/audit/Legacy.Lib?range=1.0", http.StatusOK, ""},
		{"invalid range", "/audit/Legacy.Lib?range=(1.0)", http.StatusBadRequest, errs.ErrCodeInvalidRange},
		{"version not found", "/audit/Legacy.Lib?range=[2.0]", http.StatusNotFound, errs.ErrCodeVersionNotFound},
		{"package not found", "/audit/Missing.Lib?range=1.0", http.StatusNotFound, errs.ErrCodePackageNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(api.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var report audit.Report
			if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
				t.Fatalf("decode report: %v", err)
			}
			if report.ErrorCode != tt.wantCode {
				t.Errorf("error_code = %q, want %q", report.ErrorCode, tt.wantCode)
			}
			if report.ID != "Legacy.Lib" && report.ID != "Missing.Lib" {
				t.Errorf("id = %q", report.ID)
			}
		})
	}
}

func TestServeAuditReportBody(t *testing.T) {
	api := newTestServer(t)

	resp, err := http.Get(api.URL + "/audit/Legacy.Lib?range=[1.0,2.0)")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var report audit.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Version != "1.3.0" || !report.IsDeprecated() {
		t.Errorf("report = %+v, want deprecated 1.3.0", report)
	}
	if report.RegistryDeprecationMessage != "Unmaintained" {
		t.Errorf("message = %q", report.RegistryDeprecationMessage)
	}
}

func TestServeBadRequests(t *testing.T) {
	api := newTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"missing range", "/audit/Legacy.Lib"},
		{"blank range", "/audit/Legacy.Lib?range=%20"},
		{"invalid id", "/audit/not%20a%20package?range=1.0"},
		{"bad boolean", "/audit/Legacy.Lib?range=1.0&source_control=maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(api.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code == "" || body.Message == "" {
				t.Errorf("error body = %+v", body)
			}
		})
	}
}

func TestServeRequestID(t *testing.T) {
	api := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, api.URL+"/healthz", nil)
	req.Header.Set(headerRequestID, "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(headerRequestID); got != "req-42" {
		t.Errorf("%s = %q, want req-42", headerRequestID, got)
	}

	resp, err = http.Get(api.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get(headerRequestID) == "" {
		t.Errorf("%s not generated", headerRequestID)
	}
}

func TestReportStatus(t *testing.T) {
	tests := []struct {
		code errs.Code
		want int
	}{
		{"", http.StatusOK},
		{errs.ErrCodeSourceControl, http.StatusOK},
		{errs.ErrCodeInvalidRange, http.StatusBadRequest},
		{errs.ErrCodePackageNotFound, http.StatusNotFound},
		{errs.ErrCodeVersionNotFound, http.StatusNotFound},
		{errs.ErrCodeMissingPages, http.StatusBadGateway},
		{errs.ErrCodeNetwork, http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := reportStatus(tt.code); got != tt.want {
			t.Errorf("reportStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
