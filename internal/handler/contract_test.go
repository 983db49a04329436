package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/exlog/exlog/internal/testutil"
)

const contractBaseURL = "http://localhost:3004"

// loadSpec loads and validates the OpenAPI document.
func loadSpec(t *testing.T) (*openapi3.T, routers.Router) {
	t.Helper()

	root, err := testutil.ProjectRoot()
	if err != nil {
		t.Fatalf("project root: %v", err)
	}
	path := filepath.Join(root, "docs", "api", "openapi.yaml")

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load OpenAPI spec from %s: %v", path, err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	router, err := gorillamux.NewRouter(spec)
	if err != nil {
		t.Fatalf("Failed to create router from spec: %v", err)
	}
	return spec, router
}

// checkContract serves req and validates the response against the document.
func checkContract(t *testing.T, router routers.Router, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	route, pathParams, err := router.FindRoute(req)
	if err != nil {
		t.Fatalf("route %s %s not documented: %v", req.Method, req.URL.Path, err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: rec.Code,
		Header: rec.Header(),
		Body:   io.NopCloser(bytes.NewReader(rec.Body.Bytes())),
	}
	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Errorf("%s %s -> %d does not match the contract: %v\nbody: %s",
			req.Method, req.URL.Path, rec.Code, err, rec.Body.String())
	}
	return rec
}

func contractRequest(method, path, contentType, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, contractBaseURL+path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}

func TestContract_SpecValid(t *testing.T) {
	spec, _ := loadSpec(t)

	for _, path := range []string{"/api/users", "/api/users/{id}", "/api/users/{id}/exercises", "/api/users/{id}/logs", "/healthz", "/readyz"} {
		if spec.Paths.Find(path) == nil {
			t.Errorf("Expected path %s not found in spec", path)
		}
	}
}

func TestContract_Responses(t *testing.T) {
	_, router := loadSpec(t)
	h := newTestRouter(t)

	const form = "application/x-www-form-urlencoded"

	rec := checkContract(t, router, h, contractRequest(http.MethodPost, "/api/users", form, "username=alice"))
	user := decode[struct {
		ID string `json:"_id"`
	}](t, rec)

	cases := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"banner", contractRequest(http.MethodGet, "/", "", ""), http.StatusOK},
		{"healthz", contractRequest(http.MethodGet, "/healthz", "", ""), http.StatusOK},
		{"readyz", contractRequest(http.MethodGet, "/readyz", "", ""), http.StatusOK},
		{"list users", contractRequest(http.MethodGet, "/api/users", "", ""), http.StatusOK},
		{"get user", contractRequest(http.MethodGet, "/api/users/"+user.ID, "", ""), http.StatusOK},
		{"add exercise", contractRequest(http.MethodPost, "/api/users/"+user.ID+"/exercises", form, "description=run&duration=30&date=2024-01-01"), http.StatusOK},
		{"add exercise json", contractRequest(http.MethodPost, "/api/users/"+user.ID+"/exercises", "application/json", `{"description":"swim","duration":20}`), http.StatusOK},
		{"log", contractRequest(http.MethodGet, "/api/users/"+user.ID+"/logs?from=2024-01-01&limit=5", "", ""), http.StatusOK},
		{"empty log", contractRequest(http.MethodGet, "/api/users/"+user.ID+"/logs?to=1999-01-01", "", ""), http.StatusOK},
		{"empty username", contractRequest(http.MethodPost, "/api/users", form, "username="), http.StatusBadRequest},
		{"unknown user", contractRequest(http.MethodGet, "/api/users/missing", "", ""), http.StatusNotFound},
		{"unknown user log", contractRequest(http.MethodGet, "/api/users/missing/logs", "", ""), http.StatusNotFound},
		{"bad limit", contractRequest(http.MethodGet, "/api/users/"+user.ID+"/logs?limit=x", "", ""), http.StatusBadRequest},
		{"bad duration", contractRequest(http.MethodPost, "/api/users/"+user.ID+"/exercises", form, "description=run&duration=x"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := checkContract(t, router, h, tc.req)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
