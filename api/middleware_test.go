package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/garnizeh/jobly/api"
	"github.com/garnizeh/jobly/internal/auth"
)

func TestLoggingMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)

	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
	if res.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated X-Request-ID")
	}

	// an incoming id is echoed back
	req2 := httptest.NewRequest(http.MethodGet, "/log", nil)
	req2.Header.Set("X-Request-ID", "abc-123")
	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, req2)
	if got := w2.Result().Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected request id to be propagated, got %q", got)
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware(next)

	// OPTIONS should return 204 and not call next
	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	resOpt := wOpt.Result()
	defer resOpt.Body.Close()
	if resOpt.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", resOpt.StatusCode)
	}
	if got := resOpt.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header set, got %q", got)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/cors", nil)
	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, reqGet)
	resGet := wGet.Result()
	defer resGet.Body.Close()
	if resGet.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", resGet.StatusCode)
	}
	if got := resGet.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Fatalf("expected Allow-Methods to include PATCH, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	pan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := api.RecoveryMiddleware(pan)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panic recovery, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"message":"Internal Server Error"`) || strings.Contains(string(b), "boom") {
		t.Fatalf("unexpected body for recovery: %s", string(b))
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	w2 := httptest.NewRecorder()
	api.RecoveryMiddleware(ok).ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w2.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for normal path, got %d", w2.Result().StatusCode)
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	e := newEnv(t)
	tok := e.login(t, "alice", false)

	var seen *auth.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFromContext(r.Context())
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	})
	handler := api.AuthenticateMiddleware(e.tokens)(next)

	cases := []struct {
		name     string
		build    func() *http.Request
		wantUser string
	}{
		{
			name: "Header",
			build: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.Header.Set("Authorization", "Bearer "+tok)
				return req
			},
			wantUser: "alice",
		},
		{
			name: "Body",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"_token":"`+tok+`","name":"x"}`))
			},
			wantUser: "alice",
		},
		{
			name: "Query",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?_token="+tok, nil)
			},
			wantUser: "alice",
		},
		{
			name: "Invalid",
			build: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.Header.Set("Authorization", "Bearer bad.token.here")
				return req
			},
		},
		{
			name:  "Missing",
			build: func() *http.Request { return httptest.NewRequest(http.MethodGet, "/", nil) },
		},
		{
			name: "NotJSONBody",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain text"))
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			seen = nil
			req := c.build()
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Result().StatusCode != http.StatusOK {
				t.Fatalf("middleware must not reject requests itself, got %d", w.Result().StatusCode)
			}
			if c.wantUser == "" {
				if seen != nil {
					t.Fatalf("expected anonymous request, got %+v", seen)
				}
				return
			}
			if seen == nil || seen.Username != c.wantUser {
				t.Fatalf("expected identity %q, got %+v", c.wantUser, seen)
			}
		})
	}

	// the body is still readable by the handler after the middleware peeked
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"_token":"x","name":"kept"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"name":"kept"`) {
		t.Fatalf("body not restored: %q", w.Body.String())
	}
}

func TestRouterFallbacks(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/nope", "/companies/acme/extra", "/"} {
		res := e.do(t, http.MethodGet, path, nil, "").expect(t, http.StatusNotFound)
		if res.message(t) != "Not Found" || res.body["status"] != float64(404) {
			t.Fatalf("%s: unexpected 404 body %s", path, string(res.raw))
		}
	}

	res := e.do(t, http.MethodPut, "/companies", nil, "").expect(t, http.StatusMethodNotAllowed)
	if res.message(t) != "Method Not Allowed" {
		t.Fatalf("unexpected 405 body %s", string(res.raw))
	}

	for _, path := range []string{"/companies", "/jobs/1", "/users/alice"} {
		res = e.do(t, http.MethodOptions, path, nil, "").expect(t, http.StatusNoContent)
		if res.header.Get("Access-Control-Allow-Origin") != "*" {
			t.Fatalf("%s: preflight missing CORS headers: %v", path, res.header)
		}
		if !strings.Contains(res.header.Get("Access-Control-Allow-Methods"), "PATCH") {
			t.Fatalf("%s: preflight must allow PATCH: %v", path, res.header)
		}
	}

	e.do(t, http.MethodOptions, "/nope", nil, "").expect(t, http.StatusNotFound)
}
