package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Team-synvo/jb-ai/internal/platform/config"
	"github.com/Team-synvo/jb-ai/internal/platform/requestctx"
)

func newTestCookies() *VisitorCookies {
	return NewVisitorCookies(config.CookieConfig{
		Name:       "JBAI_VISITOR",
		SigningKey: "test-signing-key",
		TTL:        24 * time.Hour,
	}, nil)
}

func serve(t *testing.T, cookies *VisitorCookies, req *http.Request) (requestctx.Visitor, *httptest.ResponseRecorder) {
	t.Helper()
	var got requestctx.Visitor
	handler := cookies.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := requestctx.VisitorFrom(r.Context())
		if !ok {
			t.Fatalf("visitor missing from context")
		}
		got = v
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return got, rec
}

func TestVisitorMiddlewareIssuesCookieForNewVisitor(t *testing.T) {
	cookies := newTestCookies()

	visitor, rec := serve(t, cookies, httptest.NewRequest(http.MethodGet, "/", nil))

	if visitor.Returning || visitor.Counted {
		t.Fatalf("expected fresh visitor, got %+v", visitor)
	}
	if _, err := ulid.ParseStrict(visitor.ID); err != nil {
		t.Fatalf("expected ULID visitor id, got %q: %v", visitor.ID, err)
	}
	set := rec.Result().Cookies()
	if len(set) != 1 || set[0].Name != "JBAI_VISITOR" || !set[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", set)
	}
}

func TestVisitorMiddlewareRecognisesReturningVisitor(t *testing.T) {
	cookies := newTestCookies()
	first, rec := serve(t, cookies, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	again, rec2 := serve(t, cookies, req)

	if again.ID != first.ID || !again.Returning {
		t.Fatalf("expected returning visitor %s, got %+v", first.ID, again)
	}
	if len(rec2.Result().Cookies()) != 0 {
		t.Fatalf("valid cookie must not be reissued")
	}
}

func TestVisitorMiddlewareRejectsTamperedCookie(t *testing.T) {
	cookies := newTestCookies()
	first, rec := serve(t, cookies, httptest.NewRequest(http.MethodGet, "/", nil))

	issued := rec.Result().Cookies()[0]
	payload, sig, _ := strings.Cut(issued.Value, ".")
	tampered := &http.Cookie{Name: issued.Name, Value: payload + "x." + sig}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(tampered)
	again, _ := serve(t, cookies, req)

	if again.Returning || again.ID == first.ID {
		t.Fatalf("tampered cookie must yield a new visitor, got %+v", again)
	}
}

func TestVisitorCookiesFromOtherKeyAreIgnored(t *testing.T) {
	_, rec := serve(t, newTestCookies(), httptest.NewRequest(http.MethodGet, "/", nil))

	other := NewVisitorCookies(config.CookieConfig{Name: "JBAI_VISITOR", TTL: time.Hour}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	visitor, _ := serve(t, other, req)

	if visitor.Returning {
		t.Fatalf("cookie signed with a different key must not verify")
	}
}

func TestMarkCountedPersistsFlag(t *testing.T) {
	cookies := newTestCookies()
	visitor, _ := serve(t, cookies, httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	cookies.MarkCounted(rec, visitor)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	again, _ := serve(t, cookies, req)

	if again.ID != visitor.ID || !again.Counted {
		t.Fatalf("expected counted visitor %s, got %+v", visitor.ID, again)
	}
}
