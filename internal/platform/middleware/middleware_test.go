package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		rid, _ := c.Get("request_id").(string)
		return c.String(http.StatusOK, rid)
	})

	t.Run("Generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)

		rid := rr.Header().Get(RequestIDHeader)
		if rid == "" {
			t.Fatal("expected a generated request id")
		}
		if rr.Body.String() != rid {
			t.Fatal("context request id should match the response header")
		}
	})

	t.Run("InboundPreserved", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "rid-123")
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)

		if got := rr.Header().Get(RequestIDHeader); got != "rid-123" {
			t.Fatalf("request id = %q, want rid-123", got)
		}
	})
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	e.Use(Recovery(zerolog.Nop()))
	e.GET("/boom", func(echo.Context) error {
		panic("kaboom")
	})
	e.GET("/ok", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}

	// The server keeps serving after a panic.
	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	rr = httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
