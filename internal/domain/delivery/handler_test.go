package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newAdminServer(proc Processor) (*echo.Echo, *Service) {
	svc := NewService(NewInMemoryRepo(), proc, zerolog.Nop())
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/admin"))
	return e, svc
}

func TestListDeliveriesEndpoint(t *testing.T) {
	e, svc := newAdminServer(&mockProcessor{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Record(ctx, "BIRTH_REGISTERED", []byte(`{}`)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/deliveries?limit=2", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Items   []*Delivery `json:"items"`
		Total   int         `json:"total"`
		Limit   int         `json:"limit"`
		HasMore bool        `json:"has_more"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 || len(resp.Items) != 2 || resp.Limit != 2 || !resp.HasMore {
		t.Fatalf("response = %+v", resp)
	}
}

func TestGetDeliveryEndpoint(t *testing.T) {
	e, svc := newAdminServer(&mockProcessor{})
	id, err := svc.Record(context.Background(), "BIRTH_REGISTERED", []byte(`{"id":"n-1"}`))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	t.Run("Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/deliveries/"+id.String(), nil)
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/deliveries/"+uuid.NewString(), nil)
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rr.Code)
		}
	})

	t.Run("BadID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/deliveries/nope", nil)
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rr.Code)
		}
	})
}

func TestReplayEndpoint(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		e, svc := newAdminServer(&mockProcessor{})
		id, _ := svc.Record(context.Background(), "BIRTH_REGISTERED", []byte(`{}`))

		req := httptest.NewRequest(http.MethodPost, "/admin/deliveries/"+id.String()+"/replay", nil)
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	})

	t.Run("ProcessingFailure", func(t *testing.T) {
		e, svc := newAdminServer(&mockProcessor{err: errors.New("still broken")})
		id, _ := svc.Record(context.Background(), "BIRTH_REGISTERED", []byte(`{}`))

		req := httptest.NewRequest(http.MethodPost, "/admin/deliveries/"+id.String()+"/replay", nil)
		rr := httptest.NewRecorder()
		e.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rr.Code)
		}
	})
}
