package vatcondition

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/config"
	"github.com/juansemartinez01/API-FACTURACION/internal/submitter"
)

func testService(url string) *Service {
	return NewService(&config.SubmitterConfig{
		VATConditionURL:     url,
		HTTPTimeout:         5 * time.Second,
		MaxResponseBodySize: 1024,
	}, zap.NewNop())
}

func validLookup() Request {
	return Request{
		QueryCUIT:       20123456783,
		ComputerCUIT:    30712223339,
		RepresentedCUIT: 30712223339,
	}
}

func TestCheckSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"consulta":20123456783,"condicion_iva":"Responsable Inscripto"}`))
	}))
	defer srv.Close()

	resp, err := testService(srv.URL).Check(context.Background(), validLookup())
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if resp.CondicionIVA != "Responsable Inscripto" {
		t.Errorf("CondicionIVA = %q", resp.CondicionIVA)
	}
	if resp.Consulta != 20123456783 {
		t.Errorf("Consulta = %d", resp.Consulta)
	}
}

func TestCheckRejectsNonPositiveCUIT(t *testing.T) {
	req := validLookup()
	req.QueryCUIT = 0

	_, err := testService("http://unused.invalid").Check(context.Background(), req)

	var serr *submitter.Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != submitter.KindValidation {
		t.Errorf("Kind = %v, want validation", serr.Kind)
	}
}

func TestCheckMapsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"cuit inexistente"}`))
	}))
	defer srv.Close()

	_, err := testService(srv.URL).Check(context.Background(), validLookup())

	var serr *submitter.Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != submitter.KindPermanentRemote {
		t.Errorf("Kind = %v, want permanent", serr.Kind)
	}
	if serr.Message != "cuit inexistente" {
		t.Errorf("Message = %q, want remote detail", serr.Message)
	}
}

func TestCheckMapsServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testService(srv.URL).Check(context.Background(), validLookup())

	var serr *submitter.Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != submitter.KindTransientRemote {
		t.Errorf("Kind = %v, want transient", serr.Kind)
	}
	if serr.Message != "HTTP 503" {
		t.Errorf("Message = %q, want HTTP 503", serr.Message)
	}
}

func TestCheckTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := testService(srv.URL).Check(context.Background(), validLookup())

	var serr *submitter.Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != submitter.KindTransientRemote {
		t.Errorf("Kind = %v, want transient", serr.Kind)
	}
}
