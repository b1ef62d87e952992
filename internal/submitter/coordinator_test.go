package submitter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/auditlog"
	"github.com/juansemartinez01/API-FACTURACION/internal/models"
)

type fakeTenants struct {
	tenant *models.Tenant
	err    error
}

func (f *fakeTenants) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return f.tenant, f.err
}

type fakeInvoices struct {
	created *models.Invoice
	err     error
}

func (f *fakeInvoices) Create(ctx context.Context, invoice *models.Invoice) error {
	if f.err != nil {
		return f.err
	}
	invoice.ID = uuid.New()
	f.created = invoice
	return nil
}

type fakeAudit struct {
	pending *models.SubmissionLog

	successID       uuid.UUID
	successAttempts int
	successResponse map[string]interface{}
	successInvoice  uuid.UUID

	errorAttempts int
	errorMessage  string

	createErr   error
	finalizeErr error
}

func (f *fakeAudit) CreatePending(ctx context.Context, entry auditlog.PendingEntry) (*models.SubmissionLog, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.pending = &models.SubmissionLog{
		ID:                uuid.New(),
		TenantID:          entry.TenantID,
		Email:             entry.Email,
		UsedPasswordLogin: entry.UsedPasswordLogin,
		IssuerTaxID:       entry.IssuerTaxID,
		TotalAmount:       entry.TotalAmount,
		RequestPayload:    models.JSONB(entry.RequestPayload),
		Status:            models.SubmissionPending,
	}
	return f.pending, nil
}

func (f *fakeAudit) FinalizeSuccess(ctx context.Context, id uuid.UUID, attempts int, durationMs int64, response map[string]interface{}, invoiceID uuid.UUID) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.successID = id
	f.successAttempts = attempts
	f.successResponse = response
	f.successInvoice = invoiceID
	if f.pending != nil {
		f.pending.Status = models.SubmissionSuccess
	}
	return nil
}

func (f *fakeAudit) FinalizeError(ctx context.Context, id uuid.UUID, attempts int, durationMs int64, message string, response map[string]interface{}) error {
	f.errorAttempts = attempts
	f.errorMessage = message
	if f.pending != nil {
		f.pending.Status = models.SubmissionError
	}
	return nil
}

// scriptedSender replays a fixed sequence of results.
type scriptedSender struct {
	results []*SendResult
	calls   int
}

func (s *scriptedSender) Send(ctx context.Context, doc *OutboundDocument) *SendResult {
	res := s.results[s.calls]
	s.calls++
	return res
}

type capturedOutcomes struct {
	events []OutcomeEvent
}

func (c *capturedOutcomes) PublishOutcome(outcome OutcomeEvent) {
	c.events = append(c.events, outcome)
}

func testTenant() *models.Tenant {
	return &models.Tenant{
		ID:    uuid.New(),
		Name:  "Acme SRL",
		CUIT:  "30712223339",
		Email: "owner@example.com",
	}
}

func newTestCoordinator(tenant *models.Tenant, sender Sender) (*Coordinator, *fakeInvoices, *fakeAudit, *capturedOutcomes) {
	invoices := &fakeInvoices{}
	audit := &fakeAudit{}
	outcomes := &capturedOutcomes{}
	c := NewCoordinator(
		&fakeTenants{tenant: tenant},
		invoices,
		audit,
		sender,
		RetryPolicy{MaxAttempts: 2, BackoffStep: 500 * time.Millisecond},
		outcomes,
		zap.NewNop(),
	)
	c.sleep = func(time.Duration) {}
	return c, invoices, audit, outcomes
}

func validRequest(tenantID uuid.UUID) *SubmissionRequest {
	return &SubmissionRequest{
		Email:       "owner@example.com",
		Password:    "secret",
		IssuerTaxID: "30-71222333-9",
		TotalAmount: floatPtr(121),
		VATAmount:   floatPtr(21),
		SaleIDs:     []int64{7, 8},
		TenantID:    tenantID.String(),
	}
}

func successBody() []byte {
	return []byte(`{"cae":"71234567890123","vencimiento":"2026-09-10","nro_comprobante":"42","fecha":"2026-08-31","qr_url":"https://www.afip.gob.ar/fe/qr/?p=abc"}`)
}

func TestSubmitSuccess(t *testing.T) {
	tenant := testTenant()
	sender := &scriptedSender{results: []*SendResult{
		{StatusCode: intPtr(201), Body: successBody()},
	}}
	c, invoices, audit, outcomes := newTestCoordinator(tenant, sender)

	invoice, err := c.Submit(context.Background(), validRequest(tenant.ID))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if invoice.CAE != "71234567890123" {
		t.Errorf("CAE = %q", invoice.CAE)
	}
	if invoice.Number != 42 {
		t.Errorf("Number = %d, want 42", invoice.Number)
	}
	if invoice.TenantID != tenant.ID {
		t.Errorf("TenantID = %s, want %s", invoice.TenantID, tenant.ID)
	}
	if len(invoice.SaleIDs) != 2 || invoice.SaleIDs[0] != 7 {
		t.Errorf("SaleIDs = %v, want [7 8]", invoice.SaleIDs)
	}
	if invoices.created == nil {
		t.Fatal("invoice was not persisted")
	}

	if audit.pending == nil {
		t.Fatal("no pending row was created")
	}
	if audit.pending.Status != models.SubmissionSuccess {
		t.Errorf("log status = %s, want success", audit.pending.Status)
	}
	if audit.successAttempts != 1 {
		t.Errorf("attempts = %d, want 1", audit.successAttempts)
	}
	if audit.successInvoice != invoice.ID {
		t.Errorf("finalized invoice id = %s, want %s", audit.successInvoice, invoice.ID)
	}

	snap, ok := audit.successResponse["invoice_snapshot"].(map[string]interface{})
	if !ok {
		t.Fatal("success response missing invoice_snapshot")
	}
	if snap["cae"] != "71234567890123" || snap["vencimiento"] != "2026-09-10" {
		t.Errorf("invoice_snapshot = %v", snap)
	}

	if len(outcomes.events) != 1 {
		t.Fatalf("published %d outcomes, want 1", len(outcomes.events))
	}
	ev := outcomes.events[0]
	if ev.Status != string(models.SubmissionSuccess) || ev.InvoiceID == nil {
		t.Errorf("outcome = %+v", ev)
	}
}

func TestSubmitRetriesThenFailsTransient(t *testing.T) {
	tenant := testTenant()
	sender := &scriptedSender{results: []*SendResult{
		{StatusCode: intPtr(500), Body: []byte(`{"message":"gateway exploded"}`)},
		{StatusCode: intPtr(503)},
	}}
	c, invoices, audit, outcomes := newTestCoordinator(tenant, sender)

	_, err := c.Submit(context.Background(), validRequest(tenant.ID))
	if err == nil {
		t.Fatal("expected an error")
	}

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != KindTransientRemote {
		t.Errorf("Kind = %v, want transient", serr.Kind)
	}
	if sender.calls != 2 {
		t.Errorf("remote calls = %d, want 2", sender.calls)
	}
	if audit.errorAttempts != 2 {
		t.Errorf("finalized attempts = %d, want 2", audit.errorAttempts)
	}
	if !strings.Contains(audit.errorMessage, "HTTP 503") {
		t.Errorf("error message = %q, want HTTP 503", audit.errorMessage)
	}
	if audit.pending.Status != models.SubmissionError {
		t.Errorf("log status = %s, want error", audit.pending.Status)
	}
	if invoices.created != nil {
		t.Error("no invoice should exist after a failed submission")
	}
	if len(outcomes.events) != 1 || outcomes.events[0].Status != string(models.SubmissionError) {
		t.Errorf("outcomes = %+v", outcomes.events)
	}
}

func TestSubmitPermanentRejectionStopsImmediately(t *testing.T) {
	tenant := testTenant()
	sender := &scriptedSender{results: []*SendResult{
		{StatusCode: intPtr(422), Body: []byte(`{"error":"cuit invalido"}`)},
	}}
	c, _, audit, _ := newTestCoordinator(tenant, sender)

	_, err := c.Submit(context.Background(), validRequest(tenant.ID))

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != KindPermanentRemote {
		t.Errorf("Kind = %v, want permanent", serr.Kind)
	}
	if sender.calls != 1 {
		t.Errorf("remote calls = %d, want 1 for a 4xx", sender.calls)
	}
	if audit.errorAttempts != 1 {
		t.Errorf("finalized attempts = %d, want 1", audit.errorAttempts)
	}
	if !strings.Contains(audit.errorMessage, "HTTP 422") || !strings.Contains(audit.errorMessage, "cuit invalido") {
		t.Errorf("error message = %q", audit.errorMessage)
	}
}

func TestSubmitTransportFailureMessage(t *testing.T) {
	tenant := testTenant()
	sender := &scriptedSender{results: []*SendResult{
		{Err: errors.New("dial tcp: connection refused")},
		{Err: errors.New("dial tcp: connection refused")},
	}}
	c, _, audit, _ := newTestCoordinator(tenant, sender)

	_, err := c.Submit(context.Background(), validRequest(tenant.ID))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(audit.errorMessage, "network error") {
		t.Errorf("error message = %q, want network error", audit.errorMessage)
	}
}

func TestSubmitUnknownTenant(t *testing.T) {
	sender := &scriptedSender{}
	c, _, audit, _ := newTestCoordinator(nil, sender)

	_, err := c.Submit(context.Background(), validRequest(uuid.New()))

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != KindNotFound {
		t.Errorf("Kind = %v, want not found", serr.Kind)
	}
	if audit.pending != nil {
		t.Error("no audit row may exist before validation passes")
	}
	if sender.calls != 0 {
		t.Error("remote must not be called for an unknown tenant")
	}
}

func TestSubmitValidation(t *testing.T) {
	tenant := testTenant()

	tests := []struct {
		name   string
		mutate func(*SubmissionRequest)
	}{
		{"missing tenant id", func(r *SubmissionRequest) { r.TenantID = "" }},
		{"malformed tenant id", func(r *SubmissionRequest) { r.TenantID = "not-a-uuid" }},
		{"missing total", func(r *SubmissionRequest) { r.TotalAmount = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, audit, _ := newTestCoordinator(tenant, &scriptedSender{})
			req := validRequest(tenant.ID)
			tt.mutate(req)

			_, err := c.Submit(context.Background(), req)

			var serr *Error
			if !errors.As(err, &serr) {
				t.Fatalf("error type = %T", err)
			}
			if serr.Kind != KindValidation {
				t.Errorf("Kind = %v, want validation", serr.Kind)
			}
			if audit.pending != nil {
				t.Error("no audit row may exist for invalid input")
			}
		})
	}
}

func TestSubmitUnparseableSuccessBody(t *testing.T) {
	tenant := testTenant()
	sender := &scriptedSender{results: []*SendResult{
		{StatusCode: intPtr(200), Body: []byte("not json at all")},
	}}
	c, invoices, audit, _ := newTestCoordinator(tenant, sender)

	_, err := c.Submit(context.Background(), validRequest(tenant.ID))

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != KindPermanentRemote {
		t.Errorf("Kind = %v, want permanent", serr.Kind)
	}
	if !strings.Contains(audit.errorMessage, "HTTP 200") {
		t.Errorf("error message = %q, want HTTP 200 prefix", audit.errorMessage)
	}
	if invoices.created != nil {
		t.Error("no invoice may be created from an unparseable body")
	}
	if audit.pending.Status != models.SubmissionError {
		t.Errorf("log status = %s, want error", audit.pending.Status)
	}
}

func TestSubmitInvoicePersistFailure(t *testing.T) {
	tenant := testTenant()
	sender := &scriptedSender{results: []*SendResult{
		{StatusCode: intPtr(201), Body: successBody()},
	}}
	c, invoices, audit, _ := newTestCoordinator(tenant, sender)
	invoices.err = errors.New("connection lost")

	_, err := c.Submit(context.Background(), validRequest(tenant.ID))

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != KindPersistence {
		t.Errorf("Kind = %v, want persistence", serr.Kind)
	}
	if audit.pending.Status != models.SubmissionError {
		t.Errorf("log status = %s, want error; the row must never stay pending", audit.pending.Status)
	}
}

func TestSubmitFinalizeInvariantViolation(t *testing.T) {
	tenant := testTenant()
	sender := &scriptedSender{results: []*SendResult{
		{StatusCode: intPtr(201), Body: successBody()},
	}}
	c, _, audit, _ := newTestCoordinator(tenant, sender)
	audit.finalizeErr = auditlog.ErrNotPending

	_, err := c.Submit(context.Background(), validRequest(tenant.ID))

	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("error type = %T", err)
	}
	if serr.Kind != KindInvariant {
		t.Errorf("Kind = %v, want invariant", serr.Kind)
	}
}

func TestSubmitDetachesFromCallerCancellation(t *testing.T) {
	tenant := testTenant()
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already canceled before Submit

	sender := &senderAssertingLiveContext{t: t}
	c, _, audit, _ := newTestCoordinator(tenant, sender)

	invoice, err := c.Submit(ctx, validRequest(tenant.ID))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if invoice == nil {
		t.Fatal("expected an invoice")
	}
	if audit.pending.Status != models.SubmissionSuccess {
		t.Errorf("log status = %s, want success", audit.pending.Status)
	}
}

type senderAssertingLiveContext struct {
	t *testing.T
}

func (s *senderAssertingLiveContext) Send(ctx context.Context, doc *OutboundDocument) *SendResult {
	if ctx.Err() != nil {
		s.t.Error("remote call context must not inherit caller cancellation")
	}
	return &SendResult{StatusCode: intPtr(201), Body: successBody()}
}
