package submitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/auditlog"
	"github.com/juansemartinez01/API-FACTURACION/internal/models"
)

// TenantFinder resolves the tenant a submission is made for. A nil tenant
// with a nil error means not found.
type TenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// InvoiceCreator persists the invoice built from a successful remote
// response.
type InvoiceCreator interface {
	Create(ctx context.Context, invoice *models.Invoice) error
}

// AuditLog is the durable record of the submission lifecycle.
type AuditLog interface {
	CreatePending(ctx context.Context, entry auditlog.PendingEntry) (*models.SubmissionLog, error)
	FinalizeSuccess(ctx context.Context, id uuid.UUID, attempts int, durationMs int64, response map[string]interface{}, invoiceID uuid.UUID) error
	FinalizeError(ctx context.Context, id uuid.UUID, attempts int, durationMs int64, message string, response map[string]interface{}) error
}

// OutcomeEvent is the terminal result of one submission, published for
// downstream consumers.
type OutcomeEvent struct {
	LogID      string    `json:"log_id"`
	TenantID   string    `json:"tenant_id"`
	Status     string    `json:"status"`
	InvoiceID  *string   `json:"invoice_id,omitempty"`
	Attempts   int       `json:"attempts"`
	DurationMs int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OutcomePublisher announces terminal submission outcomes. Publishing is
// best effort and must never fail the submission itself.
type OutcomePublisher interface {
	PublishOutcome(outcome OutcomeEvent)
}

// Coordinator drives one submission through its full lifecycle:
// validating -> pending-logged -> calling-remote -> success|error.
// Once the pending row exists, every outcome is written back to it before
// the caller sees anything.
type Coordinator struct {
	tenants  TenantFinder
	invoices InvoiceCreator
	audit    AuditLog
	client   Sender
	policy   RetryPolicy
	outcomes OutcomePublisher
	logger   *zap.Logger

	sleep func(time.Duration)
}

// NewCoordinator wires the pipeline. outcomes may be nil when no event
// publishing is configured.
func NewCoordinator(
	tenants TenantFinder,
	invoices InvoiceCreator,
	audit AuditLog,
	client Sender,
	policy RetryPolicy,
	outcomes OutcomePublisher,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		tenants:  tenants,
		invoices: invoices,
		audit:    audit,
		client:   client,
		policy:   policy,
		outcomes: outcomes,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// remoteInvoice is the success body of the remote facturador endpoint.
// nro_comprobante arrives as a string in some deployments and a number in
// others; json.Number covers both.
type remoteInvoice struct {
	CAE       string      `json:"cae"`
	Expiry    string      `json:"vencimiento"`
	Number    json.Number `json:"nro_comprobante"`
	IssueDate string      `json:"fecha"`
	QRURL     string      `json:"qr_url"`
}

// Submit runs one submission to a terminal state. Validation and tenant
// resolution fail before any audit row exists; after the pending row is
// created, every failure is finalized into it before being returned.
// Caller cancellation does not abort an in-flight attempt: the remote call
// and the finalization run on a detached context.
func (c *Coordinator) Submit(ctx context.Context, req *SubmissionRequest) (*models.Invoice, error) {
	// validating
	if req.TenantID == "" {
		return nil, newError(KindValidation, "tenant id is required")
	}
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return nil, newError(KindValidation, "tenant id is not valid: %q", req.TenantID)
	}
	if req.TotalAmount == nil || math.IsNaN(*req.TotalAmount) || math.IsInf(*req.TotalAmount, 0) {
		return nil, newError(KindValidation, "importe_total is required and must be numeric")
	}

	tenant, err := c.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapError(KindPersistence, err, "failed to resolve tenant")
	}
	if tenant == nil {
		return nil, newError(KindNotFound, "tenant %s not found", tenantID)
	}

	doc := Normalize(req)
	snapshot := Snapshot(req, doc)

	// The submission must reach a terminal audit state even if the caller
	// disconnects, so everything below runs detached from its cancellation.
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	// pending-logged: the durability checkpoint.
	var email *string
	if req.Email != "" {
		email = &req.Email
	}
	log, err := c.audit.CreatePending(ctx, auditlog.PendingEntry{
		TenantID:          tenant.ID,
		Email:             email,
		UsedPasswordLogin: req.Password != "",
		IssuerTaxID:       doc.IssuerTaxID,
		PointOfSale:       doc.PointOfSale,
		DocumentType:      doc.DocumentType,
		TotalAmount:       fmt.Sprintf("%.2f", doc.TotalAmount),
		RequestPayload:    snapshot,
	})
	if err != nil {
		return nil, wrapError(KindPersistence, err, "failed to record pending submission")
	}

	// calling-remote
	attempts := 0
	var res *SendResult
	for {
		attempts++
		res = c.client.Send(ctx, doc)
		decision := c.policy.Decide(attempts, res)

		if decision.Outcome == OutcomeSuccess {
			break
		}

		c.logger.Warn("Invoice submission attempt failed",
			zap.String("log_id", log.ID.String()),
			zap.Int("attempt", attempts),
			zap.Intp("http_status", res.StatusCode),
			zap.Error(res.Err),
		)

		if decision.Retry {
			c.sleep(decision.Delay)
			continue
		}

		msg := failureMessage(res)
		c.finalizeError(ctx, log, tenant, attempts, start, msg, responseSnapshot(res))

		kind := KindTransientRemote
		if decision.Outcome == OutcomePermanent {
			kind = KindPermanentRemote
		}
		return nil, &Error{Kind: kind, Message: msg, HTTPStatus: statusOf(res), Err: res.Err}
	}

	// success: persist the invoice, then finalize the log with the raw
	// remote body plus a compact snapshot of what was just created.
	var remote remoteInvoice
	if err := json.Unmarshal(res.Body, &remote); err != nil {
		msg := fmt.Sprintf("HTTP %d: unparseable success response: %v", statusOf(res), err)
		c.finalizeError(ctx, log, tenant, attempts, start, msg, responseSnapshot(res))
		return nil, &Error{Kind: KindPermanentRemote, Message: msg, HTTPStatus: statusOf(res), Err: err}
	}
	number, _ := remote.Number.Int64()

	invoice := &models.Invoice{
		CAE:       remote.CAE,
		CAEExpiry: remote.Expiry,
		Number:    number,
		IssueDate: remote.IssueDate,
		QRURL:     remote.QRURL,
		TenantID:  tenant.ID,
		SaleIDs:   pq.Int64Array(req.SaleIDs),
	}
	if err := c.invoices.Create(ctx, invoice); err != nil {
		msg := fmt.Sprintf("failed to persist invoice: %v", err)
		c.finalizeError(ctx, log, tenant, attempts, start, msg, responseSnapshot(res))
		return nil, wrapError(KindPersistence, err, "failed to persist invoice")
	}

	durationMs := time.Since(start).Milliseconds()
	if err := c.audit.FinalizeSuccess(ctx, log.ID, attempts, durationMs, successSnapshot(res.Body, invoice), invoice.ID); err != nil {
		kind := KindPersistence
		if errors.Is(err, auditlog.ErrNotPending) || errors.Is(err, auditlog.ErrMissingInvoiceRef) {
			kind = KindInvariant
		}
		c.logger.Error("Failed to finalize successful submission",
			zap.String("log_id", log.ID.String()),
			zap.Error(err),
		)
		return nil, wrapError(kind, err, "failed to finalize submission log")
	}

	c.logger.Info("Invoice submission succeeded",
		zap.String("log_id", log.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int("attempts", attempts),
		zap.Int64("duration_ms", durationMs),
	)
	c.publishOutcome(log, tenant, string(models.SubmissionSuccess), &invoice.ID, attempts, durationMs)

	return invoice, nil
}

// finalizeError writes the terminal error into the audit row. A failure
// here is logged but not propagated; the original error matters more to
// the caller.
func (c *Coordinator) finalizeError(ctx context.Context, log *models.SubmissionLog, tenant *models.Tenant, attempts int, start time.Time, msg string, response map[string]interface{}) {
	durationMs := time.Since(start).Milliseconds()

	if err := c.audit.FinalizeError(ctx, log.ID, attempts, durationMs, msg, response); err != nil {
		c.logger.Error("Failed to finalize failed submission",
			zap.String("log_id", log.ID.String()),
			zap.Error(err),
		)
		return
	}

	c.logger.Warn("Invoice submission failed",
		zap.String("log_id", log.ID.String()),
		zap.Int("attempts", attempts),
		zap.Int64("duration_ms", durationMs),
		zap.String("error", msg),
	)
	c.publishOutcome(log, tenant, string(models.SubmissionError), nil, attempts, durationMs)
}

func (c *Coordinator) publishOutcome(log *models.SubmissionLog, tenant *models.Tenant, status string, invoiceID *uuid.UUID, attempts int, durationMs int64) {
	if c.outcomes == nil {
		return
	}

	outcome := OutcomeEvent{
		LogID:      log.ID.String(),
		TenantID:   tenant.ID.String(),
		Status:     status,
		Attempts:   attempts,
		DurationMs: durationMs,
		OccurredAt: time.Now().UTC(),
	}
	if invoiceID != nil {
		s := invoiceID.String()
		outcome.InvoiceID = &s
	}
	c.outcomes.PublishOutcome(outcome)
}

func statusOf(res *SendResult) int {
	if res == nil || res.StatusCode == nil {
		return 0
	}
	return *res.StatusCode
}

// failureMessage builds the audit error message. Responses always mention
// the HTTP status; transport failures mention the known transient code
// when one matches.
func failureMessage(res *SendResult) string {
	if res.StatusCode == nil {
		if code := TransientErrCode(res.Err); code != "" {
			return fmt.Sprintf("network error (%s): %v", code, res.Err)
		}
		return fmt.Sprintf("network error: %v", res.Err)
	}

	msg := fmt.Sprintf("HTTP %d", *res.StatusCode)
	if detail := remoteMessage(res.Body); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// remoteMessage pulls a human-readable detail out of a remote error body.
// The facturador responds with `message`, `error` or `detail` depending on
// the failing layer.
func remoteMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "detail"} {
		if v, ok := parsed[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// responseSnapshot captures whatever the remote returned: status, body
// (parsed when it is JSON) and headers. Nil when no response was received.
func responseSnapshot(res *SendResult) map[string]interface{} {
	if res == nil || res.StatusCode == nil {
		return nil
	}

	snap := map[string]interface{}{
		"status": *res.StatusCode,
	}
	if len(res.Body) > 0 {
		var parsed map[string]interface{}
		if err := json.Unmarshal(res.Body, &parsed); err == nil {
			snap["body"] = parsed
		} else {
			snap["body"] = string(res.Body)
		}
	}
	if len(res.Header) > 0 {
		headers := make(map[string]string, len(res.Header))
		for k := range res.Header {
			headers[k] = res.Header.Get(k)
		}
		snap["headers"] = headers
	}
	return snap
}

// successSnapshot merges the raw remote body with a compact summary of the
// invoice that was persisted from it.
func successSnapshot(body []byte, invoice *models.Invoice) map[string]interface{} {
	snap := make(map[string]interface{})
	if err := json.Unmarshal(body, &snap); err != nil {
		snap = map[string]interface{}{"raw": string(body)}
	}
	snap["invoice_snapshot"] = map[string]interface{}{
		"id":              invoice.ID.String(),
		"cae":             invoice.CAE,
		"vencimiento":     invoice.CAEExpiry,
		"nro_comprobante": invoice.Number,
		"fecha":           invoice.IssueDate,
		"qr_url":          invoice.QRURL,
	}
	return snap
}
