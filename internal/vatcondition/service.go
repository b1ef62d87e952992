package vatcondition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/juansemartinez01/API-FACTURACION/internal/config"
	"github.com/juansemartinez01/API-FACTURACION/internal/submitter"
)

// Request identifies the parties of a VAT-condition lookup.
type Request struct {
	QueryCUIT       int64 `json:"cuit_consulta"`
	ComputerCUIT    int64 `json:"cuit_computador"`
	RepresentedCUIT int64 `json:"cuit_representado"`
}

// Response is the remote service's answer for a receiver's VAT standing.
type Response struct {
	Consulta     int64  `json:"consulta"`
	CondicionIVA string `json:"condicion_iva"`
}

// Service proxies VAT-condition lookups against the remote facturador.
// Same transport discipline as the submission client: fixed timeout, body
// read on every status, no exception on non-2xx.
type Service struct {
	httpClient *http.Client
	url        string
	maxBody    int
	logger     *zap.Logger
}

func NewService(cfg *config.SubmitterConfig, logger *zap.Logger) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		url:     cfg.VATConditionURL,
		maxBody: cfg.MaxResponseBodySize,
		logger:  logger,
	}
}

// Check validates the CUITs and queries the remote service. 4xx rejections
// map to a permanent-remote error, 5xx and transport failures to a
// transient-remote one.
func (s *Service) Check(ctx context.Context, req Request) (*Response, error) {
	for _, cuit := range []int64{req.QueryCUIT, req.ComputerCUIT, req.RepresentedCUIT} {
		if cuit <= 0 {
			return nil, &submitter.Error{
				Kind:    submitter.KindValidation,
				Message: "all CUITs must be positive integers",
			}
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal VAT-condition request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, &submitter.Error{
			Kind:    submitter.KindTransientRemote,
			Message: "error communicating with facturador",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, int64(s.maxBody)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out Response
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, &submitter.Error{
				Kind:       submitter.KindPermanentRemote,
				Message:    "unparseable VAT-condition response",
				HTTPStatus: resp.StatusCode,
				Err:        err,
			}
		}
		return &out, nil
	}

	s.logger.Warn("VAT-condition lookup rejected",
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	)

	msg := remoteDetail(body)
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	kind := submitter.KindTransientRemote
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		kind = submitter.KindPermanentRemote
	}
	return nil, &submitter.Error{
		Kind:       kind,
		Message:    msg,
		HTTPStatus: resp.StatusCode,
	}
}

func remoteDetail(body []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message"} {
		if v, ok := parsed[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
