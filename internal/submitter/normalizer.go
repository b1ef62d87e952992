package submitter

import (
	"encoding/json"
	"math"
	"strings"
)

// Fixed defaults applied when the caller leaves optional fields unset.
// These mirror the remote facturador contract: consumer without tax id
// (doc_tipo 99), final-consumer VAT condition (cond_iva_receptor 5),
// invoice type C (factura_tipo 11), pesos at parity.
const (
	defaultReceiverDocType      = 99
	defaultReceiverVATCondition = 5
	defaultDocumentType         = 11
	defaultPaymentMethod        = 1
	defaultPointOfSale          = 1
	defaultConcept              = 1
	defaultCurrency             = "PES"
	defaultPaymentCurrency      = "N"
	defaultExchangeRate         = "1"

	// AFIP rate table id for the standard 21% VAT rate, used when a
	// breakdown line has to be synthesized.
	defaultVATRateID = 5
)

// VATLine is one VAT-rate breakdown entry of the outbound document.
type VATLine struct {
	RateID int     `json:"id_iva"`
	Base   float64 `json:"base_imponible"`
	Amount float64 `json:"importe"`
}

// SubmissionRequest carries the raw fields of one submission call. Login
// fields ride along for audit classification but are never forwarded to the
// remote service. Pointer fields distinguish "unset" from zero values.
type SubmissionRequest struct {
	// Login metadata; the password never leaves this process.
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
	Sign     string `json:"sign"`

	IssuerTaxID string   `json:"cuit_emisor"`
	TotalAmount *float64 `json:"importe_total"`

	Test        *bool `json:"test"`
	PointOfSale *int  `json:"punto_venta"`

	ReceiverDocType      *int   `json:"doc_tipo"`
	ReceiverDocNumber    *int64 `json:"doc_nro"`
	ReceiverVATCondition *int   `json:"cond_iva_receptor"`

	DocumentType  *int `json:"factura_tipo"`
	PaymentMethod *int `json:"metodo_pago"`

	NetAmount     *float64 `json:"importe_neto"`
	VATAmount     *float64 `json:"importe_iva"`
	ConceptAmount *float64 `json:"importe_total_concepto"`
	ExemptAmount  *float64 `json:"importe_exento"`
	TributeAmount *float64 `json:"importe_tributos"`

	VATLines []VATLine `json:"alicuotas_iva"`

	Currency        *string `json:"moneda"`
	PaymentCurrency *string `json:"moneda_pago"`
	ExchangeRate    *string `json:"cotizacion"`
	Concept         *int    `json:"concepto"`

	// Credit/debit note references to the original document.
	OriginalDocType       *int   `json:"tipo_comprobante_original"`
	OriginalPointOfSale   *int   `json:"pto_venta_original"`
	OriginalNumber        *int64 `json:"nro_comprobante_original"`
	OriginalReceiverTaxID *int64 `json:"cuit_receptor_comprobante_original"`

	// Sale records this invoice settles; passed through to the Invoice.
	SaleIDs []int64 `json:"ventas_ids"`

	// Set by the HTTP layer from the authenticated token.
	TenantID string `json:"tenant_id"`
}

// OutboundDocument is the exact JSON document posted to the remote
// facturador endpoint. Optional fields left unset by the caller are dropped
// from the wire payload, never serialized as null.
type OutboundDocument struct {
	IssuerTaxID string  `json:"cuit_emisor"`
	TotalAmount float64 `json:"importe_total"`

	Test        bool `json:"test"`
	PointOfSale int  `json:"punto_venta"`

	ReceiverDocType      int   `json:"doc_tipo"`
	ReceiverDocNumber    int64 `json:"doc_nro"`
	ReceiverVATCondition int   `json:"cond_iva_receptor"`

	DocumentType  int `json:"factura_tipo"`
	PaymentMethod int `json:"metodo_pago"`

	NetAmount     *float64 `json:"importe_neto,omitempty"`
	VATAmount     float64  `json:"importe_iva"`
	ConceptAmount float64  `json:"importe_total_concepto"`
	ExemptAmount  float64  `json:"importe_exento"`
	TributeAmount float64  `json:"importe_tributos"`

	VATLines []VATLine `json:"alicuotas_iva,omitempty"`

	Currency        string `json:"moneda"`
	PaymentCurrency string `json:"moneda_pago"`
	ExchangeRate    string `json:"cotizacion"`
	Concept         int    `json:"concepto"`

	OriginalDocType       *int   `json:"tipo_comprobante_original,omitempty"`
	OriginalPointOfSale   *int   `json:"pto_venta_original,omitempty"`
	OriginalNumber        *int64 `json:"nro_comprobante_original,omitempty"`
	OriginalReceiverTaxID *int64 `json:"cuit_receptor_comprobante_original,omitempty"`
}

// Normalize turns a raw submission request into the outbound document,
// filling defaults and deriving the VAT breakdown. TotalAmount must be
// validated by the caller before this point.
func Normalize(req *SubmissionRequest) *OutboundDocument {
	doc := &OutboundDocument{
		IssuerTaxID: NormalizeTaxID(req.IssuerTaxID),
		TotalAmount: *req.TotalAmount,

		Test:        boolOr(req.Test, true),
		PointOfSale: intOr(req.PointOfSale, defaultPointOfSale),

		ReceiverDocType:      intOr(req.ReceiverDocType, defaultReceiverDocType),
		ReceiverDocNumber:    int64Or(req.ReceiverDocNumber, 0),
		ReceiverVATCondition: intOr(req.ReceiverVATCondition, defaultReceiverVATCondition),

		DocumentType:  intOr(req.DocumentType, defaultDocumentType),
		PaymentMethod: intOr(req.PaymentMethod, defaultPaymentMethod),

		NetAmount:     req.NetAmount,
		VATAmount:     floatOr(req.VATAmount, 0),
		ConceptAmount: floatOr(req.ConceptAmount, 0),
		ExemptAmount:  floatOr(req.ExemptAmount, 0),
		TributeAmount: floatOr(req.TributeAmount, 0),

		Currency:        stringOr(req.Currency, defaultCurrency),
		PaymentCurrency: stringOr(req.PaymentCurrency, defaultPaymentCurrency),
		ExchangeRate:    stringOr(req.ExchangeRate, defaultExchangeRate),
		Concept:         intOr(req.Concept, defaultConcept),

		OriginalDocType:       req.OriginalDocType,
		OriginalPointOfSale:   req.OriginalPointOfSale,
		OriginalNumber:        req.OriginalNumber,
		OriginalReceiverTaxID: req.OriginalReceiverTaxID,
	}

	if doc.VATAmount > 0 {
		doc.VATLines = req.VATLines
		if len(doc.VATLines) == 0 {
			base := round2(doc.TotalAmount - doc.VATAmount)
			doc.VATLines = []VATLine{{
				RateID: defaultVATRateID,
				Base:   base,
				Amount: round2(doc.VATAmount),
			}}
			if doc.NetAmount == nil {
				doc.NetAmount = &base
			}
		}
	}
	// VATAmount == 0: breakdown lines are omitted regardless of input.

	return doc
}

// Snapshot builds the audit request snapshot: the outbound document plus
// masked login metadata. The password itself is never included, only the
// fact that one was supplied.
func Snapshot(req *SubmissionRequest, doc *OutboundDocument) map[string]interface{} {
	snapshot := documentMap(doc)
	if req.Email != "" {
		snapshot["email"] = req.Email
	} else {
		snapshot["email"] = nil
	}
	snapshot["used_password_login"] = req.Password != ""
	return snapshot
}

// NormalizeTaxID reduces a CUIT to the plain digit string the remote
// contract expects: '20-12345678-3' and '20 12345678 3' both become
// '20123456783'.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// documentMap round-trips the document through JSON so the snapshot holds
// exactly what went on the wire, dropped fields included.
func documentMap(doc *OutboundDocument) map[string]interface{} {
	raw, err := json.Marshal(doc)
	if err != nil {
		return map[string]interface{}{}
	}
	m := make(map[string]interface{})
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func int64Or(v *int64, fallback int64) int64 {
	if v != nil {
		return *v
	}
	return fallback
}

func floatOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func stringOr(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}
