package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one financial movement as received from the ingesting
// client. The schema is open: clients send whatever fields their upstream
// produces, and the accessors below pull out the handful of fields this
// service actually reasons about. A missing or malformed field reports
// ok=false rather than failing the record.
type Transaction map[string]any

// Field aliases seen across upstream payload variants.
var (
	timeFields      = []string{"createdAt", "created_at", "date", "timestamp"}
	narrationFields = []string{"narration", "description", "remarks"}
	modeFields      = []string{"mode", "txnMode", "payment_mode"}
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Amount returns the transaction amount as a decimal.
func (t Transaction) Amount() (decimal.Decimal, bool) {
	switch v := t["amount"].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case decimal.Decimal:
		return v, true
	default:
		return decimal.Zero, false
	}
}

// Time returns the transaction timestamp, trying the known field aliases
// and layouts in order.
func (t Transaction) Time() (time.Time, bool) {
	for _, field := range timeFields {
		s, ok := t[field].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// Narration returns the free-text description of the movement.
func (t Transaction) Narration() string {
	for _, field := range narrationFields {
		if s, ok := t[field].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Type returns the transaction type tag (DEBIT, CREDIT, ...). Upstream
// payloads carry it either directly or as a "TYPE#"-prefixed index key.
func (t Transaction) Type() string {
	if s, ok := t["type"].(string); ok && s != "" {
		return strings.ToUpper(s)
	}
	if s, ok := t["pk_GSI_1"].(string); ok && s != "" {
		return strings.ToUpper(strings.TrimPrefix(s, "TYPE#"))
	}
	return ""
}

// Mode returns the payment mode tag (UPI, CARD, ...).
func (t Transaction) Mode() string {
	for _, field := range modeFields {
		if s, ok := t[field].(string); ok && s != "" {
			return strings.ToUpper(s)
		}
	}
	return ""
}

// Clone returns a shallow copy of the transaction. Values are not copied;
// the service never mutates individual field values in place.
func (t Transaction) Clone() Transaction {
	c := make(Transaction, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// CloneSlice copies a transaction sequence so cached snapshots stay
// detached from later dataset replacement.
func CloneSlice(txns []Transaction) []Transaction {
	out := make([]Transaction, len(txns))
	for i, t := range txns {
		out[i] = t.Clone()
	}
	return out
}
