package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DecodeOrder parses an inbound order. Unknown fields are ignored; missing
// identifiers, tables or items make the message invalid.
func DecodeOrder(payload []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case o.ID <= 0:
		return Order{}, fmt.Errorf("%w: pedido_id must be positive", ErrMalformed)
	case o.Table <= 0:
		return Order{}, fmt.Errorf("%w: mesa must be positive", ErrMalformed)
	case len(o.Items) == 0:
		return Order{}, fmt.Errorf("%w: order %d has no items", ErrMalformed, o.ID)
	}
	return o, nil
}

func DecodeStatus(payload []byte) (StatusMessage, error) {
	var s StatusMessage
	if err := json.Unmarshal(payload, &s); err != nil {
		return StatusMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s.OrderID <= 0 {
		return StatusMessage{}, fmt.Errorf("%w: pedido_id must be positive", ErrMalformed)
	}
	switch s.Status {
	case StatusReady, StatusFinalized:
	default:
		return StatusMessage{}, fmt.Errorf("%w: unknown status %q", ErrMalformed, s.Status)
	}
	return s, nil
}

// Envelope is the loose view of any message in the namespace. Any valid
// JSON document decodes; fields of the wrong type are treated as absent, and
// numeric strings are accepted for ids.
type Envelope struct {
	OrderID *int
	Table   *int
	Status  string
	Total   *json.Number
}

func DecodeEnvelope(payload []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return Envelope{}, fmt.Errorf("%w: trailing data after JSON value", ErrMalformed)
	}

	var e Envelope
	obj, ok := doc.(map[string]any)
	if !ok {
		return e, nil
	}
	e.OrderID = looseInt(obj["pedido_id"])
	e.Table = looseInt(obj["mesa"])
	if s, ok := obj["status"].(string); ok {
		e.Status = s
	}
	switch v := obj["total"].(type) {
	case json.Number:
		e.Total = &v
	case string:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			n := json.Number(v)
			e.Total = &n
		}
	}
	return e, nil
}

func looseInt(v any) *int {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
