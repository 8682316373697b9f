package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	HyperparametersKey = "hyperparameters"
	KPIsKey            = "kpis"

	// HyperparametersFileFragment selects the hyperparameter file among a
	// model's contents.
	HyperparametersFileFragment = "hyperparameters"
	HyperparametersFileSuffix   = "Hyperparameters.json"
)

// HyperparameterDocument is the JSON file tracking a model's parameters and,
// once merged, its KPI history keyed by time label. Top-level keys other than
// "hyperparameters" and "kpis" are carried through untouched, and top-level
// keys are written back in the order they were read.
type HyperparameterDocument struct {
	Hyperparameters map[string]any
	KPIs            map[string]map[string]any

	order []string
	extra map[string]json.RawMessage
}

// NewHyperparameterDocument wraps params as a fresh document.
func NewHyperparameterDocument(params map[string]any) *HyperparameterDocument {
	if params == nil {
		params = map[string]any{}
	}
	return &HyperparameterDocument{Hyperparameters: params}
}

// ParseHyperparameterDocument decodes file content. Numbers are kept as
// json.Number so they re-encode exactly as read.
func ParseHyperparameterDocument(content []byte) (*HyperparameterDocument, error) {
	raw, order, err := decodeObject(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	hp, ok := raw[HyperparametersKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q key", ErrMalformedDocument, HyperparametersKey)
	}

	doc := &HyperparameterDocument{order: order}
	if err := decodeJSON(hp, &doc.Hyperparameters); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, HyperparametersKey, err)
	}
	if doc.Hyperparameters == nil {
		doc.Hyperparameters = map[string]any{}
	}
	delete(raw, HyperparametersKey)

	if kpis, ok := raw[KPIsKey]; ok {
		if err := decodeJSON(kpis, &doc.KPIs); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, KPIsKey, err)
		}
		delete(raw, KPIsKey)
	}

	if len(raw) > 0 {
		doc.extra = raw
	}
	return doc, nil
}

// Set upserts one hyperparameter.
func (d *HyperparameterDocument) Set(key string, value any) {
	if d.Hyperparameters == nil {
		d.Hyperparameters = map[string]any{}
	}
	d.Hyperparameters[key] = value
}

func (d *HyperparameterDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalValue(key)
		if err != nil {
			return nil, err
		}
		v, err := d.value(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// keys lists the top-level keys to write: the ones read, in order, then
// "hyperparameters" and "kpis" if they are new.
func (d *HyperparameterDocument) keys() []string {
	keys := make([]string, 0, len(d.order)+2)
	seen := make(map[string]bool, len(d.order)+2)
	for _, k := range d.order {
		if d.has(k) && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	for _, k := range []string{HyperparametersKey, KPIsKey} {
		if d.has(k) && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	return keys
}

func (d *HyperparameterDocument) has(key string) bool {
	switch key {
	case HyperparametersKey:
		return true
	case KPIsKey:
		return d.KPIs != nil
	default:
		_, ok := d.extra[key]
		return ok
	}
}

func (d *HyperparameterDocument) value(key string) ([]byte, error) {
	switch key {
	case HyperparametersKey:
		hp := d.Hyperparameters
		if hp == nil {
			hp = map[string]any{}
		}
		return marshalValue(hp)
	case KPIsKey:
		return marshalValue(d.KPIs)
	default:
		return d.extra[key], nil
	}
}

// Encode renders the document the way it is stored: 4-space indented JSON
// with <, > and & left as written.
func (d *HyperparameterDocument) Encode() ([]byte, error) {
	flat, err := d.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal hyperparameters: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, flat, "", "    "); err != nil {
		return nil, fmt.Errorf("indent hyperparameters: %w", err)
	}
	return buf.Bytes(), nil
}

// marshalValue is json.Marshal without HTML escaping.
func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeObject reads a JSON object into its raw members and the order the
// keys appeared in. A repeated key keeps its last value and first position.
func decodeObject(data []byte) (map[string]json.RawMessage, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("document is not a JSON object")
	}

	raw := make(map[string]json.RawMessage)
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, dup := raw[key]; !dup {
			order = append(order, key)
		}
		raw[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return raw, order, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
