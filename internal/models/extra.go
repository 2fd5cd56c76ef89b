package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ExtraField is a single preserved spreadsheet column.
type ExtraField struct {
	Key   string
	Value string
}

// ExtraMap holds every original spreadsheet column of an imported record,
// keyed by its original header, in first-seen order. It round-trips through
// the equipment table's JSON column without losing column order.
type ExtraMap []ExtraField

// Get returns the value for key and whether it is present.
func (m ExtraMap) Get(key string) (string, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value for key, or appends the pair if key is new.
func (m *ExtraMap) Set(key, value string) {
	for i, f := range *m {
		if f.Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, ExtraField{Key: key, Value: value})
}

// Keys returns the keys in insertion order.
func (m ExtraMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, f := range m {
		keys = append(keys, f.Key)
	}
	return keys
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m ExtraMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving the key order found in the
// document. Non-string values are stringified.
func (m *ExtraMap) UnmarshalJSON(data []byte) error {
	*m = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("extra: expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("extra: non-string key %v", keyTok)
		}
		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		switch v := raw.(type) {
		case string:
			m.Set(key, v)
		case nil:
			m.Set(key, "")
		default:
			m.Set(key, fmt.Sprint(v))
		}
	}
	_, err = dec.Token() // closing brace
	return err
}

// Value implements driver.Valuer so the map can be stored in a JSON column.
func (m ExtraMap) Value() (driver.Value, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *ExtraMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("extra: cannot scan %T", src)
	}
}
