package form

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const unitField = "Unit"

// Discovery is a plaintiff's reported habitability problems. Each category
// appears in JSON twice: a boolean flag and the list of selected option
// names. Keys are driven by Categories, so there is one field pair per entry.
type Discovery struct {
	Unit       *string
	Flags      map[string]bool
	Selections map[string][]string
}

// NewDiscovery returns a Discovery with every category defaulted to
// false and an empty list.
func NewDiscovery() *Discovery {
	return &Discovery{
		Flags:      make(map[string]bool, len(Categories)),
		Selections: make(map[string][]string, len(Categories)),
	}
}

// Options returns the selected option names for a category code.
func (d *Discovery) Options(code string) []string {
	if d == nil {
		return nil
	}
	return d.Selections[code]
}

// Select marks a category as having issues and appends the option name.
func (d *Discovery) Select(code, option string) {
	if d.Flags == nil {
		d.Flags = make(map[string]bool, len(Categories))
	}
	if d.Selections == nil {
		d.Selections = make(map[string][]string, len(Categories))
	}
	d.Flags[code] = true
	d.Selections[code] = append(d.Selections[code], option)
}

// MarshalJSON writes Unit followed by every category flag/list pair in
// table order. Categories without selections render as false and [].
func (d Discovery) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeField(&buf, unitField, d.Unit); err != nil {
		return nil, err
	}

	for _, c := range Categories {
		buf.WriteByte(',')
		if err := writeField(&buf, c.FlagField, d.Flags[c.Code]); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		options := d.Selections[c.Code]
		if options == nil {
			options = []string{}
		}
		if err := writeField(&buf, c.ListField, options); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode discovery field %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// UnmarshalJSON reads the Unit and every known category list. Flags are
// derived from the lists, so input flags are ignored. Missing or null lists
// are empty. Unknown keys are ignored.
func (d *Discovery) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("discovery must be an object: %w", err)
	}

	out := NewDiscovery()

	if msg, ok := raw[unitField]; ok {
		if err := json.Unmarshal(msg, &out.Unit); err != nil {
			return fmt.Errorf("discovery field %q: %w", unitField, err)
		}
	}

	for _, c := range Categories {
		msg, ok := raw[c.ListField]
		if !ok {
			continue
		}
		var options []string
		if err := json.Unmarshal(msg, &options); err != nil {
			return fmt.Errorf("discovery field %q: %w", c.ListField, err)
		}
		if len(options) > 0 {
			out.Selections[c.Code] = options
			out.Flags[c.Code] = true
		}
	}

	*d = *out
	return nil
}
