package model

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// FromTree decodes a raw gateway tree value (the map[string]interface{} /
// []interface{} / scalar shapes produced by JSON) into a typed record. All
// gateway implementations deliver values in this shape, so this is the one
// place projection converts them.
func FromTree(value interface{}, out interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encode tree value")
	}
	if err := json.Unmarshal(b, out); err != nil {
		return errors.Wrap(err, "decode tree value")
	}
	return nil
}

// ToTree is the inverse of FromTree: a typed record becomes the JSON-shaped
// tree value a gateway Write expects.
func ToTree(in interface{}) (interface{}, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrap(err, "encode record")
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	return out, nil
}
