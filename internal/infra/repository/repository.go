// Package repository adapts the generic content store into the typed
// accessors the use cases consume. One repository per document type.
package repository

import (
	"encoding/json"
	"fmt"
)

// docFields flattens an entity into the field map the store mutates.
// The json round-trip keeps the persisted shape identical to the wire
// shape of the entity.
func docFields(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document fields: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	delete(fields, "_id")
	return fields, nil
}

func decodeDoc(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
