package models

import (
	"encoding/json"
	"fmt"
)

// Extra keeps upstream fields the console does not model so that records pass
// through unchanged when rendered back to the operator.
type Extra map[string]json.RawMessage

// decodeRecord unmarshals raw into the typed alias and stores every key that the
// alias does not re-emit into extra.
func decodeRecord(raw []byte, alias interface{}, extra *Extra) error {
	if err := json.Unmarshal(raw, alias); err != nil {
		return err
	}
	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	known, err := keysOf(alias)
	if err != nil {
		return err
	}
	for key := range known {
		delete(all, key)
	}
	if len(all) == 0 {
		*extra = nil
		return nil
	}
	*extra = all
	return nil
}

// encodeRecord marshals the typed alias and merges extra keys it does not define.
func encodeRecord(alias interface{}, extra Extra) ([]byte, error) {
	if len(extra) == 0 {
		return json.Marshal(alias)
	}
	fields, err := keysOf(alias)
	if err != nil {
		return nil, err
	}
	for key, value := range extra {
		if _, ok := fields[key]; !ok {
			fields[key] = value
		}
	}
	return json.Marshal(fields)
}

func keysOf(v interface{}) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("index record fields: %w", err)
	}
	return out, nil
}
