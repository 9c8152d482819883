package transport

import "encoding/json"

// UpdateSettingsRequest carries raw JSON per key so numbers, strings and the
// collection group object can be sent as-is.
type UpdateSettingsRequest struct {
	Values map[string]json.RawMessage `json:"values" validate:"required,min=1,max=20,dive,keys,max=64,endkeys"`
}

// Strings flattens the request values: JSON strings are unquoted, anything
// else keeps its literal text.
func (r UpdateSettingsRequest) Strings() (map[string]string, error) {
	out := make(map[string]string, len(r.Values))
	for key, raw := range r.Values {
		if len(raw) > 0 && raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, err
			}
			out[key] = s
			continue
		}
		out[key] = string(raw)
	}
	return out, nil
}
