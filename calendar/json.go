package calendar

import (
	json "github.com/goccy/go-json"
)

func unmarshalDateKeys(data []byte, out *[]DateKey) error {
	return json.Unmarshal(data, out)
}
