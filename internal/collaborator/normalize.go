package collaborator

import (
	"encoding/json"
	"strconv"
	"strings"
)

// fields: объект ответа коллаборатора, ключи которого встречаются в разных регистрах.
type fields map[string]json.RawMessage

func decodeFields(raw []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// intField берёт первое присутствующее имя из списка. Числа в строках тоже принимаются.
func (f fields) intField(names ...string) (int, bool) {
	for _, name := range names {
		raw, ok := f[name]
		if !ok || string(raw) == "null" {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if v, err := strconv.ParseFloat(n.String(), 64); err == nil {
				return int(v), true
			}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func (f fields) stringField(names ...string) (string, bool) {
	for _, name := range names {
		raw, ok := f[name]
		if !ok || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
		return strings.Trim(string(raw), `"`), true
	}
	return "", false
}

func (f fields) floatField(names ...string) (float64, bool) {
	for _, name := range names {
		raw, ok := f[name]
		if !ok || string(raw) == "null" {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func (f fields) boolField(names ...string) (bool, bool) {
	for _, name := range names {
		raw, ok := f[name]
		if !ok {
			continue
		}
		var v bool
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, true
		}
	}
	return false, false
}
