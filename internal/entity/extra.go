package entity

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds the JSON members of an object that its Go type does not declare,
// so keys the model or an operator adds are written back unchanged.
type Extra map[string]json.RawMessage

// decodeKeepingExtra decodes b into dst (a pointer to a struct) and returns
// every member dst has no field for.
func decodeKeepingExtra(b []byte, dst any) (Extra, error) {
	if err := json.Unmarshal(b, dst); err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return nil, err
	}
	known := jsonNames(reflect.TypeOf(dst).Elem())
	var extra Extra
	for k, v := range members {
		if known[strings.ToLower(k)] {
			continue
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = v
	}
	return extra, nil
}

// encodeWithExtra marshals src and adds the extra members it does not already write.
func encodeWithExtra(src any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(src)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := members[k]; !ok {
			members[k] = v
		}
	}
	return json.Marshal(members)
}

var jsonNamesCache sync.Map // reflect.Type -> map[string]bool

// jsonNames returns the lower-cased JSON member names t declares, matching how
// encoding/json folds case when decoding.
func jsonNames(t reflect.Type) map[string]bool {
	if cached, ok := jsonNamesCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	names := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			for k := range jsonNames(f.Type) {
				names[k] = true
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[strings.ToLower(name)] = true
	}
	jsonNamesCache.Store(t, names)
	return names
}
