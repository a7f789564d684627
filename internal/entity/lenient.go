package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// model output formats money like "£2,450.00" or "2 450"; keep digits, sign and the decimal point
var reNonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// Number is a JSON number that also accepts numeric strings such as "£2,450.00".
// A string with no digits in it ("", "TBC") means the value is unknown: it
// decodes as NaN and DecodePayloadAs clears the field.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("number: expected number or numeric string, got %s", string(b))
	}
	s = reNonNumeric.ReplaceAllString(strings.TrimSpace(s), "")
	if strings.Trim(s, ".-") == "" {
		*n = Number(math.NaN())
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("number: %q is not numeric", s)
	}
	*n = Number(f)
	return nil
}

// NumberPtr is a convenience for building payloads in code.
func NumberPtr(f float64) *Number {
	n := Number(f)
	return &n
}

// Known reports whether n holds a value rather than the unknown marker.
func (n Number) Known() bool {
	return !math.IsNaN(float64(n))
}

var numberType = reflect.TypeOf(Number(0))

// clearUnknownNumbers walks a decoded payload, turning unknown *Number fields
// into nil and unknown plain Number fields into zero.
func clearUnknownNumbers(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		if v.Type().Elem() == numberType {
			if !v.Elem().Interface().(Number).Known() && v.CanSet() {
				v.Set(reflect.Zero(v.Type()))
			}
			return
		}
		clearUnknownNumbers(v.Elem())
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).IsExported() {
				clearUnknownNumbers(v.Field(i))
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			clearUnknownNumbers(v.Index(i))
		}
	case reflect.Float64:
		if v.Type() == numberType && v.CanSet() && math.IsNaN(v.Float()) {
			v.SetFloat(0)
		}
	}
}

// Text is a string that also accepts a JSON number or boolean. Models often
// return ids and references such as lead_id as bare numbers.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*t = Text(strconv.FormatBool(v))
		return nil
	}
	return fmt.Errorf("text: expected string or number, got %s", string(b))
}

func (t Text) String() string { return string(t) }

// StringList accepts either a JSON array of strings or a single comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("string list: expected array or string, got %s", string(b))
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}

// Normalize tidies operator- and model-supplied values before validation:
// ids and names are trimmed and currency codes upper-cased.
func Normalize(p Payload) {
	switch v := p.(type) {
	case *Enquiry:
		v.Name = strings.TrimSpace(v.Name)
		v.Email = strings.TrimSpace(v.Email)
		v.Phone = strings.TrimSpace(v.Phone)
		v.Destination = strings.TrimSpace(v.Destination)
	case *Quote:
		normalizeItinerary(&v.Itinerary)
		normalizeMoney(&v.Totals.GrandTotal)
	case *Booking:
		normalizeItinerary(&v.Itinerary)
		normalizeMoney(&v.Totals.GrandTotal)
		normalizeMoney(v.Totals.BalanceRemaining)
		if v.Payments != nil {
			for i := range v.Payments.Transactions {
				v.Payments.Transactions[i].Currency = strings.ToUpper(strings.TrimSpace(v.Payments.Transactions[i].Currency))
			}
		}
	}
}

func normalizeItinerary(it *Itinerary) {
	it.LeadID = Text(strings.TrimSpace(string(it.LeadID)))
	it.Client.Name = strings.TrimSpace(it.Client.Name)
}

func normalizeMoney(m *Money) {
	if m == nil {
		return
	}
	m.Currency = strings.ToUpper(strings.TrimSpace(m.Currency))
}
