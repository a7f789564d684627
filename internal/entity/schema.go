package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/skydesk/constants"
)

// BuildRecordJSONSchema returns the JSON Schema (draft 2020-12 subset) a record of type t must satisfy on write.
// Unknown properties are allowed so confirmation forms can carry extra fields.
func BuildRecordJSONSchema(t constants.RecordType) map[string]any {
	switch t {
	case constants.Enquiry:
		return map[string]any{
			"type":     "object",
			"required": []string{"record_type", "submitted_at", "name", "email", "phone"},
			"properties": map[string]any{
				"record_type":  map[string]any{"const": string(constants.Enquiry)},
				"submitted_at": map[string]any{"type": "string", "minLength": 1},
				"name":         nonEmptyString(),
				"email":        nonEmptyString(),
				"phone":        nonEmptyString(),
				"destination":  map[string]any{"type": "string"},
				"travellers": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"adults":   countProp(),
						"children": countProp(),
						"infants":  countProp(),
					},
				},
				"schedule": map[string]any{"type": "object"},
				"notes":    map[string]any{"type": "string"},
			},
		}
	case constants.Quote, constants.Booking:
		props := map[string]any{
			"record_type": map[string]any{"const": string(t)},
			"lead_id":     map[string]any{"type": "string", "pattern": `^\d{7}$`},
			"issued_at":   map[string]any{"type": "string"},
			"client": map[string]any{
				"type":       "object",
				"properties": map[string]any{"name": map[string]any{"type": "string"}},
			},
			"other_pax":     arrayOf(map[string]any{"type": "object", "properties": map[string]any{"name": map[string]any{"type": "string"}}}),
			"trip":          map[string]any{"type": "object", "properties": map[string]any{"dates": map[string]any{"type": "object"}}},
			"accommodation": arrayOf(map[string]any{"type": "object"}),
			"flights":       arrayOf(map[string]any{"type": "object"}),
			"services":      arrayOf(map[string]any{"type": "object"}),
			"totals": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"grand_total":       moneyProp(),
					"balance_remaining": moneyProp(),
				},
			},
			"notes":           map[string]any{"type": "string"},
			"assistant_notes": map[string]any{"type": "string"},
			"communications":  arrayOf(map[string]any{"type": "object", "required": []string{"timestamp", "direction"}}),
			"todos":           arrayOf(map[string]any{"type": "object", "required": []string{"id", "text"}}),
		}
		if t == constants.Booking {
			props["payments"] = map[string]any{
				"type": "object",
				"properties": map[string]any{
					"transactions": arrayOf(map[string]any{
						"type":       "object",
						"properties": map[string]any{"amount": map[string]any{"type": "number"}},
					}),
				},
			}
			props["status"] = map[string]any{
				"type": "object",
				"properties": map[string]any{
					"stage":            map[string]any{"type": "string"},
					"documents_issued": map[string]any{"type": "boolean"},
					"travel_completed": map[string]any{"type": "boolean"},
				},
			}
		}
		return map[string]any{
			"type":       "object",
			"required":   []string{"record_type", "lead_id"},
			"properties": props,
		}
	}
	return map[string]any{"type": "object"}
}

func nonEmptyString() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func countProp() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func moneyProp() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount":   map[string]any{"type": "number", "minimum": 0},
			"currency": map[string]any{"type": "string", "pattern": `^([A-Z]{3})?$`},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
