package weatherapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const currentSchemaJSON = `{
  "type": "object",
  "required": ["current"],
  "properties": {
    "current": {
      "type": "object",
      "required": ["temp_f", "temp_c", "condition", "humidity", "wind_mph"],
      "properties": {
        "temp_f": {"type": "number"},
        "temp_c": {"type": "number"},
        "humidity": {"type": "number", "minimum": 0, "maximum": 100},
        "wind_mph": {"type": "number", "minimum": 0},
        "condition": {
          "type": "object",
          "required": ["text"],
          "properties": {
            "text": {"type": "string"},
            "code": {"type": "integer"}
          }
        }
      }
    }
  }
}`

const forecastSchemaJSON = `{
  "type": "object",
  "required": ["forecast"],
  "properties": {
    "forecast": {
      "type": "object",
      "required": ["forecastday"],
      "properties": {
        "forecastday": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["date", "day"],
            "properties": {
              "date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
              "day": {
                "type": "object",
                "required": ["avgtemp_f", "avgtemp_c", "condition", "avghumidity", "maxwind_mph"],
                "properties": {
                  "avgtemp_f": {"type": "number"},
                  "avgtemp_c": {"type": "number"},
                  "avghumidity": {"type": "number", "minimum": 0, "maximum": 100},
                  "maxwind_mph": {"type": "number", "minimum": 0},
                  "condition": {
                    "type": "object",
                    "required": ["text"],
                    "properties": {
                      "text": {"type": "string"},
                      "code": {"type": "integer"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	currentSchema  = mustSchema(currentSchemaJSON)
	forecastSchema = mustSchema(forecastSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("weatherapi: compile schema: %v", err))
	}
	return s
}

// checkShape validates a raw payload against schema and folds every
// violation into a single error.
func checkShape(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("load payload: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+desc.Description())
	}
	return fmt.Errorf("unexpected payload: %s", strings.Join(msgs, "; "))
}
