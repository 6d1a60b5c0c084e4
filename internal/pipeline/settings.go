package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/scandocx/internal/common"
	"github.com/joseph-ayodele/scandocx/internal/repository"
)

// settingsSchema guards the free-form settings document handed to Start.
// Unknown top-level keys are rejected; forward-compatible additions belong
// under "extra".
const settingsSchema = `{
  "type": "object",
  "properties": {
    "dpi": {"type": "integer", "minimum": 72, "maximum": 600},
    "page_format": {"enum": ["jpeg", "jpg", "png"]},
    "output_format": {"enum": ["docx", "html"]},
    "title": {"type": "string", "maxLength": 200},
    "extra": {"type": "object"}
  },
  "additionalProperties": false
}`

var compiledSettingsSchema = mustCompileSchema(settingsSchema)

func mustCompileSchema(src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("settings.json", strings.NewReader(src)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("settings.json")
}

// ParseSettings validates and decodes a raw settings document. A nil or
// empty document yields all-default settings.
func ParseSettings(raw []byte) (repository.JobSettings, error) {
	var settings repository.JobSettings
	if len(bytes.TrimSpace(raw)) == 0 {
		return settings, nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return settings, common.NewValidationError(common.CodeValidation, "settings is not valid JSON: %v", err)
	}
	if err := compiledSettingsSchema.Validate(v); err != nil {
		return settings, common.NewValidationError(common.CodeValidation, "settings rejected: %v", err)
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return settings, common.NewValidationError(common.CodeValidation, "settings decode: %v", err)
	}
	return settings, nil
}
