package youtrack

import (
	"encoding/json"

	"github.com/danielolaszy/prlink/pkg/models"
)

type commentRequest struct {
	Text         string `json:"text"`
	UsesMarkdown bool   `json:"usesMarkdown"`
}

type fieldUpdateRequest struct {
	Value models.FieldValue `json:"value"`
}

// rawField is a custom field as returned by the API. Value is kept raw
// because its shape depends on the field type: an object for enum and state
// fields, an array for multi-value fields, a scalar or null otherwise.
type rawField struct {
	Name  string          `json:"name"`
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

func (f rawField) toTicketField() models.TicketField {
	field := models.TicketField{Name: f.Name, ID: f.ID}

	var value struct {
		Name *string `json:"name"`
	}
	if len(f.Value) > 0 && f.Value[0] == '{' {
		if err := json.Unmarshal(f.Value, &value); err == nil && value.Name != nil {
			field.Value = &models.FieldValue{Name: *value.Name}
		}
	}
	return field
}
