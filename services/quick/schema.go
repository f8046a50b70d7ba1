package quick

import "github.com/google/uuid"

// FieldType names the widget a field renders as.
type FieldType string

const (
	FieldDatetime   FieldType = "datetime"
	FieldNumber     FieldType = "number"
	FieldCheckboxes FieldType = "checkboxes"
	FieldMarkup     FieldType = "markup"
	FieldTextFormat FieldType = "text_format"
)

// Field is one entry of a rendered form.
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Min         *float64  `json:"min,omitempty"`
	Step        *float64  `json:"step,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Default     any       `json:"default,omitempty"`
	Markup      string    `json:"markup,omitempty"`
	Format      string    `json:"format,omitempty"`
}

// Option is a selectable checkbox value.
type Option struct {
	Value uuid.UUID `json:"value"`
	Label string    `json:"label"`
}

// Schema is a rendered quick form.
type Schema struct {
	Form     Definition `json:"form"`
	Timezone string     `json:"timezone,omitempty"`
	Fields   []Field    `json:"fields"`
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func floatPtr(v float64) *float64 { return &v }
