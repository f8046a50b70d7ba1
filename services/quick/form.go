package quick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// EggsFormID identifies the eggs quick form and tags the logs it creates.
	EggsFormID = "eggs"

	// DefaultTextFormat is the text format applied to notes submitted without one.
	DefaultTextFormat = "default"

	harvestNameTemplate = "harvest_name.tmpl"
	assetsHelpTemplate  = "eggs_assets_help.tmpl"
	noProducersTemplate = "eggs_no_producers.tmpl"
)

// Definition describes a quick form to the clients listing them.
type Definition struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	HelpText    string   `json:"help_text"`
	Permissions []string `json:"permissions"`
}

// EggsDefinition describes the eggs harvest form.
var EggsDefinition = Definition{
	ID:          EggsFormID,
	Label:       "Eggs",
	Description: "Record an egg harvest.",
	HelpText:    "Use this form to record an egg harvest. A harvest log will be created with standard details filled in.",
	Permissions: []string{"create harvest log"},
}

// Renderer produces the form's text: labels, help and log names.
type Renderer interface {
	RenderLine(name string, data any) (string, error)
}

// Options selects which variant of the eggs form a deployment runs.
type Options struct {
	// CollectDate adds a required date field. Without it logs are stamped at
	// submission time by the sink.
	CollectDate bool
	// CollectNotes adds a rich text notes field.
	CollectNotes bool
	// ResolveLocations infers the log location from the selected assets.
	ResolveLocations bool
	// ResolveConcurrency bounds parallel location lookups; 0 means 8.
	ResolveConcurrency int
}

// DefaultOptions collects a date and notes and resolves locations.
func DefaultOptions() Options {
	return Options{
		CollectDate:      true,
		CollectNotes:     true,
		ResolveLocations: true,
	}
}

// RenderContext carries the request-scoped inputs of the form: the current
// time and the acting user's timezone.
type RenderContext struct {
	Now      time.Time
	Location *time.Location
}

func (rc RenderContext) normalize() RenderContext {
	if rc.Now.IsZero() {
		rc.Now = time.Now()
	}
	if rc.Location == nil {
		rc.Location = time.UTC
	}
	return rc
}

// EggsForm records an egg harvest as a harvest log.
type EggsForm struct {
	assets    AssetQuery
	locations LocationResolver
	sink      LogSink
	text      Renderer
	opts      Options
}

// NewEggsForm wires the form to its collaborators. locations may be nil when
// opts.ResolveLocations is off.
func NewEggsForm(assets AssetQuery, locations LocationResolver, sink LogSink, text Renderer, opts Options) (*EggsForm, error) {
	if assets == nil {
		return nil, errors.New("asset query is required")
	}
	if sink == nil {
		return nil, errors.New("log sink is required")
	}
	if text == nil {
		return nil, errors.New("renderer is required")
	}
	if opts.ResolveLocations && locations == nil {
		return nil, errors.New("location resolver is required when resolving locations")
	}
	return &EggsForm{
		assets:    assets,
		locations: locations,
		sink:      sink,
		text:      text,
		opts:      opts,
	}, nil
}

// Definition returns the form metadata.
func (f *EggsForm) Definition() Definition {
	return EggsDefinition
}

// Render builds the form schema. It always succeeds when the asset query
// does; having no egg producers yields explanatory text instead of a selector.
func (f *EggsForm) Render(ctx context.Context, rc RenderContext) (Schema, error) {
	rc = rc.normalize()

	schema := Schema{
		Form:     f.Definition(),
		Timezone: rc.Location.String(),
	}

	if f.opts.CollectDate {
		schema.Fields = append(schema.Fields, Field{
			Name:     "date",
			Type:     FieldDatetime,
			Title:    "Date",
			Required: true,
			Default:  rc.Now.In(rc.Location).Format(time.RFC3339),
		})
	}

	schema.Fields = append(schema.Fields, Field{
		Name:     "quantity",
		Type:     FieldNumber,
		Title:    "Quantity",
		Required: true,
		Min:      floatPtr(0),
		Step:     floatPtr(1),
	})

	producers, err := f.assets.FindEggProducers(ctx)
	if err != nil {
		return Schema{}, err
	}
	assetsField, err := f.assetsField(producers)
	if err != nil {
		return Schema{}, err
	}
	schema.Fields = append(schema.Fields, assetsField)

	if f.opts.CollectNotes {
		schema.Fields = append(schema.Fields, Field{
			Name:   "notes",
			Type:   FieldTextFormat,
			Title:  "Notes",
			Format: DefaultTextFormat,
		})
	}

	return schema, nil
}

func (f *EggsForm) assetsField(producers []AssetOption) (Field, error) {
	if len(producers) == 0 {
		markup, err := f.text.RenderLine(noProducersTemplate, nil)
		if err != nil {
			return Field{}, fmt.Errorf("render %s: %w", noProducersTemplate, err)
		}
		return Field{Name: "assets", Type: FieldMarkup, Markup: markup}, nil
	}

	help, err := f.text.RenderLine(assetsHelpTemplate, map[string]any{"Count": int64(len(producers))})
	if err != nil {
		return Field{}, fmt.Errorf("render %s: %w", assetsHelpTemplate, err)
	}

	field := Field{
		Name:        "assets",
		Type:        FieldCheckboxes,
		Title:       "Layer asset",
		Description: help,
		Options:     make([]Option, 0, len(producers)),
	}
	for _, p := range producers {
		field.Options = append(field.Options, Option{Value: p.ID, Label: p.Label})
	}
	if len(producers) == 1 {
		field.Default = []uuid.UUID{producers[0].ID}
	}
	return field, nil
}

// Submit validates v, assembles the harvest record and hands it to the sink
// exactly once. A *ValidationError means nothing was created. Errors from
// the collaborators are returned unmodified.
func (f *EggsForm) Submit(ctx context.Context, v Values, rc RenderContext) (Record, error) {
	rc = rc.normalize()

	var val validator

	var timestamp *time.Time
	if f.opts.CollectDate {
		switch {
		case v.Date == nil:
			val.add("date", "is required")
		default:
			t, err := v.Date.resolve(rc.Location)
			if err != nil {
				val.add("date", "%s", err)
			} else {
				timestamp = &t
			}
		}
	}

	quantity, msg := v.Quantity.wholeNonNegative()
	if msg != "" {
		val.add("quantity", "%s", msg)
	}

	assets, err := f.selectedAssets(ctx, v.Assets, &val)
	if err != nil {
		return Record{}, err
	}

	if err := val.err(); err != nil {
		return Record{}, err
	}

	locations := []uuid.UUID{}
	if f.opts.ResolveLocations && len(assets) > 0 {
		locations, err = resolveLocations(ctx, f.locations, assets, f.opts.ResolveConcurrency)
		if err != nil {
			return Record{}, err
		}
	}

	name, err := f.text.RenderLine(harvestNameTemplate, map[string]any{"Quantity": quantity})
	if err != nil {
		return Record{}, fmt.Errorf("render %s: %w", harvestNameTemplate, err)
	}

	rec := Record{
		Type:      LogTypeHarvest,
		Quick:     EggsFormID,
		Timestamp: timestamp,
		Name:      name,
		Assets:    assets,
		Quantity: []Quantity{{
			Measure: MeasureCount,
			Value:   float64(quantity),
			Units:   UnitsEggs,
		}},
		Locations: locations,
	}
	if f.opts.CollectNotes {
		rec.Notes = v.Notes.notes()
	}

	if err := f.sink.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// selectedAssets returns the checked asset ids, reporting any that is not
// one of the form's current options as an illegal choice.
func (f *EggsForm) selectedAssets(ctx context.Context, sel Selection, val *validator) ([]uuid.UUID, error) {
	checked := sel.Checked()
	if len(checked) == 0 {
		return []uuid.UUID{}, nil
	}

	producers, err := f.assets.FindEggProducers(ctx)
	if err != nil {
		return nil, err
	}
	eligible := make(map[uuid.UUID]struct{}, len(producers))
	for _, p := range producers {
		eligible[p.ID] = struct{}{}
	}

	ids := make([]uuid.UUID, 0, len(checked))
	for _, key := range checked {
		id, err := uuid.Parse(key)
		if err != nil {
			val.add("assets", "an illegal choice has been detected: %q", key)
			continue
		}
		if _, ok := eligible[id]; !ok {
			val.add("assets", "an illegal choice has been detected: %s", id)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
