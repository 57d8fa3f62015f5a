package panel

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"comptes-client/internal/domain"
)

var (
	ErrDialogClosed   = errors.New("dialog is not open")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
)

type Kind int

const (
	Numeric Kind = iota
	Text
	Enum
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case Enum:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

type FieldSpec struct {
	Name    string
	Label   string
	Kind    Kind
	Choices []string
	Default string
}

// Schema describes the fields of a create dialog in display order.
// DateField, when set, is the payload key stamped with the submission
// date; any entered value under that key is overwritten.
type Schema struct {
	Title     string
	Fields    []FieldSpec
	DateField string
}

func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (s Schema) defaults() map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Name] = f.Default
	}
	return values
}

type DialogState int

const (
	Closed DialogState = iota
	Open
	Submitting
)

func (s DialogState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("DialogState(%d)", int(s))
	}
}

// Payload is the mutation input built from a dialog. Numeric fields hold a
// float64, or nil when the entered text has no numeric prefix.
type Payload map[string]any

// Dialog is the state of a create form:
//
//	closed -> open -> submitting -> closed
//	                  submitting -> open (error kept, values intact)
//	          open -> closed (cancel)
type Dialog struct {
	schema Schema
	state  DialogState
	values map[string]string
	err    error
}

func NewDialog(schema Schema) *Dialog {
	return &Dialog{
		schema: schema,
		values: schema.defaults(),
	}
}

func (d *Dialog) Schema() Schema     { return d.schema }
func (d *Dialog) State() DialogState { return d.state }

// Err is the error of the last failed submission, cleared when the dialog
// is reopened or submitted again.
func (d *Dialog) Err() error { return d.err }

// Open seeds the form from defaults. Opening an already open dialog keeps
// its current values.
func (d *Dialog) Open() {
	if d.state != Closed {
		return
	}
	d.values = d.schema.defaults()
	d.err = nil
	d.state = Open
}

func (d *Dialog) Set(name, value string) error {
	switch d.state {
	case Closed:
		return ErrDialogClosed
	case Submitting:
		return ErrSubmitInFlight
	}
	if _, ok := d.schema.Field(name); !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	d.values[name] = value
	return nil
}

func (d *Dialog) Value(name string) string {
	return d.values[name]
}

func (d *Dialog) Values() map[string]string {
	values := make(map[string]string, len(d.values))
	for k, v := range d.values {
		values[k] = v
	}
	return values
}

// Submit builds the payload from the entered values and moves the dialog
// to submitting. The caller runs the mutation and reports back with Finish.
// No field is required: empty or non-numeric input is submitted as is.
func (d *Dialog) Submit(now time.Time) (Payload, error) {
	switch d.state {
	case Closed:
		return nil, ErrDialogClosed
	case Submitting:
		return nil, ErrSubmitInFlight
	}

	payload := make(Payload, len(d.schema.Fields)+1)
	for _, f := range d.schema.Fields {
		value := d.values[f.Name]
		if f.Kind == Numeric {
			if n, ok := ParseFloat(value); ok {
				payload[f.Name] = n
			} else {
				payload[f.Name] = nil
			}
			continue
		}
		payload[f.Name] = value
	}
	if d.schema.DateField != "" {
		payload[d.schema.DateField] = domain.FormatDate(now)
	}

	d.err = nil
	d.state = Submitting
	return payload, nil
}

// Finish closes and resets the dialog after a successful mutation, or
// reopens it with the entered values when the mutation failed.
func (d *Dialog) Finish(err error) {
	if d.state != Submitting {
		return
	}
	if err != nil {
		d.err = err
		d.state = Open
		return
	}
	d.reset()
}

// Cancel discards the entered values. A submission in flight cannot be
// cancelled.
func (d *Dialog) Cancel() {
	if d.state != Open {
		return
	}
	d.reset()
}

func (d *Dialog) reset() {
	d.values = d.schema.defaults()
	d.err = nil
	d.state = Closed
}

var floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseFloat reads the longest numeric prefix of s after leading
// whitespace, so "12.5abc" is 12.5 and "abc" is not a number.
func ParseFloat(s string) (float64, bool) {
	prefix := floatPrefix.FindString(strings.TrimLeft(s, " \t\n\r"))
	if prefix == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
