package debug

import (
	"fmt"
	"strings"

	"github.com/voitta-ai/jetbrains-voitta/internal/backend"
)

// Formatter renders foreign-process values as safe, truncated strings.
// Formatting never fails: every accessor error and panic is absorbed into an
// inline marker, because one unreadable value must never abort the batch
// that contains it.
type Formatter struct {
	// MaxFields caps how many declared fields an expanded object shows.
	MaxFields int
	// MaxValueLength caps the rendered length of any single value.
	MaxValueLength int
}

// NewFormatter returns a formatter with the given caps, substituting
// defaults for non-positive values.
func NewFormatter(maxFields, maxValueLength int) *Formatter {
	if maxFields <= 0 {
		maxFields = 10
	}
	if maxValueLength <= 0 {
		maxValueLength = 200
	}
	return &Formatter{MaxFields: maxFields, MaxValueLength: maxValueLength}
}

// Format renders a value. For composite values, expand=false or an exhausted
// depth budget collapses the value to an opaque "TypeName@id" reference
// token; otherwise up to MaxFields declared fields are rendered recursively
// at remainingDepth-1.
func (f *Formatter) Format(v backend.Value, expand bool, remainingDepth int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = f.degrade(v)
		}
	}()

	if v == nil {
		return "null"
	}

	switch v.Kind() {
	case backend.KindNull:
		return "null"
	case backend.KindString:
		return f.formatString(v)
	case backend.KindPrimitive:
		text, err := v.Text()
		if err != nil {
			return f.degrade(v)
		}
		return f.clip(text)
	default:
		return f.formatObject(v, expand, remainingDepth)
	}
}

// formatString renders a string-like value quoted and length-capped. Strings
// are not depth-limited; only total length applies.
func (f *Formatter) formatString(v backend.Value) string {
	text, err := v.Text()
	if err != nil {
		return f.degrade(v)
	}
	// Some backends deliver strings pre-quoted; normalize to one set of quotes.
	text = strings.TrimPrefix(text, `"`)
	text = strings.TrimSuffix(text, `"`)
	return `"` + f.clip(text) + `"`
}

func (f *Formatter) formatObject(v backend.Value, expand bool, remainingDepth int) string {
	if !expand || remainingDepth <= 0 {
		return f.referenceToken(v)
	}

	fields, err := v.Fields()
	if err != nil {
		// The object may have become invalid mid-read; fall back to its own
		// rendering rather than losing the row.
		return f.degrade(v)
	}

	typeName := f.typeNameOf(v)

	var sb strings.Builder
	sb.WriteString(typeName)
	sb.WriteString("{")
	shown := 0
	for _, field := range fields {
		if shown >= f.MaxFields {
			sb.WriteString(", ...")
			break
		}
		if shown > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.Name())
		sb.WriteString("=")
		sb.WriteString(f.fieldValue(field, remainingDepth-1))
		shown++
	}
	sb.WriteString("}")
	return sb.String()
}

// fieldValue formats one field, catching per-field panics so one bad field
// cannot abort the whole object's rendering.
func (f *Formatter) fieldValue(field backend.Value, remainingDepth int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("<error: %v>", r)
		}
	}()
	return f.Format(field, true, remainingDepth)
}

// referenceToken renders an opaque "TypeName@id" handle for a collapsed
// object.
func (f *Formatter) referenceToken(v backend.Value) string {
	typeName := f.typeNameOf(v)
	id, err := v.ObjectID()
	if err != nil {
		return f.degrade(v)
	}
	return fmt.Sprintf("%s@%d", typeName, id)
}

func (f *Formatter) typeNameOf(v backend.Value) string {
	typeName, err := v.TypeName()
	if err != nil || typeName == "" {
		return "Object"
	}
	return typeName
}

// degrade is the total-failure path: prefer the runtime's own toString, and
// only when even that is unreadable emit the generic error token.
func (f *Formatter) degrade(v backend.Value) string {
	if v == nil {
		return "<error>"
	}
	if text, err := v.Text(); err == nil && text != "" {
		return f.clip(text)
	}
	return "<error>"
}

// clip truncates text to MaxValueLength, appending an ellipsis marker.
func (f *Formatter) clip(text string) string {
	if len(text) <= f.MaxValueLength {
		return text
	}
	return text[:f.MaxValueLength] + "..."
}
