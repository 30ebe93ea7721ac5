package mergerules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m-ullrich/XLT/pkg/requestdata"
)

// Rule merges requests whose fields satisfy all of its filters under a
// new name built from the rule's naming template.
//
// The template is a literal string with placeholders of the form {x}
// or {x:g}, where x is a filter type code and g a capturing-group
// index of that filter's pattern. {u:1} inserts group 1 of the URL
// pattern's match; {n} inserts the whole request name. A placeholder
// whose code has no configured filter in the rule resolves to the raw
// field text.
type Rule struct {
	newName     string
	segments    []segment
	filters     []Filter
	byCode      map[string]Filter
	stopOnMatch bool
}

// A segment is either a literal run of the template or one
// placeholder.
type segment struct {
	literal string
	code    string // placeholder type code, "" for literals
	group   int    // capturing group, -1 = whole field text
}

// NewRule creates a rule from a naming template and its filters.
// stopOnMatch stops rule processing for a request once this rule
// matched it; otherwise later rules see the renamed request.
func NewRule(newName string, filters []Filter, stopOnMatch bool) (*Rule, error) {
	r := &Rule{
		newName:     newName,
		filters:     filters,
		byCode:      make(map[string]Filter, len(filters)),
		stopOnMatch: stopOnMatch,
	}

	for _, f := range filters {
		if _, dup := r.byCode[f.TypeCode()]; dup {
			return nil, fmt.Errorf("duplicate filter type code %q", f.TypeCode())
		}
		r.byCode[f.TypeCode()] = f
	}

	segments, err := parseTemplate(newName)
	if err != nil {
		return nil, fmt.Errorf("parsing new name %q: %w", newName, err)
	}
	r.segments = segments

	// A bare placeholder may reference a field the rule has no pattern
	// for; it gets an implicit match-everything filter and resolves to
	// the raw field text. A placeholder with an explicit capturing
	// group needs a configured filter for that field, and {r} needs
	// configured ranges: neither can produce text out of thin air, so
	// both are construction errors.
	for _, seg := range r.segments {
		if seg.code == "" {
			continue
		}
		if _, ok := r.byCode[seg.code]; ok {
			continue
		}
		field, ok := fieldForTypeCode(seg.code)
		if !ok {
			return nil, fmt.Errorf("new name %q references {%s} but the rule has no runtime ranges",
				newName, seg.code)
		}
		if seg.group >= 0 {
			return nil, fmt.Errorf("new name %q extracts group %d of {%s} but the rule has no %s pattern",
				newName, seg.group, seg.code, field)
		}
		f, err := NewPatternFilter(field, "", false, 0, SharedAutomatons())
		if err != nil {
			return nil, err
		}
		r.filters = append(r.filters, f)
		r.byCode[seg.code] = f
	}

	return r, nil
}

// NewName returns the rule's naming template.
func (r *Rule) NewName() string {
	return r.newName
}

// StopOnMatch reports whether a match on this rule ends rule
// processing for the request.
func (r *Rule) StopOnMatch() bool {
	return r.stopOnMatch
}

// Filters returns the rule's filters, including implicit ones created
// for template placeholders.
func (r *Rule) Filters() []Filter {
	return r.filters
}

// Apply classifies req against the rule. When every filter applies it
// returns the merged name and true. A *CaptureGroupError from
// placeholder substitution is returned to the caller, which skips the
// record; it does not abort the run.
func (r *Rule) Apply(req *requestdata.Request) (string, bool, error) {
	var states map[string]*MatchState

	for _, f := range r.filters {
		state, ok := f.AppliesTo(req)
		if !ok {
			return "", false, nil
		}
		if state != nil {
			if states == nil {
				states = make(map[string]*MatchState, len(r.filters))
			}
			states[f.TypeCode()] = state
		}
	}

	var sb strings.Builder
	for _, seg := range r.segments {
		if seg.code == "" {
			sb.WriteString(seg.literal)
			continue
		}
		text, err := r.byCode[seg.code].ReplacementText(req, seg.group, states[seg.code])
		if err != nil {
			return "", false, err
		}
		sb.WriteString(text)
	}

	return sb.String(), true, nil
}

// parseTemplate splits a naming template into literal and placeholder
// segments. "{{" and "}}" escape literal braces.
func parseTemplate(tmpl string) ([]segment, error) {
	var segments []segment
	var literal strings.Builder

	for i := 0; i < len(tmpl); {
		c := tmpl[i]

		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			literal.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			literal.WriteByte('}')
			i += 2
		case c == '}':
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		case c == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			seg, err := parsePlaceholder(tmpl[i+1 : i+end])
			if err != nil {
				return nil, err
			}
			if literal.Len() > 0 {
				segments = append(segments, segment{literal: literal.String()})
				literal.Reset()
			}
			segments = append(segments, seg)
			i += end + 1
		default:
			literal.WriteByte(c)
			i++
		}
	}

	if literal.Len() > 0 {
		segments = append(segments, segment{literal: literal.String()})
	}

	return segments, nil
}

func parsePlaceholder(body string) (segment, error) {
	code, groupPart, hasGroup := strings.Cut(body, ":")

	if !isTypeCode(code) {
		return segment{}, fmt.Errorf("unknown placeholder {%s}", body)
	}

	group := -1
	if hasGroup {
		g, err := strconv.Atoi(groupPart)
		if err != nil || g < 0 {
			return segment{}, fmt.Errorf("invalid capturing group in placeholder {%s}", body)
		}
		group = g
	}

	return segment{code: code, group: group}, nil
}

func isTypeCode(code string) bool {
	if code == TypeCodeRunTime {
		return true
	}
	_, ok := fieldForTypeCode(code)
	return ok
}
