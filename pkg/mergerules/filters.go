package mergerules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/m-ullrich/XLT/pkg/requestdata"
)

// Field identifies the request field a pattern filter examines.
type Field string

// Request fields that pattern filters can examine. The values are the
// keys used in the merge-rule configuration.
const (
	FieldName        Field = "name"
	FieldTransaction Field = "transaction"
	FieldAgent       Field = "agent"
	FieldURL         Field = "url"
	FieldContentType Field = "contentType"
	FieldStatusCode  Field = "statusCode"
	FieldMethod      Field = "method"
)

// Type codes used in naming-template placeholders, one per field plus
// the runtime-range code.
const (
	TypeCodeName        = "n"
	TypeCodeTransaction = "t"
	TypeCodeAgent       = "a"
	TypeCodeURL         = "u"
	TypeCodeContentType = "c"
	TypeCodeStatusCode  = "s"
	TypeCodeMethod      = "m"
	TypeCodeRunTime     = "r"
)

type fieldAccessor struct {
	typeCode string
	text     func(*requestdata.Request) string
}

var fieldAccessors = map[Field]fieldAccessor{
	FieldName:        {TypeCodeName, func(r *requestdata.Request) string { return r.Name }},
	FieldTransaction: {TypeCodeTransaction, func(r *requestdata.Request) string { return r.TransactionName }},
	FieldAgent:       {TypeCodeAgent, func(r *requestdata.Request) string { return r.AgentName }},
	FieldURL:         {TypeCodeURL, func(r *requestdata.Request) string { return r.URL }},
	FieldContentType: {TypeCodeContentType, func(r *requestdata.Request) string { return r.ContentType }},
	FieldStatusCode:  {TypeCodeStatusCode, func(r *requestdata.Request) string { return strconv.Itoa(r.ResponseCode) }},
	FieldMethod:      {TypeCodeMethod, func(r *requestdata.Request) string { return r.Method }},
}

// ParseField validates a configuration field key.
func ParseField(key string) (Field, error) {
	f := Field(key)
	if _, ok := fieldAccessors[f]; !ok {
		return "", fmt.Errorf("unknown request field %q (known: %s)", key, strings.Join(fieldNames(), ", "))
	}
	return f, nil
}

func fieldNames() []string {
	names := make([]string, 0, len(fieldAccessors))
	for f := range fieldAccessors {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// fieldForTypeCode maps a placeholder type code back to its field.
func fieldForTypeCode(code string) (Field, bool) {
	for f, a := range fieldAccessors {
		if a.typeCode == code {
			return f, true
		}
	}
	return "", false
}

// RunTimeRanges buckets requests by their runtime. It applies to every
// request; its replacement text is the label of the bucket the
// request's runtime falls into, e.g. "100..500" or ">=1000" for the
// boundaries [100 500 1000].
type RunTimeRanges struct {
	boundaries []int64 // ascending, milliseconds
	labels     []string
}

// NewRunTimeRanges creates a runtime bucketing filter from ascending,
// positive millisecond boundaries.
func NewRunTimeRanges(boundaries []int64) (*RunTimeRanges, error) {
	if len(boundaries) == 0 {
		return nil, fmt.Errorf("runtime ranges need at least one boundary")
	}

	prev := int64(0)
	for _, b := range boundaries {
		if b <= prev {
			return nil, fmt.Errorf("runtime range boundaries must be positive and ascending, got %v", boundaries)
		}
		prev = b
	}

	// Labels are precomputed; bucketing happens per request.
	labels := make([]string, 0, len(boundaries)+1)
	low := int64(0)
	for _, b := range boundaries {
		labels = append(labels, fmt.Sprintf("%d..%d", low, b))
		low = b
	}
	labels = append(labels, fmt.Sprintf(">=%d", low))

	return &RunTimeRanges{boundaries: boundaries, labels: labels}, nil
}

// TypeCode implements Filter.
func (f *RunTimeRanges) TypeCode() string {
	return TypeCodeRunTime
}

// AppliesTo implements Filter. Runtime bucketing never rejects a
// request; it only contributes replacement text.
func (f *RunTimeRanges) AppliesTo(*requestdata.Request) (*MatchState, bool) {
	return nil, true
}

// ReplacementText implements Filter. The group index is ignored; the
// bucket label is the only text a runtime range produces.
func (f *RunTimeRanges) ReplacementText(req *requestdata.Request, _ int, _ *MatchState) (string, error) {
	return f.Bucket(req.RunTime.Milliseconds()), nil
}

// Bucket returns the label of the range the given runtime in
// milliseconds falls into.
func (f *RunTimeRanges) Bucket(runTimeMillis int64) string {
	for i, b := range f.boundaries {
		if runTimeMillis < b {
			return f.labels[i]
		}
	}
	return f.labels[len(f.labels)-1]
}
