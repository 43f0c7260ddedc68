// Package smells derives code-smell metrics from detection payloads.
//
// A detection payload arrives in one of two encodings. Category-keyed payloads
// carry the smell categories as top-level keys:
//
//	{"magic_numbers": {"success": true, "data": {"magic_numbers": [...]}}}
//
// File-keyed payloads nest the same category objects under a file path and a
// language tag:
//
//	{"src/app.py": {"py": {"dead_code": {"success": true, "data": {"dead_code": [...]}}}}}
//
// Everything in this package is pure and never fails on malformed input:
// fields with an unexpected shape count as zero.
package smells

// Category is a code-smell category name as it appears in detection payloads.
type Category string

const (
	MagicNumbers           Category = "magic_numbers"
	DuplicatedCode         Category = "duplicated_code"
	UnusedVariables        Category = "unused_variables"
	NamingConvention       Category = "naming_convention"
	DeadCode               Category = "dead_code"
	UnreachableCode        Category = "unreachable_code"
	OverlyComplexCondition Category = "overly_complex_condition"
	GlobalConflict         Category = "global_conflict"
	LongParameterList      Category = "long_parameter_list"
	TemporaryField         Category = "temporary_field"
)

// Categories lists every known category in reporting order.
var Categories = []Category{
	MagicNumbers,
	DuplicatedCode,
	UnusedVariables,
	NamingConvention,
	DeadCode,
	UnreachableCode,
	OverlyComplexCondition,
	GlobalConflict,
	LongParameterList,
	TemporaryField,
}

// listFields maps each category to the field under "data" that holds its findings.
var listFields = map[Category]string{
	MagicNumbers:           "magic_numbers",
	DuplicatedCode:         "duplicate_code",
	UnusedVariables:        "unused_variables",
	NamingConvention:       "inconsistent_naming",
	DeadCode:               "dead_code",
	UnreachableCode:        "unreachable_code",
	OverlyComplexCondition: "overly_complex_condition",
	GlobalConflict:         "global_conflict",
	LongParameterList:      "long_parameter_list",
	TemporaryField:         "temporary_field",
}

// ListField returns the designated list field for a category.
func ListField(c Category) (string, bool) {
	f, ok := listFields[c]
	return f, ok
}

// IsCategory reports whether name is one of the known categories.
func IsCategory(name string) bool {
	_, ok := listFields[Category(name)]
	return ok
}

// reservedKeys are storage metadata fields that can sit next to file entries.
var reservedKeys = map[string]struct{}{
	"_id":        {},
	"__v":        {},
	"id":         {},
	"createdAt":  {},
	"updatedAt":  {},
	"created_at": {},
	"updated_at": {},
}

// IsReservedKey reports whether key is metadata rather than a file entry.
func IsReservedKey(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}

// Breakdown holds a count per category.
type Breakdown map[Category]int

// NewBreakdown returns a breakdown with every category present at zero.
func NewBreakdown() Breakdown {
	b := make(Breakdown, len(Categories))
	for _, c := range Categories {
		b[c] = 0
	}
	return b
}

// Total sums all category counts.
func (b Breakdown) Total() int {
	total := 0
	for _, n := range b {
		total += n
	}
	return total
}

// Add accumulates other into b.
func (b Breakdown) Add(other Breakdown) {
	for c, n := range other {
		b[c] += n
	}
}

// Clone returns an independent copy.
func (b Breakdown) Clone() Breakdown {
	out := make(Breakdown, len(b))
	for c, n := range b {
		out[c] = n
	}
	return out
}
