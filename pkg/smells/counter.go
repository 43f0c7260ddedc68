package smells

import (
	"encoding/json"
)

// Payload is a decoded detection payload.
type Payload map[string]any

// Shape identifies which encoding a payload uses.
type Shape int

const (
	// ShapeEmpty is a payload with nothing to count.
	ShapeEmpty Shape = iota
	// ShapeCategoryKeyed has smell categories as top-level keys.
	ShapeCategoryKeyed
	// ShapeFileKeyed maps file path -> language tag -> categories.
	ShapeFileKeyed
)

func (s Shape) String() string {
	switch s {
	case ShapeCategoryKeyed:
		return "category_keyed"
	case ShapeFileKeyed:
		return "file_keyed"
	default:
		return "empty"
	}
}

// Result is the outcome of counting one or more payloads.
type Result struct {
	Total     int       `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

// Decode parses raw JSON into a Payload. Anything that is not a JSON object
// decodes to an empty payload.
func Decode(raw []byte) Payload {
	if len(raw) == 0 {
		return Payload{}
	}
	var p map[string]any
	if err := json.Unmarshal(raw, &p); err != nil || p == nil {
		return Payload{}
	}
	return Payload(p)
}

// DetectShape decides how a payload is encoded. A payload with any known
// category as a direct key is category-keyed; any other non-empty payload is
// treated as file-keyed.
func DetectShape(p Payload) Shape {
	if len(p) == 0 {
		return ShapeEmpty
	}
	for _, c := range Categories {
		if _, ok := p[string(c)]; ok {
			return ShapeCategoryKeyed
		}
	}
	return ShapeFileKeyed
}

// Count walks a payload in either encoding and returns the total number of
// findings plus the per-category breakdown. The breakdown always contains
// every category.
func Count(p Payload) Result {
	b := NewBreakdown()
	switch DetectShape(p) {
	case ShapeCategoryKeyed:
		countCategories(p, b)
	case ShapeFileKeyed:
		for key, entry := range p {
			if IsReservedKey(key) {
				continue
			}
			countFileEntry(entry, b)
		}
	}
	return Result{Total: b.Total(), Breakdown: b}
}

// CountMany sums Count over several payloads.
func CountMany(payloads []Payload) Result {
	b := NewBreakdown()
	for _, p := range payloads {
		b.Add(Count(p).Breakdown)
	}
	return Result{Total: b.Total(), Breakdown: b}
}

// CountJSON decodes and counts a raw payload.
func CountJSON(raw []byte) Result {
	return Count(Decode(raw))
}

// countFileEntry counts every language section of a single file entry.
func countFileEntry(entry any, into Breakdown) {
	langs, ok := entry.(map[string]any)
	if !ok {
		return
	}
	for _, section := range langs {
		obj, ok := section.(map[string]any)
		if !ok {
			continue
		}
		countCategories(obj, into)
	}
}

// countCategories counts every known category present in obj.
func countCategories(obj map[string]any, into Breakdown) {
	for _, c := range Categories {
		if n := countCategory(c, obj[string(c)]); n > 0 {
			into[c] += n
		}
	}
}

// countCategory counts one category entry. The entry must report success and
// carry its designated list under "data"; anything else counts as zero.
func countCategory(c Category, raw any) int {
	entry, ok := raw.(map[string]any)
	if !ok {
		return 0
	}
	if success, _ := entry["success"].(bool); !success {
		return 0
	}
	data, ok := entry["data"].(map[string]any)
	if !ok {
		return 0
	}
	list, ok := data[listFields[c]].([]any)
	if !ok {
		return 0
	}

	if c != NamingConvention {
		return len(list)
	}

	// naming issues are grouped by convention; each group lists its offending vars
	n := 0
	for _, group := range list {
		g, ok := group.(map[string]any)
		if !ok {
			continue
		}
		if vars, ok := g["vars"].([]any); ok {
			n += len(vars)
		}
	}
	return n
}
