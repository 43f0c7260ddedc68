package smells

import (
	"regexp"
	"sort"
	"strings"
)

// FileSmellEntry is one file in the code-smell ranking.
type FileSmellEntry struct {
	FileName       string    `json:"file_name" yaml:"file_name"`
	FullPath       string    `json:"full_path" yaml:"full_path"`
	CodeSmellCount int       `json:"code_smell_count" yaml:"code_smell_count"`
	SmellBreakdown Breakdown `json:"smell_breakdown" yaml:"smell_breakdown"`
}

var (
	driveLetterPattern  = regexp.MustCompile(`^[A-Za-z]:`)
	relativePathPattern = regexp.MustCompile(`^\.{1,2}[\\/]`)
)

// IsFilePathKey reports whether a top-level payload key looks like a file
// path. This is a heuristic: a separator, an extension dot, a drive letter or
// a relative prefix is enough.
func IsFilePathKey(key string) bool {
	if key == "" {
		return false
	}
	if strings.ContainsAny(key, `/\.`) {
		return true
	}
	return driveLetterPattern.MatchString(key) || relativePathPattern.MatchString(key)
}

// BaseName returns the last path segment of key, splitting on backslash and
// then forward slash.
func BaseName(key string) string {
	name := key
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// FilesByCodeSmellCount ranks files by the number of findings across all
// payloads. Files are merged by base name, files without findings are
// dropped, and ties keep first-seen order. Breakdowns only list categories
// with findings.
func FilesByCodeSmellCount(payloads []Payload) []FileSmellEntry {
	byName := make(map[string]*FileSmellEntry)
	var order []string

	for _, p := range payloads {
		keys := make([]string, 0, len(p))
		for key := range p {
			keys = append(keys, key)
		}
		// map iteration is random; sort so repeated calls agree
		sort.Strings(keys)

		for _, key := range keys {
			if IsReservedKey(key) || IsCategory(key) || !IsFilePathKey(key) {
				continue
			}

			counts := NewBreakdown()
			countFileEntry(p[key], counts)

			name := BaseName(key)
			entry, ok := byName[name]
			if !ok {
				entry = &FileSmellEntry{
					FileName:       name,
					FullPath:       key,
					SmellBreakdown: Breakdown{},
				}
				byName[name] = entry
				order = append(order, name)
			}
			for c, n := range counts {
				if n == 0 {
					continue
				}
				entry.SmellBreakdown[c] += n
				entry.CodeSmellCount += n
			}
		}
	}

	result := make([]FileSmellEntry, 0, len(order))
	for _, name := range order {
		entry := byName[name]
		if entry.CodeSmellCount == 0 {
			continue
		}
		result = append(result, *entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CodeSmellCount > result[j].CodeSmellCount
	})
	return result
}
