package smells

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileEntry(lang string, categories map[string]any) map[string]any {
	return map[string]any{lang: categories}
}

func TestIsFilePathKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{key: "src/a.py", want: true},
		{key: `src\a.py`, want: true},
		{key: "main.go", want: true},
		{key: "C:", want: true},
		{key: "./Makefile", want: true},
		{key: "../Makefile", want: true},
		{key: "Makefile", want: false},
		{key: "_id", want: false},
		{key: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFilePathKey(tt.key))
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "a.py", BaseName("src/a.py"))
	assert.Equal(t, "b.js", BaseName(`C:\proj\web\b.js`))
	assert.Equal(t, "c.ts", BaseName(`C:\proj/mixed\dir/c.ts`))
	assert.Equal(t, "plain.py", BaseName("plain.py"))
}

func TestFilesByCodeSmellCount_SingleFile(t *testing.T) {
	p := Decode([]byte(`{"src/a.py":{"py":{"dead_code":{"success":true,"data":{"dead_code":[1]}}}}}`))

	files := FilesByCodeSmellCount([]Payload{p})

	require.Len(t, files, 1)
	assert.Equal(t, "a.py", files[0].FileName)
	assert.Equal(t, "src/a.py", files[0].FullPath)
	assert.Equal(t, 1, files[0].CodeSmellCount)
	assert.Equal(t, Breakdown{DeadCode: 1}, files[0].SmellBreakdown)
}

func TestFilesByCodeSmellCount_RanksMergesAndFilters(t *testing.T) {
	first := Payload{
		"_id":       "abc",
		"createdAt": "2026-01-01T00:00:00Z",
		"src/small.py": fileEntry("py", map[string]any{
			"magic_numbers": entry("magic_numbers", 1),
		}),
		"src/clean.py": fileEntry("py", map[string]any{
			"magic_numbers": entry("magic_numbers"),
		}),
		"src/big.py": fileEntry("py", map[string]any{
			"magic_numbers":    entry("magic_numbers", 1, 2),
			"unused_variables": entry("unused_variables", "a"),
		}),
		"README": fileEntry("md", map[string]any{
			"dead_code": entry("dead_code", 1, 2, 3, 4, 5),
		}),
	}
	second := Payload{
		`C:\repo\src\small.py`: fileEntry("py", map[string]any{
			"dead_code": entry("dead_code", "f", "g", "h"),
		}),
	}

	files := FilesByCodeSmellCount([]Payload{first, second})

	require.Len(t, files, 2)
	assert.Equal(t, "small.py", files[0].FileName)
	assert.Equal(t, 4, files[0].CodeSmellCount)
	assert.Equal(t, "src/small.py", files[0].FullPath)
	assert.Equal(t, Breakdown{MagicNumbers: 1, DeadCode: 3}, files[0].SmellBreakdown)

	assert.Equal(t, "big.py", files[1].FileName)
	assert.Equal(t, 3, files[1].CodeSmellCount)
}

func TestFilesByCodeSmellCount_SortedNonIncreasing(t *testing.T) {
	p := Payload{}
	for i, name := range []string{"a.py", "b.py", "c.py", "d.py", "e.py"} {
		items := make([]any, (i*7)%5+1)
		p["pkg/"+name] = fileEntry("py", map[string]any{
			"unreachable_code": entry("unreachable_code", items...),
		})
	}

	files := FilesByCodeSmellCount([]Payload{p})

	require.Len(t, files, 5)
	for i := 1; i < len(files); i++ {
		assert.GreaterOrEqual(t, files[i-1].CodeSmellCount, files[i].CodeSmellCount)
	}
	for _, f := range files {
		assert.Greater(t, f.CodeSmellCount, 0)
	}
}

func TestFilesByCodeSmellCount_Idempotent(t *testing.T) {
	p := Payload{
		"x/one.py": fileEntry("py", map[string]any{"dead_code": entry("dead_code", 1, 2)}),
		"x/two.py": fileEntry("py", map[string]any{"dead_code": entry("dead_code", 1, 2)}),
		"y/one.py": fileEntry("py", map[string]any{"magic_numbers": entry("magic_numbers", 9)}),
	}
	payloads := []Payload{p}

	first := FilesByCodeSmellCount(payloads)
	second := FilesByCodeSmellCount(payloads)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "one.py", first[0].FileName)
	assert.Equal(t, 3, first[0].CodeSmellCount)
}

func TestFilesByCodeSmellCount_CategoryKeyedPayloadYieldsNothing(t *testing.T) {
	p := Payload{"magic_numbers": entry("magic_numbers", 1, 2)}

	assert.Empty(t, FilesByCodeSmellCount([]Payload{p}))
	assert.Empty(t, FilesByCodeSmellCount(nil))
}
