// Package diff renders readable test diffs of tokens, selections and reports.
package diff

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// exportedOnly ignores unexported struct fields so registries and engines can
// be compared by their public shape.
var exportedOnly = cmp.FilterPath(func(p cmp.Path) bool {
	sf, ok := p.Last().(cmp.StructField)
	if !ok {
		return false
	}
	r, _ := utf8.DecodeRuneInString(sf.Name())
	return !unicode.IsUpper(r)
}, cmp.Ignore())

// DiffExportedOnly returns "" when want and got agree on every exported field,
// otherwise a diff marking what to add to and remove from got.
func DiffExportedOnly[T any](want T, got T, opts ...cmp.Option) string {
	abc := cmp.Diff(want, got, append([]cmp.Option{exportedOnly}, opts...)...)
	if abc == "" {
		return ""
	}
	str := "\n\n"
	str += "to convert ACTUAL ⏩️ EXPECTED:\n\n"
	str += "add:    ➖\n"
	str += "remove: ➕\n"
	str += "\n"
	str += strings.ReplaceAll(strings.ReplaceAll("\n"+abc, "\n-", "\n➖"), "\n+", "\n➕")

	return str
}
