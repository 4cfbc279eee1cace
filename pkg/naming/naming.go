// Package naming turns host data-block names into ids, selectors and file
// names that are safe to use in the exported documents.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	selectorUnsafe = regexp.MustCompile(`[ .]+`)
	fileUnsafe     = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
)

// ID returns name with runs of spaces and dots replaced by "-", so it can be
// used in a "#id" query selector.
func ID(name string) string {
	return selectorUnsafe.ReplaceAllString(name, "-")
}

// Scope mints ids that are unique within one document. Repeated names get
// a "-1", "-2", ... suffix.
type Scope struct {
	used map[string]bool
	next map[string]int
}

// NewScope creates an empty id scope.
func NewScope() *Scope {
	return &Scope{used: make(map[string]bool), next: make(map[string]int)}
}

// ID returns the id derived from name, suffixed until it is unused.
func (s *Scope) ID(name string) string {
	base := ID(name)
	id := base
	for s.used[id] {
		s.next[base]++
		id = fmt.Sprintf("%s-%d", base, s.next[base])
	}
	s.used[id] = true
	return id
}

// Ref returns a same-document reference to the id derived from name.
func Ref(name string) string {
	return "#" + ID(name)
}

// FoldASCII strips diacritics from s.
// Returns s unchanged if the transformation fails.
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Filename returns an ASCII file name stem for name. Empty results become
// "unnamed".
func Filename(name string) string {
	stem := fileUnsafe.ReplaceAllString(FoldASCII(name), "_")
	stem = strings.Trim(stem, "_.")
	if stem == "" {
		return "unnamed"
	}
	return stem
}
