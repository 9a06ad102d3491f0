// Package normalize classifies filenames by Unicode normalization form and
// converts them between NFD and NFC.
package normalize

import (
	"fmt"
	"strings"

	"namenizer/shared/types"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/unicode/norm"
)

// Compose returns the canonical composition (NFC) of name.
func Compose(name string) string {
	return norm.NFC.String(name)
}

// Decompose returns the canonical decomposition (NFD) of name.
func Decompose(name string) string {
	return norm.NFD.String(name)
}

// IsDecomposed reports whether name is stored in decomposed form: its
// canonical decomposition is identical to it, scalar by scalar, and it holds
// at least one sequence that composition would change. Names without any
// decomposable character (plain ASCII, for one) are not decomposed.
func IsDecomposed(name string) bool {
	if !norm.NFD.IsNormalString(name) {
		return false
	}
	return !norm.NFC.IsNormalString(name)
}

// Breakdown lists the scalars of the canonical decomposition of name,
// separated by single spaces.
func Breakdown(name string) string {
	d := Decompose(name)
	parts := make([]string, 0, len(d))
	for _, r := range d {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}

// Codepoints is Breakdown with U+XXXX notation, for terminals that render
// combining marks on top of the previous scalar.
func Codepoints(name string) string {
	d := Decompose(name)
	parts := make([]string, 0, len(d))
	for _, r := range d {
		parts = append(parts, fmt.Sprintf("U+%04X", r))
	}
	return strings.Join(parts, " ")
}

// Classify computes the label for name.
func Classify(name string) shared.Label {
	if IsDecomposed(name) {
		return shared.Label{Form: shared.FormNFD, Breakdown: Breakdown(name)}
	}
	return shared.Label{Form: shared.FormNFC}
}

// Classifier memoises labels. Directories are re-scanned after every batch
// so the same names are classified over and over.
type Classifier struct {
	cache *lru.Cache[string, shared.Label]
}

// NewClassifier returns a classifier holding at most size labels.
func NewClassifier(size int) (*Classifier, error) {
	cache, err := lru.New[string, shared.Label](size)
	if err != nil {
		return nil, fmt.Errorf("creating label cache: %w", err)
	}
	return &Classifier{cache: cache}, nil
}

// Classify returns the cached label for name, computing it on a miss. Names
// are keyed by their exact bytes, so NFC and NFD spellings never collide.
func (c *Classifier) Classify(name string) shared.Label {
	if c == nil {
		return Classify(name)
	}
	if l, ok := c.cache.Get(name); ok {
		return l
	}
	l := Classify(name)
	c.cache.Add(name, l)
	return l
}

// Len returns the number of cached labels.
func (c *Classifier) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
