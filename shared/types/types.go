// shared/types/types.go
package shared

import (
	"time"
)

// Form is the Unicode normalization form a filename is stored in.
type Form string

const (
	FormNFC Form = "NFC"
	FormNFD Form = "NFD"
)

// Label describes the normalization status of a single filename.
type Label struct {
	Form      Form   `json:"form"`
	Breakdown string `json:"breakdown,omitempty"`
}

// String renders the label the way it is shown in file listings.
func (l Label) String() string {
	if l.Form == FormNFD {
		return "NFD: " + l.Breakdown
	}
	return string(FormNFC)
}

// IsDecomposed reports whether the label flags an NFD filename.
func (l Label) IsDecomposed() bool {
	return l.Form == FormNFD
}

// DirectoryNode is one directory in a scanned tree. Children only ever
// holds subdirectories.
type DirectoryNode struct {
	ID       string           `json:"id"`
	Path     string           `json:"path"`
	Name     string           `json:"name"`
	Children []*DirectoryNode `json:"children,omitempty"`
}

// Walk visits n and all of its descendants depth first.
func (n *DirectoryNode) Walk(fn func(node *DirectoryNode, depth int)) {
	n.walk(fn, 0)
}

func (n *DirectoryNode) walk(fn func(node *DirectoryNode, depth int), depth int) {
	if n == nil {
		return
	}
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// FileRecord is a regular file found in a scanned directory.
type FileRecord struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Path    string    `json:"path"`
	Label   Label     `json:"label"`
}

// RenameBatch is a set of absolute paths submitted together for composition.
type RenameBatch struct {
	ID        string    `json:"id"`
	Paths     []string  `json:"paths"`
	CreatedAt time.Time `json:"created_at"`
}

// RenameOutcome is the result of renaming one path of a batch.
type RenameOutcome struct {
	Path    string `json:"path"`
	From    string `json:"from"`
	To      string `json:"to"`
	Skipped bool   `json:"skipped,omitempty"`
	Err     error  `json:"-"`
}

// Failed reports whether the rename was attempted and did not succeed.
func (o RenameOutcome) Failed() bool {
	return !o.Skipped && o.Err != nil
}

// BatchResult aggregates the outcomes of a rename batch.
type BatchResult struct {
	BatchID  string          `json:"batch_id"`
	Strategy string          `json:"strategy"`
	Outcomes []RenameOutcome `json:"outcomes"`
	// Output holds the combined stdout and stderr of the script strategy.
	Output string `json:"output,omitempty"`
	// Err is a batch level failure, e.g. the script could not be launched.
	Err error `json:"-"`
}

// OK is true only when the batch as a whole and every attempted rename
// succeeded.
func (r BatchResult) OK() bool {
	if r.Err != nil {
		return false
	}
	for _, o := range r.Outcomes {
		if o.Failed() {
			return false
		}
	}
	return true
}

// Renamed returns the outcomes that changed a filename on disk.
func (r BatchResult) Renamed() []RenameOutcome {
	var out []RenameOutcome
	for _, o := range r.Outcomes {
		if !o.Skipped && o.Err == nil {
			out = append(out, o)
		}
	}
	return out
}

// Failures returns the outcomes that could not be renamed.
func (r BatchResult) Failures() []RenameOutcome {
	var out []RenameOutcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}
