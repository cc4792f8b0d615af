// Package textmodel is the plain-text document model the changeset protocol
// folds changes into. An operation is an ordered sequence of components
// (retain / insert / delete) that walks the document from start to end;
// applying the same operations in the same order always yields the same
// text, which is what replay determinism rests on.
package textmodel

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Component kinds.
const (
	KindRetain = "retain"
	KindInsert = "insert"
	KindDelete = "delete"
)

// Component is one step of an operation. Retain and Delete use N (rune
// count), Insert uses S.
type Component struct {
	Kind string `json:"kind"`
	N    int    `json:"n,omitempty"`
	S    string `json:"s,omitempty"`
}

// Operation is an edit instruction, replayable against a document whose
// length matches the operation's base length.
type Operation struct {
	Components []Component `json:"components"`
}

// Retain appends a retain component, merging with a trailing retain.
func (op *Operation) Retain(n int) *Operation {
	if n <= 0 {
		return op
	}
	if last := len(op.Components) - 1; last >= 0 && op.Components[last].Kind == KindRetain {
		op.Components[last].N += n
		return op
	}
	op.Components = append(op.Components, Component{Kind: KindRetain, N: n})
	return op
}

// Insert appends an insert component, merging with a trailing insert.
func (op *Operation) Insert(s string) *Operation {
	if s == "" {
		return op
	}
	if last := len(op.Components) - 1; last >= 0 && op.Components[last].Kind == KindInsert {
		op.Components[last].S += s
		return op
	}
	op.Components = append(op.Components, Component{Kind: KindInsert, S: s})
	return op
}

// Delete appends a delete component, merging with a trailing delete.
func (op *Operation) Delete(n int) *Operation {
	if n <= 0 {
		return op
	}
	if last := len(op.Components) - 1; last >= 0 && op.Components[last].Kind == KindDelete {
		op.Components[last].N += n
		return op
	}
	op.Components = append(op.Components, Component{Kind: KindDelete, N: n})
	return op
}

// BaseLen returns the document length (in runes) the operation applies to.
func (op *Operation) BaseLen() int {
	n := 0
	for _, c := range op.Components {
		switch c.Kind {
		case KindRetain, KindDelete:
			n += c.N
		}
	}
	return n
}

// Marshal encodes the operation as the opaque JSON payload carried by a
// Change record.
func (op *Operation) Marshal() (json.RawMessage, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, errors.Wrap(err, "marshal operation")
	}
	return data, nil
}

// Validate checks the operation's shape without a document: every component
// kind must be known and every span non-negative. Apply still enforces the
// base length; Validate is what a store calls before persisting a payload,
// so a malformed operation can never poison a change log.
func (op *Operation) Validate() error {
	for _, c := range op.Components {
		switch c.Kind {
		case KindRetain, KindDelete:
			if c.N < 0 {
				return errors.Errorf("negative %s span %d", c.Kind, c.N)
			}
		case KindInsert:
		default:
			return errors.Errorf("unknown component kind %q", c.Kind)
		}
	}
	return nil
}

// Unmarshal decodes an opaque operation payload.
func Unmarshal(data json.RawMessage) (*Operation, error) {
	op := &Operation{}
	if err := json.Unmarshal(data, op); err != nil {
		return nil, errors.Wrap(err, "unmarshal operation")
	}
	return op, nil
}

// Document is a mutable plain-text document.
type Document struct {
	runes []rune
}

// New returns an empty document, the version-0 state of every changeset.
func New() *Document {
	return &Document{}
}

// FromText returns a document holding the given text.
func FromText(text string) *Document {
	return &Document{runes: []rune(text)}
}

// Text serializes the document.
func (d *Document) Text() string {
	return string(d.runes)
}

// Len returns the document length in runes.
func (d *Document) Len() int {
	return len(d.runes)
}

// Apply mutates the document by one operation. The operation must walk the
// whole document: a base-length mismatch is an error, not a silent trim.
func (d *Document) Apply(op *Operation) error {
	if op == nil {
		return errors.New("nil operation")
	}

	var out []rune
	pos := 0
	for _, c := range op.Components {
		switch c.Kind {
		case KindRetain:
			// Decoded payloads may carry any integer; a negative span would
			// slip past the upper bound check and slice out of range.
			if c.N < 0 {
				return errors.Errorf("negative retain %d", c.N)
			}
			if pos+c.N > len(d.runes) {
				return errors.Errorf("retain %d past end of document (len %d, pos %d)", c.N, len(d.runes), pos)
			}
			out = append(out, d.runes[pos:pos+c.N]...)
			pos += c.N
		case KindInsert:
			out = append(out, []rune(c.S)...)
		case KindDelete:
			if c.N < 0 {
				return errors.Errorf("negative delete %d", c.N)
			}
			if pos+c.N > len(d.runes) {
				return errors.Errorf("delete %d past end of document (len %d, pos %d)", c.N, len(d.runes), pos)
			}
			pos += c.N
		default:
			return errors.Errorf("unknown component kind %q", c.Kind)
		}
	}
	if pos != len(d.runes) {
		return errors.Errorf("operation covers %d of %d runes", pos, len(d.runes))
	}

	d.runes = out
	return nil
}

// Diff derives the operation that turns old into new. This is what a local
// edit produces on the client before it is queued as a pending change.
func Diff(old, new string) *Operation {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupEfficiency(diffs)

	op := &Operation{}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op.Retain(len([]rune(d.Text)))
		case diffmatchpatch.DiffInsert:
			op.Insert(d.Text)
		case diffmatchpatch.DiffDelete:
			op.Delete(len([]rune(d.Text)))
		}
	}
	return op
}

// Summary renders an operation compactly for logs.
func (op *Operation) Summary() string {
	var b strings.Builder
	for i, c := range op.Components {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c.Kind {
		case KindRetain:
			b.WriteString("r")
			b.WriteString(itoa(c.N))
		case KindInsert:
			b.WriteString("i")
			b.WriteString(itoa(len([]rune(c.S))))
		case KindDelete:
			b.WriteString("d")
			b.WriteString(itoa(c.N))
		}
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
