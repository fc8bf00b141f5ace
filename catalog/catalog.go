// Package catalog aggregates extracted message fragments into a deduplicated,
// deterministically ordered gettext message catalog.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultContext is the implicit context of messages that don't specify one.
const DefaultContext = ""

// Fragment is a single raw extraction event before merging.
//
// TextPlural and Context distinguish absent (nil) from set.
// An absent or empty Context both resolve to DefaultContext.
// An empty TextPlural is treated like an absent one during merges.
type Fragment struct {
	Text       string
	TextPlural *string
	Context    *string
	References []string
	Comments   []string
	Flags      []string // gettext flags, for example "go-format".
}

// String returns a pointer to s for use in optional Fragment fields.
func String(s string) *string { return &s }

// Message is the canonical, merged representation of one (context, text) pair.
type Message struct {
	Text       string
	TextPlural string // Empty if the message has no plural form.
	Context    string
	References []string
	Comments   []string
	Flags      []string
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	m.References = slices.Clone(m.References)
	m.Comments = slices.Clone(m.Comments)
	m.Flags = slices.Clone(m.Flags)
	return m
}

// HasPlural reports whether the message has a plural form.
func (m Message) HasPlural() bool { return m.TextPlural != "" }

// Context is a named partition of the message space.
type Context struct {
	Name     string
	Messages []Message
}

var (
	ErrMergeConflict = errors.New("incompatible plurals")
	ErrConfig        = errors.New("invalid configuration")

	// ErrNoExtractors is returned by parsers configured without extractors.
	ErrNoExtractors = fmt.Errorf("%w: no extractors", ErrConfig)
)

// MergeConflictError is returned by Builder.Add when a fragment
// supplies a plural form that differs from the one already recorded.
type MergeConflictError struct {
	Context  string
	Text     string
	Existing string
	Incoming string
}

func (e *MergeConflictError) Error() string {
	if e.Context == DefaultContext {
		return fmt.Sprintf("%s found for %q (%q and %q)",
			ErrMergeConflict.Error(), e.Text, e.Existing, e.Incoming)
	}
	return fmt.Sprintf("%s found for %q in context %q (%q and %q)",
		ErrMergeConflict.Error(), e.Text, e.Context, e.Existing, e.Incoming)
}

func (e *MergeConflictError) Is(target error) bool { return target == ErrMergeConflict }

// SourceError is a malformed input document or a failure to read one.
type SourceError struct {
	Filename     string
	Line, Column int // 1-based, zero if unknown.
	Err          error
}

func (e *SourceError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Filename, e.Err.Error())
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Column, e.Err.Error())
}

func (e *SourceError) Unwrap() error { return e.Err }

// FmtReference formats a source code reference.
func FmtReference(file string, line int) string {
	return fmt.Sprintf("%s:%d", file, line)
}

// Builder merges fragments into a catalog.
// Builder is not safe for concurrent use.
type Builder struct {
	contexts map[string]map[string]*Message
	stats    *Statistics
}

// NewBuilder creates an empty catalog builder.
// stats is optional and may be shared with the parsers of the same session.
func NewBuilder(stats *Statistics) *Builder {
	return &Builder{
		contexts: make(map[string]map[string]*Message),
		stats:    stats,
	}
}

// Stats returns the statistics record attached to b, which may be nil.
func (b *Builder) Stats() *Statistics { return b.stats }

// Add merges f into the catalog.
// Add returns a *MergeConflictError and leaves the catalog untouched
// if f's plural form conflicts with the one already recorded.
func (b *Builder) Add(f Fragment) error {
	msg := normalize(f)

	bucket := b.contexts[msg.Context]
	if existing := bucket[msg.Text]; existing != nil {
		if msg.TextPlural != "" && existing.TextPlural != "" &&
			msg.TextPlural != existing.TextPlural {
			return &MergeConflictError{
				Context:  msg.Context,
				Text:     msg.Text,
				Existing: existing.TextPlural,
				Incoming: msg.TextPlural,
			}
		}
		if msg.TextPlural != "" && existing.TextPlural == "" {
			b.stats.addPlural()
		}
		extend(existing, msg)
		b.stats.addUsage()
		return nil
	}

	if bucket == nil {
		bucket = make(map[string]*Message)
		b.contexts[msg.Context] = bucket
		b.stats.addContext()
	}
	bucket[msg.Text] = &msg
	b.stats.addMessage(msg.HasPlural())
	b.stats.addUsage()
	return nil
}

// AddAll adds all fragments in order and stops at the first error.
func (b *Builder) AddAll(fragments []Fragment) error {
	for _, f := range fragments {
		if err := b.Add(f); err != nil {
			return err
		}
	}
	return nil
}

// Messages returns all messages ordered by context name and then by text.
func (b *Builder) Messages() []Message {
	var l []Message
	for _, name := range b.contextNames() {
		l = append(l, b.sortedMessages(name)...)
	}
	return l
}

// Contexts returns all contexts ordered by name, each with its ordered messages.
func (b *Builder) Contexts() []Context {
	names := b.contextNames()
	l := make([]Context, len(names))
	for i, name := range names {
		l[i] = Context{Name: name, Messages: b.sortedMessages(name)}
	}
	return l
}

// MessagesByContext returns the ordered messages of context name.
// It returns an empty list for contexts that were never created.
func (b *Builder) MessagesByContext(name string) []Message {
	return b.sortedMessages(name)
}

func (b *Builder) contextNames() []string {
	names := make([]string, 0, len(b.contexts))
	for name := range b.contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (b *Builder) sortedMessages(context string) []Message {
	bucket := b.contexts[context]
	l := make([]Message, 0, len(bucket))
	for _, m := range bucket {
		l = append(l, m.Clone())
	}
	slices.SortFunc(l, func(a, b Message) int { return strings.Compare(a.Text, b.Text) })
	return l
}

func normalize(f Fragment) Message {
	m := Message{
		Text:       f.Text,
		References: appendUnique(nil, f.References),
		Comments:   appendUnique(nil, f.Comments),
		Flags:      appendUnique(nil, f.Flags),
	}
	if f.TextPlural != nil {
		m.TextPlural = *f.TextPlural
	}
	if f.Context != nil {
		m.Context = *f.Context
	}
	return m
}

// extend merges src into dst. Existing values are only replaced by non-empty ones.
func extend(dst *Message, src Message) {
	if src.Text != "" {
		dst.Text = src.Text
	}
	if src.TextPlural != "" {
		dst.TextPlural = src.TextPlural
	}
	if src.Context != "" {
		dst.Context = src.Context
	}
	dst.References = appendUnique(dst.References, src.References)
	dst.Comments = appendUnique(dst.Comments, src.Comments)
	dst.Flags = appendUnique(dst.Flags, src.Flags)
}

// appendUnique appends the items of add that are not yet contained in l
// in the order of their first appearance.
func appendUnique(l, add []string) []string {
	for _, s := range add {
		if !slices.Contains(l, s) {
			l = append(l, s)
		}
	}
	return l
}
