package catalog

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// Statistics are running counters of an extraction session.
// All methods are safe to call on a nil *Statistics.
type Statistics struct {
	Messages            atomic.Int64 // Distinct messages.
	PluralMessages      atomic.Int64 // Distinct messages with a plural form.
	MessageUsages       atomic.Int64 // Every merged or new fragment.
	Contexts            atomic.Int64
	ParsedFiles         atomic.Int64
	ParsedFilesWithMsgs atomic.Int64
}

// AddParsedFile records the parsing of one source unit.
func (s *Statistics) AddParsedFile(hasMessages bool) {
	if s == nil {
		return
	}
	s.ParsedFiles.Add(1)
	if hasMessages {
		s.ParsedFilesWithMsgs.Add(1)
	}
}

func (s *Statistics) addMessage(plural bool) {
	if s == nil {
		return
	}
	s.Messages.Add(1)
	if plural {
		s.PluralMessages.Add(1)
	}
}

func (s *Statistics) addPlural() {
	if s != nil {
		s.PluralMessages.Add(1)
	}
}

func (s *Statistics) addUsage() {
	if s != nil {
		s.MessageUsages.Add(1)
	}
}

func (s *Statistics) addContext() {
	if s != nil {
		s.Contexts.Add(1)
	}
}

// Print writes a human readable summary of s to w.
func (s *Statistics) Print(w io.Writer) {
	if s == nil {
		return
	}
	line := func(label string, v int64) {
		_, _ = fmt.Fprintf(w, "%-24s %s\n", label+":", humanize.Comma(v))
	}
	line("Messages", s.Messages.Load())
	line("Plural messages", s.PluralMessages.Load())
	line("Message usages", s.MessageUsages.Load())
	line("Contexts", s.Contexts.Load())
	line("Files parsed", s.ParsedFiles.Load())
	line("Files with messages", s.ParsedFilesWithMsgs.Load())
}
