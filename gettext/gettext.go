// Package gettext provides a GNU gettext `.pot` and `.po` file model
// together with an encoder and a decoder.
//
// WARNING: The encoder and decoder are optimized to handle catalogs produced
// by github.com/romshark/msgextract and may not support every GNU gettext feature!
package gettext

import (
	"errors"
	"fmt"
)

// Standard header names.
const (
	HeaderProjectIDVersion        = "Project-Id-Version"
	HeaderReportMsgidBugsTo       = "Report-Msgid-Bugs-To"
	HeaderPOTCreationDate         = "POT-Creation-Date"
	HeaderPORevisionDate          = "PO-Revision-Date"
	HeaderLastTranslator          = "Last-Translator"
	HeaderLanguageTeam            = "Language-Team"
	HeaderLanguage                = "Language"
	HeaderMIMEVersion             = "MIME-Version"
	HeaderContentType             = "Content-Type"
	HeaderContentTransferEncoding = "Content-Transfer-Encoding"
	HeaderPluralForms             = "Plural-Forms"
)

// DefaultContentType is the value of the Content-Type header of every written file.
const DefaultContentType = "text/plain; charset=UTF-8"

type Position struct {
	Filename     string
	Line, Column int
}

// Header is a single catalog header entry.
type Header struct{ Name, Value string }

// Headers is an ordered list of header entries.
type Headers []Header

// Get returns the value of the header name.
func (h Headers) Get(name string) (string, bool) {
	for _, x := range h {
		if x.Name == name {
			return x.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the header name in place or appends it.
func (h Headers) Set(name, value string) Headers {
	for i := range h {
		if h[i].Name == name {
			h[i].Value = value
			return h
		}
	}
	return append(h, Header{Name: name, Value: value})
}

// Merge returns a copy of h overridden by all entries of overrides.
func (h Headers) Merge(overrides ...Header) Headers {
	cp := make(Headers, len(h), len(h)+len(overrides))
	copy(cp, h)
	for _, o := range overrides {
		cp = cp.Set(o.Name, o.Value)
	}
	return cp
}

// Message is a single catalog entry.
type Message struct {
	Pos      Position
	Obsolete bool

	TranslatorComments []string // #  translator-comments
	ExtractedComments  []string // #. extracted-comments
	References         []string // #: reference...
	Flags              []string // #, flag...

	Msgctxt     *string // Nil if the entry has no msgctxt.
	Msgid       string
	MsgidPlural string // Empty if the entry has no msgid_plural.

	// Msgstr holds a single translation for singular entries
	// and one translation per plural form for plural entries.
	Msgstr []string
}

// Context returns the msgctxt value or an empty string.
func (m Message) Context() string {
	if m.Msgctxt == nil {
		return ""
	}
	return *m.Msgctxt
}

// File is a `.po` translation or `.pot` template file.
type File struct {
	HeadComments []string
	Headers      Headers
	Messages     []Message
}

// IsTemplate reports whether f is a `.pot` template,
// which is the case when it has no Language header or an empty one.
func (f *File) IsTemplate() bool {
	l, _ := f.Headers.Get(HeaderLanguage)
	return l == ""
}

type Error struct {
	Pos      Position
	Expected string
	Err      error
}

func (e Error) Error() string {
	err := e.Err
	if err == nil {
		err = ErrUnexpectedToken
	}
	if e.Expected == "" {
		return fmt.Sprintf("%s:%d:%d: %s",
			e.Pos.Filename, e.Pos.Line, e.Pos.Column, err.Error())
	}
	return fmt.Sprintf("%s:%d:%d: expected %s; %s",
		e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Expected, err.Error())
}

func (e Error) Unwrap() error { return e.Err }

var (
	ErrUnexpectedToken  = errors.New("found unexpected token")
	ErrMalformedString  = errors.New("malformed string literal")
	ErrMalformedHeader  = errors.New("malformed header")
	ErrDuplicateHeader  = errors.New("duplicate header")
	ErrMissingHeader    = errors.New("missing header entry")
	ErrPluralIndex      = errors.New("unexpected plural form index")
	ErrUnexpectedEOF    = errors.New("unexpected end of file")
	ErrDuplicateKeyword = errors.New("duplicate keyword")
	ErrMaxPluralForms   = errors.New("too many plural forms")
)
