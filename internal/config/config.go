// Package config loads extraction configuration and turns it
// into parsers bound to a session.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/romshark/msgextract"
	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/content"
	"github.com/romshark/msgextract/gettext"
	"github.com/romshark/msgextract/goparser"
	"github.com/romshark/msgextract/htmlparser"
	"github.com/romshark/msgextract/jsparser"
)

// EnvPrefix is the prefix of environment variables overriding configuration.
const EnvPrefix = "MSGEXTRACT"

// Extractor kinds.
const (
	KindCall                = "call"
	KindEmbeddedHTML        = "embedded_html"
	KindContent             = "content"
	KindAttribute           = "attribute"
	KindEmbeddedJS          = "embedded_js"
	KindEmbeddedAttributeJS = "embedded_attribute_js"
	KindInterpolation       = "interpolation"
)

// Header is a single output file header entry.
type Header struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

type Arguments struct {
	Text       int  `mapstructure:"text"`
	TextPlural *int `mapstructure:"text_plural"`
	Context    *int `mapstructure:"context"`
}

type Comments struct {
	Regex            string `mapstructure:"regex"`
	OtherLineLeading bool   `mapstructure:"other_line_leading"`
	SameLineLeading  bool   `mapstructure:"same_line_leading"`
	SameLineTrailing bool   `mapstructure:"same_line_trailing"`
}

type Content struct {
	TrimWhiteSpace      bool    `mapstructure:"trim_white_space"`
	PreserveIndentation bool    `mapstructure:"preserve_indentation"`
	ReplaceNewLines     *string `mapstructure:"replace_new_lines"`
	Dedent              bool    `mapstructure:"dedent"`
}

type Attributes struct {
	TextPlural string `mapstructure:"text_plural"`
	Context    string `mapstructure:"context"`
	Comment    string `mapstructure:"comment"`
}

// Extractor configures a single extractor. Which fields apply depends on Kind.
// Extractors configures the extractors of the embedded language
// of embedded_html, embedded_js, embedded_attribute_js and interpolation.
type Extractor struct {
	Kind       string      `mapstructure:"kind"`
	Callee     []string    `mapstructure:"callee"`
	Arguments  Arguments   `mapstructure:"arguments"`
	Comments   Comments    `mapstructure:"comments"`
	Content    *Content    `mapstructure:"content"`
	Selector   string      `mapstructure:"selector"`
	Attribute  string      `mapstructure:"attribute"`
	Attributes Attributes  `mapstructure:"attributes"`
	Filter     string      `mapstructure:"filter"`
	Tags       []string    `mapstructure:"tags"`
	Properties []string    `mapstructure:"properties"`
	Delimiters []string    `mapstructure:"delimiters"`
	FormatFlag string      `mapstructure:"format_flag"`
	Extractors []Extractor `mapstructure:"extractors"`
}

// Source is a set of files parsed with the same extractors.
type Source struct {
	Files      []string    `mapstructure:"files"`
	Extractors []Extractor `mapstructure:"extractors"`
}

// Config holds the configuration of an extraction run.
// Values are populated from .msgextract.yaml, MSGEXTRACT_* env vars and CLI flags.
type Config struct {
	// Output is the path of the written catalog.
	Output string `mapstructure:"output"`

	// Locale is an optional BCP 47 locale. If set, a `.po` file for the locale
	// is written instead of a `.pot` template.
	Locale string `mapstructure:"locale"`

	Headers         []Header `mapstructure:"headers"`
	Root            string   `mapstructure:"root"`
	Exclude         []string `mapstructure:"exclude"`
	IgnoreGitignore bool     `mapstructure:"ignore_gitignore"`
	KeepGoing       bool     `mapstructure:"keep_going"`
	Workers         int      `mapstructure:"workers"`
	NodeBudget      int      `mapstructure:"node_budget"`

	JS   []Source `mapstructure:"js"`
	HTML []Source `mapstructure:"html"`
	Go   []Source `mapstructure:"go"`
}

// DefaultFileName is the name of the configuration file looked up
// in the working directory, with any extension viper supports.
const DefaultFileName = ".msgextract"

// NewViper creates a viper instance reading file, or DefaultFileName
// if file is empty, and MSGEXTRACT_* environment variables.
// A missing default configuration file is not an error.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(DefaultFileName)
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config: %w", catalog.ErrConfig, err)
		}
	}
	return v, nil
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", "messages.pot")
	v.SetDefault("locale", "")
	v.SetDefault("root", ".")
	v.SetDefault("ignore_gitignore", false)
	v.SetDefault("keep_going", false)
	v.SetDefault("workers", 0)
	v.SetDefault("node_budget", 0)
}

// Load reads configuration from v, applying built-in defaults for any
// values not set by config file, environment or flags.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", catalog.ErrConfig, err)
	}
	if _, err := cfg.Language(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Language returns the parsed Locale or language.Und if none is set.
func (c Config) Language() (language.Tag, error) {
	if c.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("%w: locale %q: %w", catalog.ErrConfig, c.Locale, err)
	}
	return tag, nil
}

// GettextHeaders returns Headers as catalog file headers.
func (c Config) GettextHeaders() []gettext.Header {
	h := make([]gettext.Header, len(c.Headers))
	for i, x := range c.Headers {
		h[i] = gettext.Header{Name: x.Name, Value: x.Value}
	}
	return h
}

// FilesOptions returns the options for session.ParseFiles.
func (c Config) FilesOptions() msgextract.FilesOptions {
	return msgextract.FilesOptions{
		Root:            c.Root,
		Exclude:         c.Exclude,
		IgnoreGitignore: c.IgnoreGitignore,
		Workers:         c.Workers,
		KeepGoing:       c.KeepGoing,
	}
}

// Job is a configured source: the files and the parser to parse them with.
type Job struct {
	Name   string // For example "js[0]".
	Files  []string
	Parser msgextract.SourceParser
}

// Build creates the parsers of all configured sources bound to s.
func Build(c Config, s *msgextract.Session) ([]Job, error) {
	b := builder{session: s}
	var jobs []Job
	for _, l := range []struct {
		name    string
		sources []Source
		parser  func([]Extractor) (msgextract.SourceParser, error)
	}{
		{"js", c.JS, func(e []Extractor) (msgextract.SourceParser, error) { return b.js(e) }},
		{"html", c.HTML, func(e []Extractor) (msgextract.SourceParser, error) { return b.html(e) }},
		{"go", c.Go, func(e []Extractor) (msgextract.SourceParser, error) { return b.goSource(e) }},
	} {
		for i, src := range l.sources {
			name := fmt.Sprintf("%s[%d]", l.name, i)
			if len(src.Files) == 0 {
				return nil, fmt.Errorf("%w: %s: no files", catalog.ErrConfig, name)
			}
			p, err := l.parser(src.Extractors)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			jobs = append(jobs, Job{Name: name, Files: src.Files, Parser: p})
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: no sources", catalog.ErrConfig)
	}
	return jobs, nil
}

type builder struct{ session *msgextract.Session }

func errKind(i int, kind string) error {
	return fmt.Errorf("%w: extractors[%d]: unknown kind %q", catalog.ErrConfig, i, kind)
}

func (b builder) js(l []Extractor) (*jsparser.Parser, error) {
	if len(l) == 0 {
		return nil, catalog.ErrNoExtractors
	}
	extractors := make([]jsparser.Extractor, len(l))
	for i, e := range l {
		var err error
		switch e.Kind {
		case "", KindCall:
			extractors[i], err = jsparser.CallExpression(e.Callee, jsparser.CallOptions{
				Arguments:  jsparser.Arguments(e.Arguments),
				Comments:   jsparser.CommentOptions(e.Comments),
				Content:    e.Content.options(),
				FormatFlag: e.FormatFlag,
			})
		case KindEmbeddedHTML:
			var markup *htmlparser.Parser
			if markup, err = b.html(e.Extractors); err == nil {
				extractors[i], err = jsparser.EmbeddedHTML(markup, jsparser.EmbeddedOptions{
					Tags:       e.Tags,
					Properties: e.Properties,
				})
			}
		default:
			return nil, errKind(i, e.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("extractors[%d]: %w", i, err)
		}
	}
	return b.session.JS(extractors...), nil
}

func (b builder) html(l []Extractor) (*htmlparser.Parser, error) {
	if len(l) == 0 {
		return nil, catalog.ErrNoExtractors
	}
	extractors := make([]htmlparser.Extractor, len(l))
	for i, e := range l {
		opts := htmlparser.ElementOptions{
			Attributes: htmlparser.AttributeNames(e.Attributes),
			Content:    e.Content.options(),
		}
		var err error
		switch e.Kind {
		case "", KindContent:
			extractors[i], err = htmlparser.ElementContent(e.Selector, opts)
		case KindAttribute:
			extractors[i], err = htmlparser.ElementAttribute(e.Selector, e.Attribute, opts)
		case KindEmbeddedJS, KindEmbeddedAttributeJS, KindInterpolation:
			var js *jsparser.Parser
			if js, err = b.js(e.Extractors); err != nil {
				break
			}
			switch e.Kind {
			case KindEmbeddedJS:
				extractors[i], err = htmlparser.EmbeddedJS(e.Selector, js)
			case KindEmbeddedAttributeJS:
				extractors[i], err = htmlparser.EmbeddedAttributeJS(e.Filter, js)
			default:
				left, right, derr := delimiters(e.Delimiters)
				if derr != nil {
					return nil, fmt.Errorf("extractors[%d]: %w", i, derr)
				}
				extractors[i], err = htmlparser.Interpolation(js, left, right)
			}
		default:
			return nil, errKind(i, e.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("extractors[%d]: %w", i, err)
		}
	}
	return b.session.HTML(extractors...), nil
}

func (b builder) goSource(l []Extractor) (*goparser.Parser, error) {
	if len(l) == 0 {
		return nil, catalog.ErrNoExtractors
	}
	extractors := make([]goparser.Extractor, len(l))
	for i, e := range l {
		if e.Kind != "" && e.Kind != KindCall {
			return nil, errKind(i, e.Kind)
		}
		x, err := goparser.CallExpression(e.Callee, goparser.CallOptions{
			Arguments:  goparser.Arguments(e.Arguments),
			Comments:   goparser.CommentOptions(e.Comments),
			Content:    e.Content.options(),
			FormatFlag: e.FormatFlag,
		})
		if err != nil {
			return nil, fmt.Errorf("extractors[%d]: %w", i, err)
		}
		extractors[i] = x
	}
	return b.session.Go(extractors...), nil
}

func delimiters(d []string) (left, right string, err error) {
	switch len(d) {
	case 0:
		return "{{", "}}", nil
	case 2:
		return d[0], d[1], nil
	}
	return "", "", fmt.Errorf("%w: expected 2 delimiters, got %d", catalog.ErrConfig, len(d))
}

func (c *Content) options() *content.Options {
	if c == nil {
		return nil
	}
	return &content.Options{
		TrimWhiteSpace:      c.TrimWhiteSpace,
		PreserveIndentation: c.PreserveIndentation,
		ReplaceNewLines:     c.ReplaceNewLines,
		Dedent:              c.Dedent,
	}
}
