// Package fmtplaceholder detects printf style placeholders in message texts.
package fmtplaceholder

import (
	"regexp"
	"slices"
	"strings"
)

var regexpFmtPlaceholders = regexp.MustCompile(
	`%[#0\-+\s]*\d*(?:\.\d*)?[bcdeEfFgGopqstTvxXUO%]`,
)

// Extract returns all placeholders like %s, %d, %v, %q, etc. from s.
func Extract(s string) []string {
	return regexpFmtPlaceholders.FindAllString(s, -1)
}

// HasFormat reports whether any of texts contains a placeholder
// other than the escaped percent sign %%.
func HasFormat(texts ...string) bool {
	return slices.ContainsFunc(texts, func(s string) bool {
		return slices.ContainsFunc(Extract(s), func(p string) bool { return p != "%%" })
	})
}

// HasNumeric reports whether s contains a placeholder that can
// format the quantity of a plural message.
func HasNumeric(s string) bool {
	return slices.ContainsFunc(Extract(s), Numeric)
}

var numericPlaceholders = "vfgxeFGXEbcdoOqU"

// Numeric returns true if placeholder can format numeric values (floats, ints, etc.).
// Warning: s is not validated! Expect false positives for invalid placeholders.
func Numeric(s string) bool {
	if s == "" || s == "%#v" {
		return false
	}
	return strings.IndexByte(numericPlaceholders, s[len(s)-1]) != -1
}
