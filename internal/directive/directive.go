// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directive extracts inline presentation directives from
// assistant message text.
//
// Assistant replies may embed two tag grammars:
//
//	{{choice:Track my order}}
//	{{link:https://example.com/help|Help center}}
//
// Extract pulls all tags out of the text and returns the cleaned text
// alongside the parsed directives. It is a pure function: no state, no
// match cursor, safe to call on every render pass.
package directive

import (
	"regexp"
	"strings"
)

// =============================================================================
// DIRECTIVE TYPES
// =============================================================================

// Choice is a quick-reply affordance parsed from a choice tag.
type Choice struct {
	Label string
}

// Link is an external link affordance parsed from a link tag.
type Link struct {
	URL   string
	Label string
}

// =============================================================================
// TAG GRAMMARS
// =============================================================================

// Tag grammars. Labels exclude '}', URLs additionally exclude '|'.
// Unclosed or malformed tags do not match and are left verbatim.
var (
	choiceTagRe = regexp.MustCompile(`\{\{choice:([^}]*)\}\}`)
	linkTagRe   = regexp.MustCompile(`\{\{link:([^|}]*)\|([^}]*)\}\}`)

	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// Removed tags are first replaced with a marker so the surrounding
// whitespace can be tidied at the removal sites only; text away from
// any tag stays byte-identical apart from the final trim.
const tagMark = "\x00"

var (
	markRunRe  = regexp.MustCompile(`\x00(?:[ \t]*\x00)+`)
	markEOLRe  = regexp.MustCompile(`[ \t]*\x00[ \t]*\n`)
	markBOLRe  = regexp.MustCompile(`\n[ \t]*\x00[ \t]*`)
	markRestRe = regexp.MustCompile(`[ \t]*\x00[ \t]*`)
)

// =============================================================================
// EXTRACTION
// =============================================================================

// Extract parses all choice and link tags out of text.
//
// It returns the text with every tag removed and the whitespace around
// each removal site collapsed, runs of two or more blank lines
// collapsed to one, and the result trimmed, plus the directives in
// left-to-right order within each kind. Text without tags comes back
// trimmed (with the same blank-line collapse) and nil directive
// slices; untagged content is never otherwise rewritten, so indented
// code and aligned columns survive extraction.
func Extract(text string) (cleaned string, choices []Choice, links []Link) {
	for _, m := range choiceTagRe.FindAllStringSubmatch(text, -1) {
		choices = append(choices, Choice{Label: strings.TrimSpace(m[1])})
	}
	for _, m := range linkTagRe.FindAllStringSubmatch(text, -1) {
		links = append(links, Link{
			URL:   strings.TrimSpace(m[1]),
			Label: strings.TrimSpace(m[2]),
		})
	}

	cleaned = text
	if len(choices) > 0 {
		cleaned = choiceTagRe.ReplaceAllString(cleaned, tagMark)
	}
	if len(links) > 0 {
		cleaned = linkTagRe.ReplaceAllString(cleaned, tagMark)
	}
	if len(choices)+len(links) > 0 {
		// Adjacent marks merge, marks at a line edge take their
		// horizontal whitespace with them, and a mark between words
		// collapses to the single space that separated them.
		cleaned = markRunRe.ReplaceAllString(cleaned, tagMark)
		cleaned = markEOLRe.ReplaceAllString(cleaned, "\n")
		cleaned = markBOLRe.ReplaceAllString(cleaned, "\n")
		cleaned = markRestRe.ReplaceAllStringFunc(cleaned, func(m string) string {
			if strings.ContainsAny(m, " \t") {
				return " "
			}
			return ""
		})
	}

	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	return cleaned, choices, links
}

// HasDirectives reports whether text contains at least one parsable tag.
func HasDirectives(text string) bool {
	return choiceTagRe.MatchString(text) || linkTagRe.MatchString(text)
}
