// Package tickets extracts ticket identifiers from pull request text and
// builds tracker links for them.
package tickets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/danielolaszy/prlink/pkg/models"
)

// markdownLink matches an inline markdown link such as [text](url).
var markdownLink = regexp.MustCompile(`\[[^\]]*\]\([^)\s]*\)`)

// Compile compiles a ticket pattern. The pattern is mandatory.
func Compile(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, models.NewConfigurationError("ticket pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &models.ConfigurationError{Err: fmt.Errorf("invalid ticket pattern %q: %w", pattern, err)}
	}
	return re, nil
}

// Extract returns every non-overlapping match of re in text, in order of
// appearance. Duplicates are kept and empty matches are dropped. It fails
// with a NoTicketFoundError when nothing matches.
func Extract(text string, re *regexp.Regexp) ([]string, error) {
	var matches []string
	for _, m := range re.FindAllString(text, -1) {
		if m != "" {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil, &models.NoTicketFoundError{}
	}
	return matches, nil
}

// ExtractPattern compiles pattern and extracts matches from text.
func ExtractPattern(text, pattern string) ([]string, error) {
	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return Extract(text, re)
}

// Unique removes duplicate IDs, keeping the first occurrence of each.
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// Linkify replaces every match of re in text with a markdown link built by
// linkFor. Matches that sit inside an existing markdown link are left alone,
// so running Linkify on its own output changes nothing.
func Linkify(text string, re *regexp.Regexp, linkFor func(id string) string) string {
	protected := markdownLink.FindAllStringIndex(text, -1)

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(text, -1) {
		if m[0] == m[1] || insideAny(m, protected) {
			continue
		}
		id := text[m[0]:m[1]]
		b.WriteString(text[last:m[0]])
		fmt.Fprintf(&b, "[%s](%s)", id, linkFor(id))
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func insideAny(m []int, spans [][]int) bool {
	for _, s := range spans {
		if m[0] < s[1] && m[1] > s[0] {
			return true
		}
	}
	return false
}

// NormalizeBaseURL returns u with exactly one trailing slash.
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(u, "/") + "/"
}

// JoinURL joins base and path with exactly one separating slash.
func JoinURL(base, path string) string {
	return NormalizeBaseURL(base) + strings.TrimLeft(path, "/")
}

// IssueURL returns the tracker web link for a ticket: <base>/issue/<id>.
func IssueURL(base, id string) string {
	return JoinURL(base, "issue/"+id)
}
