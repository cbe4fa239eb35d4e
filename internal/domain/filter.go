package domain

import (
	"regexp"
	"strings"
)

// BuildKeywordPattern joins the active keyword set into one
// case-insensitive alternation. Keywords are treated as regular
// expressions (the original feature allows patterns); if the joined
// pattern does not compile, every keyword is quoted and matched as a
// plain substring instead. An empty set yields nil: match nothing.
func BuildKeywordPattern(keywords []string) *regexp.Regexp {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k != "" {
			terms = append(terms, k)
		}
	}
	if len(terms) == 0 {
		return nil
	}
	re, err := regexp.Compile("(?i)" + strings.Join(terms, "|"))
	if err == nil {
		return re
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
}

// MatchEvents returns the subset of events whose summary+description
// matches any active keyword. No keywords means no matches.
func MatchEvents(events []ExternalEvent, keywords []string) []ExternalEvent {
	re := BuildKeywordPattern(keywords)
	if re == nil {
		return nil
	}
	var matched []ExternalEvent
	for _, ev := range events {
		if re.MatchString(ev.Summary + " " + ev.Description) {
			matched = append(matched, ev)
		}
	}
	return matched
}
