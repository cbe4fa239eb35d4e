package domain

import (
	"regexp"
	"strings"
)

// Korean court case numbers look like "2025나12345": filing year, one
// or more Hangul case-type characters, a serial number.
var caseNumberRe = regexp.MustCompile(`\d{4}[가-힣]+\d+`)

// bracketRe strips courtroom annotations like "[법정1]".
var bracketRe = regexp.MustCompile(`\[[^\]]*\]`)

// eventKeywords are generic hearing-event words that carry no case
// identity and are removed when deriving the case name.
var eventKeywords = []string{"변론", "기일", "재판", "심리", "검찰조사"}

// ExtractCaseNumber returns the first case-number token found in the
// event summary or description, or "" when absent.
func ExtractCaseNumber(summary, description string) string {
	return caseNumberRe.FindString(summary + " " + description)
}

// ExtractCaseName derives the case name from an event summary by
// removing the case-number token, generic hearing keywords and
// bracketed annotations. Returns "" when nothing meaningful remains.
func ExtractCaseName(summary string) string {
	s := caseNumberRe.ReplaceAllString(summary, "")
	for _, kw := range eventKeywords {
		s = strings.ReplaceAll(s, kw, "")
	}
	s = bracketRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// FormatTitle builds the schedule title "[업무] {caseNumber} {caseName}
// 서면작성", omitting the optional parts when absent.
func FormatTitle(caseNumber, caseName string) string {
	parts := []string{"[업무]"}
	if caseNumber != "" {
		parts = append(parts, caseNumber)
	}
	if caseName != "" {
		parts = append(parts, caseName)
	}
	parts = append(parts, "서면작성")
	return strings.Join(parts, " ")
}
