package controllers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/adamanr/worklog_service/internal/entity"
)

const (
	maxNameLength     = 50
	minUserNameLength = 2
	minPasswordLength = 6
	maxRemarksLength  = 500
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
)

func validEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func validPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// normalizeEmail trims and lower-cases an address.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func textLength(s string) int {
	return utf8.RuneCountInString(s)
}

// pageOptions validates page and limit query values. A limit above the
// configured maximum is clamped rather than rejected.
func pageOptions(page, limit *int, errs *entity.ValidationError) (int, int) {
	p, l := 1, 0

	if page != nil {
		if *page < 1 {
			errs.Add("Page must be a positive integer")
		} else {
			p = *page
		}
	}

	if limit != nil {
		if *limit < 1 {
			errs.Add("Limit must be a positive integer")
		} else {
			l = *limit
		}
	}

	return p, l
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
