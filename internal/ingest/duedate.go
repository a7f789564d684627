package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateRule recognises one due-date shape and returns its day, month and year.
type dateRule struct {
	name  string
	re    *regexp.Regexp
	parse func(m []string) (day, month, year int, ok bool)
}

var dueDateRules = []dateRule{
	{name: "DD-MM-YYYY", re: regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), parse: dmy(1, 2, 3)},
	{name: "YYYY-MM-DD", re: regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), parse: dmy(3, 2, 1)},
	{name: "DD/MM/YYYY", re: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), parse: dmy(1, 2, 3)},
	{name: "YYYY/MM/DD", re: regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`), parse: dmy(3, 2, 1)},
	{name: "MM-YYYY", re: regexp.MustCompile(`^(\d{1,2})-(\d{4})$`), parse: monthYear},
	{name: "Month YYYY", re: regexp.MustCompile(`^(?i)([a-z]+)\.?,?\s+(\d{4})$`), parse: monthNameYear},
}

var monthNames = map[string]int{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		monthNames[name] = int(m)
		monthNames[name[:3]] = int(m)
	}
	monthNames["sept"] = int(time.September)
}

// NormalizeDueDate rewrites a due date to DD-MM-YYYY. Month-only forms get day 01.
// Input that matches no rule, or names an impossible date, is returned unchanged.
func NormalizeDueDate(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, r := range dueDateRules {
		m := r.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		day, month, year, ok := r.parse(m)
		if !ok || !validDate(day, month, year) {
			continue
		}
		return fmt.Sprintf("%02d-%02d-%04d", day, month, year)
	}
	return s
}

func dmy(dayIdx, monthIdx, yearIdx int) func(m []string) (int, int, int, bool) {
	return func(m []string) (int, int, int, bool) {
		return atoi(m[dayIdx]), atoi(m[monthIdx]), atoi(m[yearIdx]), true
	}
}

func monthYear(m []string) (int, int, int, bool) {
	return 1, atoi(m[1]), atoi(m[2]), true
}

func monthNameYear(m []string) (int, int, int, bool) {
	month, ok := monthNames[strings.ToLower(m[1])]
	if !ok {
		return 0, 0, 0, false
	}
	return 1, month, atoi(m[2]), true
}

func validDate(day, month, year int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
