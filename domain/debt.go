package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	minutesPerHour = 60
	hoursPerDay    = 24
)

// Debt is the estimated remediation time of an issue.
// A Debt value obtained from NewDebt, Plus or ParseDebt always satisfies
// 0 <= Minutes < 60 and 0 <= Hours < 24.
type Debt struct {
	Days    int `json:"days" yaml:"days"`
	Hours   int `json:"hours" yaml:"hours"`
	Minutes int `json:"minutes" yaml:"minutes"`
}

// DebtFiveMins etc. are the common per-issue estimates.
var (
	DebtFiveMins   = NewDebt(0, 0, 5)
	DebtTenMins    = NewDebt(0, 0, 10)
	DebtTwentyMins = NewDebt(0, 0, 20)
)

// NewDebt builds a normalized debt, carrying minutes into hours and hours into days.
// Negative components are treated as zero.
func NewDebt(days, hours, minutes int) Debt {
	return debtFromMinutes(max(days, 0)*hoursPerDay*minutesPerHour + max(hours, 0)*minutesPerHour + max(minutes, 0))
}

func debtFromMinutes(total int) Debt {
	return Debt{
		Days:    total / (hoursPerDay * minutesPerHour),
		Hours:   (total / minutesPerHour) % hoursPerDay,
		Minutes: total % minutesPerHour,
	}
}

// Plus returns the normalized sum of two debts
func (d Debt) Plus(other Debt) Debt {
	return debtFromMinutes(d.TotalMinutes() + other.TotalMinutes())
}

// TotalMinutes returns the debt expressed in minutes
func (d Debt) TotalMinutes() int {
	return d.Days*hoursPerDay*minutesPerHour + d.Hours*minutesPerHour + d.Minutes
}

// IsZero reports whether the debt amounts to nothing
func (d Debt) IsZero() bool {
	return d.TotalMinutes() == 0
}

// String renders the debt like "1d 2h 5min"
func (d Debt) String() string {
	var parts []string
	if d.Days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", d.Days))
	}
	if d.Hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", d.Hours))
	}
	if d.Minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dmin", d.Minutes))
	}
	return strings.Join(parts, " ")
}

var debtPartPattern = regexp.MustCompile(`^(\d+)(d|h|min)$`)

// ParseDebt parses the String form back into a normalized Debt
func ParseDebt(s string) (Debt, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Debt{}, fmt.Errorf("empty debt value")
	}
	var days, hours, minutes int
	for _, f := range fields {
		m := debtPartPattern.FindStringSubmatch(f)
		if m == nil {
			return Debt{}, fmt.Errorf("invalid debt component '%s' in '%s'", f, s)
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Debt{}, fmt.Errorf("invalid debt component '%s': %w", f, err)
		}
		switch m[2] {
		case "d":
			days += n
		case "h":
			hours += n
		case "min":
			minutes += n
		}
	}
	return NewDebt(days, hours, minutes), nil
}

// SumDebt adds up the given debts. The boolean is false for an empty input:
// no findings have no debt, which differs from findings totaling zero.
func SumDebt(debts []Debt) (Debt, bool) {
	if len(debts) == 0 {
		return Debt{}, false
	}
	var total Debt
	for _, d := range debts {
		total = total.Plus(d)
	}
	return total, true
}
