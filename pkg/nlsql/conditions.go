package nlsql

import (
	"regexp"
	"strconv"
	"strings"
)

type pricePattern struct {
	re *regexp.Regexp
	op Operator
}

// pricePatterns are single-bound price filters; the first match wins.
var pricePatterns = []pricePattern{
	{regexp.MustCompile(`under \$?(\d+)`), OpLt},
	{regexp.MustCompile(`below \$?(\d+)`), OpLt},
	{regexp.MustCompile(`less than \$?(\d+)`), OpLt},
	{regexp.MustCompile(`over \$?(\d+)`), OpGt},
	{regexp.MustCompile(`above \$?(\d+)`), OpGt},
	{regexp.MustCompile(`more than \$?(\d+)`), OpGt},
	{regexp.MustCompile(`exactly \$?(\d+)`), OpEq},
	{regexp.MustCompile(`\$(\d+)\+`), OpGt},
	{regexp.MustCompile(`costs? \$?(\d+)`), OpEq},
	{regexp.MustCompile(`priced? at \$?(\d+)`), OpEq},
}

var priceRange = regexp.MustCompile(`between \$?(\d+) and \$?(\d+)`)

var (
	doubleQuoted = regexp.MustCompile(`"([^"]+)"`)
	singleQuoted = regexp.MustCompile(`'([^']+)'`)
)

// namePatterns introduce a name in running text; only the first matching
// pattern is considered.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`named ([a-zA-Z\s]+)`),
	regexp.MustCompile(`called ([a-zA-Z\s]+)`),
	regexp.MustCompile(`with name ([a-zA-Z\s]+)`),
}

// extractConditions runs the category, status, price and name extractors
// in that order. Extractors are independent of each other.
func extractConditions(text string) []Condition {
	var conds []Condition
	conds = append(conds, categoryConditions(text)...)
	conds = append(conds, statusConditions(text)...)
	conds = append(conds, priceConditions(text)...)
	conds = append(conds, nameConditions(text)...)
	return conds
}

func categoryConditions(text string) []Condition {
	category, ok := firstMatch(text, categoryRules)
	if !ok {
		return nil
	}
	return []Condition{{Column: "category", Operator: OpEq, Value: Text(category)}}
}

func statusConditions(text string) []Condition {
	status, ok := firstMatch(text, statusRules)
	if !ok {
		return nil
	}
	return []Condition{{Column: "status", Operator: OpEq, Value: Text(status)}}
}

// priceConditions applies the first single-bound pattern and, independently,
// the between-range pattern. Both may contribute.
func priceConditions(text string) []Condition {
	var conds []Condition
	for _, p := range pricePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := parseAmount(m[1]); ok {
			conds = append(conds, Condition{Column: "price", Operator: p.op, Value: Number(v)})
		}
		break
	}

	if m := priceRange.FindStringSubmatch(text); m != nil {
		lo, okLo := parseAmount(m[1])
		hi, okHi := parseAmount(m[2])
		if okLo && okHi {
			conds = append(conds,
				Condition{Column: "price", Operator: OpGte, Value: Number(lo)},
				Condition{Column: "price", Operator: OpLte, Value: Number(hi)},
			)
		}
	}
	return conds
}

func parseAmount(digits string) (float64, bool) {
	v, err := strconv.ParseFloat(digits, 64)
	return v, err == nil
}

// nameConditions turns every quoted span, plus the first "named X" style
// phrase, into a LIKE filter on name.
func nameConditions(text string) []Condition {
	var conds []Condition
	like := func(s string) Condition {
		return Condition{Column: "name", Operator: OpLike, Value: Text("%" + s + "%")}
	}

	for _, m := range doubleQuoted.FindAllStringSubmatch(text, -1) {
		conds = append(conds, like(m[1]))
	}
	for _, m := range singleQuoted.FindAllStringSubmatch(text, -1) {
		conds = append(conds, like(m[1]))
	}

	for _, re := range namePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if name := strings.TrimSpace(m[1]); len(name) > 2 {
			conds = append(conds, like(name))
		}
		break
	}
	return conds
}
