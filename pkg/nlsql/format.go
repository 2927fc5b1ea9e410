package nlsql

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatNumber renders a float the way the compiler writes numeric literals:
// integral values keep one decimal place ("500.0"), others use the shortest
// exact representation.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatMoney renders an amount with thousands separators and two decimals.
func formatMoney(f float64) string {
	return message.NewPrinter(language.English).Sprintf("%.2f", f)
}

// toFloat converts a scanned column value to a float.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	return 0, false
}

// display renders a scanned value for prose.
func display(v any) string {
	switch n := v.(type) {
	case float64:
		return formatNumber(n)
	case float32:
		return formatNumber(float64(n))
	case []byte:
		return string(n)
	case nil:
		return "0"
	}
	return fmt.Sprint(v)
}
