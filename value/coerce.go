package value

import (
	"math"
	"strconv"
	"strings"
)

// ToBoolean implements the §4.2 to_boolean table.
func ToBoolean(v Value) bool {
	switch v.tag {
	case Boolean:
		return v.Bool()
	case Number:
		n := v.num
		return n != 0 && !math.IsNaN(n)
	case StringTag:
		return v.Str().Len() > 0
	case Undefined, Null:
		return false
	default: // object, array, function
		return true
	}
}

// ToNumber implements the §4.2 to_number table: numeric identity,
// boolean 1/0, string parse (trimmed; empty or all-whitespace → 0;
// Infinity/NaN tokens accepted; else NaN), undefined → NaN, null → 0,
// everything heap-refed → NaN.
func ToNumber(v Value) float64 {
	switch v.tag {
	case Number:
		return v.num
	case Boolean:
		if v.Bool() {
			return 1
		}
		return 0
	case Null:
		return 0
	case Undefined:
		return math.NaN()
	case StringTag:
		s := strings.TrimSpace(v.Str().Text())
		if s == "" {
			return 0
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		case "NaN":
			return math.NaN()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default: // object, array, function
		return math.NaN()
	}
}

// ToString implements the §4.2 to_string table, including the shortest
// round-trip number formatting and the NaN/Infinity/-Infinity special
// cases.
func ToString(v Value) string {
	switch v.tag {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Boolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(v.num)
	case StringTag:
		return v.Str().Text()
	case ObjectTag:
		return "[object Object]"
	case ArrayTag:
		return "[object Array]"
	case FunctionTag:
		return "[object Function]"
	default:
		return "[object Object]"
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// ToInt32 casts a number value to a signed 32-bit integer, per the
// bitwise-operator operand rule; NaN/Infinity coerce to 0.
func ToInt32(v Value) int32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}
