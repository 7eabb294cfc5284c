/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sqlvalue

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownType is returned when a column type has no decoding rule.
	ErrUnknownType = errors.New("unrecognized column type")
	// ErrConversion is returned when a driver value cannot be coerced to the
	// column's declared type.
	ErrConversion = errors.New("column value conversion failed")
	// ErrOverflow is returned when a numeric value does not fit in 64 bits.
	ErrOverflow = errors.New("numeric value out of range")
)

const dateLayout = "2006-01-02"

// Decode converts the raw driver value of a column with the given declared
// type name. A nil raw value decodes to Null. An unrecognized type decodes to
// Null together with ErrUnknownType so callers can note it and move on.
func Decode(databaseTypeName string, raw interface{}) (Value, error) {
	t := TypeOf(databaseTypeName)
	if t == TypeUnknown && strings.TrimSpace(databaseTypeName) == "" {
		t = inferType(raw)
	}

	return DecodeAs(t, raw)
}

// DecodeAs converts raw using the decoding rule of t.
func DecodeAs(t SQLType, raw interface{}) (Value, error) {
	if raw == nil {
		return Null(t), nil
	}

	switch t {
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt:
		n, err := toInt64(raw)
		if err != nil {
			return Null(t), fmt.Errorf("%w: %s from %T: %w", ErrConversion, t, raw, err)
		}

		return intValue(t, n), nil
	case TypeDecimal:
		n, err := truncateDecimal(raw)
		if err != nil {
			return Null(t), fmt.Errorf("%w: %s from %T: %w", ErrConversion, t, raw, err)
		}

		return intValue(t, n), nil
	case TypeFloat, TypeDouble:
		f, single, err := toFloat(raw)
		if err != nil {
			return Null(t), fmt.Errorf("%w: %s from %T: %w", ErrConversion, t, raw, err)
		}

		return floatValue(t, f, single || t == TypeFloat), nil
	case TypeBoolean:
		b, err := toBool(raw)
		if err != nil {
			return Null(t), fmt.Errorf("%w: %s from %T: %w", ErrConversion, t, raw, err)
		}

		return stringValue(t, strconv.FormatBool(b)), nil
	case TypeClob, TypeChar:
		return stringValue(t, Format(raw)), nil
	case TypeVarchar:
		return stringValue(t, trimControl(Format(raw))), nil
	case TypeVarbinary:
		return stringValue(t, binaryHandle(raw)), nil
	case TypeDate:
		if ts, ok := raw.(time.Time); ok {
			return stringValue(t, ts.Format(dateLayout)), nil
		}

		return stringValue(t, trimControl(Format(raw))), nil
	case TypeTimestamp:
		if ts, ok := raw.(time.Time); ok {
			return stringValue(t, FormatTimestamp(ts)), nil
		}

		return stringValue(t, trimControl(Format(raw))), nil
	case TypeUnknown:
	}

	return Null(TypeUnknown), ErrUnknownType
}

// inferType picks a decoding rule from the Go type of a driver value. Drivers
// such as sqlite report no declared type for computed expressions.
func inferType(raw interface{}) SQLType {
	switch raw.(type) {
	case int64, int32, int16, int8, int, uint64, uint32, uint16, uint8, uint:
		return TypeBigInt
	case float32:
		return TypeFloat
	case float64:
		return TypeDouble
	case bool:
		return TypeBoolean
	case string:
		return TypeVarchar
	case []byte:
		return TypeVarbinary
	case time.Time:
		return TypeTimestamp
	}

	return TypeUnknown
}

func toInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, ErrOverflow
		}

		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, ErrOverflow
		}

		return int64(v), nil
	case float32, float64:
		return truncateDecimal(v)
	case bool:
		if v {
			return 1, nil
		}

		return 0, nil
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}

	return 0, fmt.Errorf("unsupported driver type %T", raw)
}

// truncateDecimal drops the fractional part of an exact or approximate number,
// rounding toward zero.
func truncateDecimal(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return truncateFloat(v)
	case float32:
		return truncateFloat(float64(v))
	case []byte:
		return truncateText(string(v))
	case string:
		return truncateText(v)
	case fmt.Stringer:
		return truncateText(v.String())
	}

	return toInt64(raw)
}

func truncateFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrOverflow
	}

	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, ErrOverflow
	}

	return int64(f), nil
}

func truncateText(s string) (int64, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return 0, fmt.Errorf("invalid decimal %q", s)
	}

	q := new(big.Int).Quo(r.Num(), r.Denom())
	if !q.IsInt64() {
		return 0, ErrOverflow
	}

	return q.Int64(), nil
}

func toFloat(raw interface{}) (float64, bool, error) {
	switch v := raw.(type) {
	case float32:
		return float64(v), true, nil
	case float64:
		return v, false, nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f, false, err
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, false, err
	}

	n, err := toInt64(raw)
	if err != nil {
		return 0, false, err
	}

	return float64(n), false, nil
}

func toBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case []byte:
		// BIT(1) columns arrive as a single raw byte
		if len(v) == 1 && v[0] <= 1 {
			return v[0] == 1, nil
		}

		return parseBool(string(v))
	case string:
		return parseBool(v)
	}

	n, err := toInt64(raw)
	if err != nil {
		return false, err
	}

	return n != 0, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off", "":
		return false, nil
	}

	return false, fmt.Errorf("invalid boolean %q", s)
}

// trimControl removes leading and trailing whitespace and control characters.
func trimControl(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}

// binaryHandle renders a binary column as an opaque stream handle rather than
// its content. Downstream consumers rely on this exact shape.
func binaryHandle(raw interface{}) string {
	var b []byte

	switch v := raw.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		b = []byte(fmt.Sprint(raw))
	}

	r := bytes.NewReader(b)

	return fmt.Sprintf("%T@%p", r, r)
}

// FormatTimestamp renders t as "yyyy-mm-dd hh:mm:ss.f" with trailing zeros
// removed from the fraction and at least one fractional digit.
func FormatTimestamp(t time.Time) string {
	frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond()), "0")
	if frac == "" {
		frac = "0"
	}

	return t.Format("2006-01-02 15:04:05") + "." + frac
}

// Format renders a raw driver value the way a driver's string accessor would.
// NULL renders as the empty string.
func Format(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return FormatTimestamp(v)
	}

	return fmt.Sprint(raw)
}
