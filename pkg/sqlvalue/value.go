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

// Kind is the shape of a decoded column value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
)

// Value is the decoded form of a single column in a single row.
type Value struct {
	Kind   Kind
	Type   SQLType
	Int    int64
	Float  float64
	Str    string
	single bool
}

// Null returns an absent value for the given column type.
func Null(t SQLType) Value {
	return Value{Kind: KindNull, Type: t}
}

func intValue(t SQLType, v int64) Value {
	return Value{Kind: KindInt, Type: t, Int: v}
}

func floatValue(t SQLType, v float64, single bool) Value {
	if single {
		v = float64(float32(v))
	}

	return Value{Kind: KindFloat, Type: t, Float: v, single: single}
}

func stringValue(t SQLType, v string) Value {
	return Value{Kind: KindString, Type: t, Str: v}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsNumeric reports whether the value is an integer or floating point number.
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// IsSingle reports whether a float value carries single precision.
func (v Value) IsSingle() bool { return v.single }

// Interface returns the value as int64, float32, float64, string or nil.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		if v.single {
			return float32(v.Float)
		}

		return v.Float
	case KindString:
		return v.Str
	case KindNull:
		return nil
	}

	return nil
}
