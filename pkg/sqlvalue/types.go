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

// Package sqlvalue converts driver column values into the small set of value
// kinds understood by row parsers.
package sqlvalue

import (
	"regexp"
	"strings"
)

// SQLType is the normalized declared type of a result column.
type SQLType int

const (
	TypeUnknown SQLType = iota
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeBoolean
	TypeClob
	TypeVarchar
	TypeChar
	TypeVarbinary
	TypeDate
	TypeTimestamp
)

var typeNames = map[SQLType]string{
	TypeUnknown:   "UNKNOWN",
	TypeTinyInt:   "TINYINT",
	TypeSmallInt:  "SMALLINT",
	TypeInteger:   "INTEGER",
	TypeBigInt:    "BIGINT",
	TypeFloat:     "FLOAT",
	TypeDouble:    "DOUBLE",
	TypeDecimal:   "DECIMAL",
	TypeBoolean:   "BOOLEAN",
	TypeClob:      "CLOB",
	TypeVarchar:   "VARCHAR",
	TypeChar:      "CHAR",
	TypeVarbinary: "VARBINARY",
	TypeDate:      "DATE",
	TypeTimestamp: "TIMESTAMP",
}

func (t SQLType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return typeNames[TypeUnknown]
}

// declared type names reported by the supported drivers, upper-cased and
// stripped of length/precision modifiers.
var declaredTypes = map[string]SQLType{
	"TINYINT":     TypeTinyInt,
	"INT1":        TypeTinyInt,
	"SMALLINT":    TypeSmallInt,
	"INT2":        TypeSmallInt,
	"SMALLSERIAL": TypeSmallInt,
	"INT":         TypeInteger,
	"INTEGER":     TypeInteger,
	"INT4":        TypeInteger,
	"MEDIUMINT":   TypeInteger,
	"SERIAL":      TypeInteger,
	"BIGINT":      TypeBigInt,
	"INT8":        TypeBigInt,
	"BIGSERIAL":   TypeBigInt,

	"REAL":             TypeFloat,
	"FLOAT4":           TypeFloat,
	"BINARY_FLOAT":     TypeFloat,
	"SMALLDECIMAL":     TypeDecimal,
	"FLOAT":            TypeDouble,
	"FLOAT8":           TypeDouble,
	"DOUBLE":           TypeDouble,
	"DOUBLE PRECISION": TypeDouble,
	"BINARY_DOUBLE":    TypeDouble,

	"DECIMAL":    TypeDecimal,
	"DEC":        TypeDecimal,
	"NUMERIC":    TypeDecimal,
	"NUMBER":     TypeDecimal,
	"FIXED":      TypeDecimal,
	"MONEY":      TypeDecimal,
	"SMALLMONEY": TypeDecimal,
	"DECFLOAT":   TypeDecimal,

	"BIT":     TypeBoolean,
	"BOOL":    TypeBoolean,
	"BOOLEAN": TypeBoolean,

	"CLOB":       TypeClob,
	"NCLOB":      TypeClob,
	"TEXT":       TypeClob,
	"NTEXT":      TypeClob,
	"TINYTEXT":   TypeClob,
	"MEDIUMTEXT": TypeClob,
	"LONGTEXT":   TypeClob,
	"LONG":       TypeClob,

	"VARCHAR":                    TypeVarchar,
	"VARCHAR2":                   TypeVarchar,
	"NVARCHAR":                   TypeVarchar,
	"NVARCHAR2":                  TypeVarchar,
	"CHARACTER VARYING":          TypeVarchar,
	"NATIONAL CHARACTER VARYING": TypeVarchar,
	"VARYING CHARACTER":          TypeVarchar,
	"STRING":                     TypeVarchar,
	"SYSNAME":                    TypeVarchar,
	"ALPHANUM":                   TypeVarchar,
	"SHORTTEXT":                  TypeVarchar,

	"CHAR":      TypeChar,
	"NCHAR":     TypeChar,
	"BPCHAR":    TypeChar,
	"CHARACTER": TypeChar,

	"VARBINARY":      TypeVarbinary,
	"BYTEA":          TypeVarbinary,
	"BINARY VARYING": TypeVarbinary,

	"DATE": TypeDate,

	"TIMESTAMP":                   TypeTimestamp,
	"TIMESTAMPTZ":                 TypeTimestamp,
	"TIMESTAMP WITH TIME ZONE":    TypeTimestamp,
	"TIMESTAMP WITHOUT TIME ZONE": TypeTimestamp,
	"TIMESTAMP_NTZ":               TypeTimestamp,
	"TIMESTAMP_LTZ":               TypeTimestamp,
	"TIMESTAMP_TZ":                TypeTimestamp,
	"DATETIME":                    TypeTimestamp,
	"DATETIME2":                   TypeTimestamp,
	"SMALLDATETIME":               TypeTimestamp,
	"DATETIMEOFFSET":              TypeTimestamp,
	"SECONDDATE":                  TypeTimestamp,
}

var typeModifier = regexp.MustCompile(`\s*\([^)]*\)`)

// TypeOf maps a driver's DatabaseTypeName onto an SQLType. Length, precision
// and signedness modifiers are ignored.
func TypeOf(databaseTypeName string) SQLType {
	name := strings.ToUpper(strings.TrimSpace(databaseTypeName))
	name = typeModifier.ReplaceAllString(name, "")
	name = strings.TrimSuffix(name, " UNSIGNED")
	name = strings.TrimPrefix(name, "UNSIGNED ")
	name = strings.Join(strings.Fields(name), " ")

	if t, ok := declaredTypes[name]; ok {
		return t
	}

	return TypeUnknown
}
