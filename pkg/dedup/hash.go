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

package dedup

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/sqlpoller/pkg/rowset"
	"github.com/carverauto/sqlpoller/pkg/sqlvalue"
)

// ErrRowTooLarge is returned when a row's bytes exceed the hash buffer.
var ErrRowTooLarge = errors.New("row exceeds hash buffer")

// Mode selects how column values are turned into hash input.
type Mode int

const (
	// ModeBytes hashes raw column bytes in a fixed-size zero-padded buffer.
	ModeBytes Mode = iota
	// ModeString hashes the UTF-8 string rendering of each column value.
	ModeString
)

// Hasher fingerprints a row. Every column but the last one contributes.
type Hasher interface {
	Hash(row *rowset.Row) (string, error)
}

// NewHasher returns the Hasher for mode.
func NewHasher(mode Mode, bufferSize int) Hasher {
	if mode == ModeString {
		return StringHasher{}
	}

	return ByteHasher{BufferSize: bufferSize}
}

// ByteHasher copies column bytes into a buffer of BufferSize bytes and hashes
// the whole buffer, padding included.
type ByteHasher struct {
	BufferSize int
}

// Hash implements Hasher.
func (h ByteHasher) Hash(row *rowset.Row) (string, error) {
	buf := make([]byte, h.BufferSize)
	pos := 0

	for c := 0; c < row.Len()-1; c++ {
		b := columnBytes(row.Values[c])
		if pos+len(b) > len(buf) {
			return "", fmt.Errorf("%w: %d bytes at column %d, buffer is %d",
				ErrRowTooLarge, pos+len(b), c+1, len(buf))
		}

		pos += copy(buf[pos:], b)
	}

	sum := md5.Sum(buf) //nolint:gosec

	return hex.EncodeToString(sum[:]), nil
}

// StringHasher hashes the concatenated string rendering of the columns. NULL
// renders as "null".
type StringHasher struct{}

// Hash implements Hasher.
func (StringHasher) Hash(row *rowset.Row) (string, error) {
	var sb strings.Builder

	for c := 0; c < row.Len()-1; c++ {
		sb.WriteString(render(row.Values[c]))
	}

	sum := md5.Sum([]byte(sb.String())) //nolint:gosec

	return hex.EncodeToString(sum[:]), nil
}

func columnBytes(v interface{}) []byte {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return x
	case string:
		return []byte(x)
	}

	return []byte(render(v))
}

func render(v interface{}) string {
	if v == nil {
		return "null"
	}

	return sqlvalue.Format(v)
}
