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

package parser

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/carverauto/sqlpoller/pkg/logger"
)

// Constructor creates a fresh parser instance.
type Constructor func(log logger.Logger) Parser

// Registry maps parser names to constructors. Names are matched ignoring case.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns a registry holding the built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}

	r.Register(GenericName, func(log logger.Logger) Parser { return NewGeneric(log) })
	r.Register(KeyValueName, func(log logger.Logger) Parser { return NewKeyValue(log) })
	r.Register(WatermarkName, func(log logger.Logger) Parser { return NewWatermark(log) })

	return r
}

// Register adds or replaces a parser constructor.
func (r *Registry) Register(name string, ctor Constructor) {
	r.constructors[strings.ToLower(strings.TrimSpace(name))] = ctor
}

// Names lists the registered parser names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resolve builds the parser registered as name and applies options to it.
// An empty name selects the generic parser. Unknown names and options the
// parser rejects fall back to the generic parser after a warning; Resolve
// never fails.
func (r *Registry) Resolve(name string, options json.RawMessage, log logger.Logger) Parser {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == GenericName {
		if len(options) > 0 {
			log.Info().Msg("Parser options are ignored by the generic parser")
		}

		return NewGeneric(log)
	}

	ctor, ok := r.constructors[key]
	if !ok {
		log.Warn().
			Str("parser", name).
			Strs("available", r.Names()).
			Msg("Unknown parser, falling back to generic parser")

		return NewGeneric(log)
	}

	p := ctor(log)
	if err := p.SetOptions(options); err != nil {
		log.Warn().
			Err(err).
			Str("parser", name).
			Msg("Invalid parser options, falling back to generic parser")

		return NewGeneric(log)
	}

	log.Debug().Str("parser", p.Name()).Msg("Using parser")

	return p
}
