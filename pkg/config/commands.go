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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/carverauto/sqlpoller/pkg/dialect"
	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
)

var errMalformedDefinitions = errors.New("malformed command definition file")

// LoadCommands reads the JSON array of command definitions at path.
//
// A file that cannot be read or is not a JSON array is an error and nothing
// is returned. Otherwise every valid definition is returned; invalid ones are
// logged and dropped, and their problems are joined into the returned error.
// Definitions naming an unknown provider are skipped with a log entry only.
func LoadCommands(path string, log logger.Logger) ([]models.CommandDefinition, error) {
	log.Info().Str("path", path).Msg("Reading command definitions")

	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read command file '%s': %w", path, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w '%s': %w", errMalformedDefinitions, path, err)
	}

	var (
		defs []models.CommandDefinition
		errs []error
	)

	for i, entry := range entries {
		var def models.CommandDefinition

		if err := json.Unmarshal(entry, &def); err != nil {
			log.Error().Err(err).Int("index", i).Msg("Unable to decode command definition")
			errs = append(errs, fmt.Errorf("definition %d: %w", i, err))

			continue
		}

		if err := def.Validate(); err != nil {
			log.Error().Err(err).Int("index", i).Str("name", def.Name).Msg("Invalid command definition")
			errs = append(errs, fmt.Errorf("definition %d (%s): %w", i, def.Name, err))

			continue
		}

		if _, err := dialect.Lookup(def.Provider); err != nil {
			log.Error().Str("name", def.Name).Str("provider", def.Provider).Msg("Unable to load command, unknown provider")
			continue
		}

		defs = append(defs, def)
	}

	log.Info().Int("loaded", len(defs)).Int("total", len(entries)).Msg("Loaded command definitions")

	return defs, errors.Join(errs...)
}
