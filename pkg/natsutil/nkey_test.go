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

package natsutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
)

func writeSeed(t *testing.T, kp nkeys.KeyPair) string {
	t.Helper()

	seed, err := kp.Seed()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "user.nk")
	require.NoError(t, os.WriteFile(path, append(seed, '\n'), 0o600))

	return path
}

func TestConnectWithNKeySeed(t *testing.T) {
	user, err := nkeys.CreateUser()
	require.NoError(t, err)

	pub, err := user.PublicKey()
	require.NoError(t, err)

	srv, err := server.NewServer(&server.Options{
		Host:  "127.0.0.1",
		Port:  -1,
		Nkeys: []*server.NkeyUser{{Nkey: pub}},
	})
	require.NoError(t, err)

	go srv.Start()
	defer srv.Shutdown()

	require.True(t, srv.ReadyForConnections(10*time.Second), "embedded NATS server not ready")

	cfg := &models.NATSReporterConfig{URL: srv.ClientURL(), NKeySeedFile: writeSeed(t, user)}

	nc, err := Connect(cfg, "sqlpoller-test", logger.NewTestLogger())
	require.NoError(t, err)
	assert.True(t, nc.IsConnected())
	nc.Close()

	other, err := nkeys.CreateUser()
	require.NoError(t, err)

	cfg.NKeySeedFile = writeSeed(t, other)

	_, err = Connect(cfg, "sqlpoller-test", logger.NewTestLogger())
	require.ErrorContains(t, err, "failed to connect to NATS")
}

func TestNKeyOptionRejectsBadSeeds(t *testing.T) {
	t.Parallel()

	_, err := NKeyOption(filepath.Join(t.TempDir(), "missing.nk"))
	require.ErrorContains(t, err, "failed to read nkey seed")

	account, err := nkeys.CreateAccount()
	require.NoError(t, err)

	_, err = NKeyOption(writeSeed(t, account))
	require.ErrorIs(t, err, ErrInvalidNKeySeed)

	garbage := filepath.Join(t.TempDir(), "garbage.nk")
	require.NoError(t, os.WriteFile(garbage, []byte("not a seed"), 0o600))

	_, err = NKeyOption(garbage)
	require.ErrorIs(t, err, ErrInvalidNKeySeed)
}
