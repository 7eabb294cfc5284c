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

package command

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/parser"
)

var (
	errQueryRejected = errors.New("query rejected")
	errHookFailed    = errors.New("hook failed")
)

// closeRecorder collects the order in which driver resources are closed.
type closeRecorder struct {
	mu     sync.Mutex
	closed []string
}

func (r *closeRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = append(r.closed, name)
}

func (r *closeRecorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.closed...)
}

type recordingConnector struct {
	rec       *closeRecorder
	ids       []int64
	failQuery bool
}

func (c *recordingConnector) Connect(context.Context) (driver.Conn, error) {
	return &recordingConn{connector: c}, nil
}

func (c *recordingConnector) Driver() driver.Driver { return recordingDriver{connector: c} }

type recordingDriver struct{ connector *recordingConnector }

func (d recordingDriver) Open(string) (driver.Conn, error) {
	return d.connector.Connect(context.Background())
}

type recordingConn struct{ connector *recordingConnector }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return &recordingStmt{connector: c.connector}, nil
}

func (c *recordingConn) Close() error {
	c.connector.rec.record("conn")
	return nil
}

func (*recordingConn) Begin() (driver.Tx, error) { return nil, errors.ErrUnsupported }

type recordingStmt struct{ connector *recordingConnector }

func (s *recordingStmt) Close() error {
	s.connector.rec.record("stmt")
	return nil
}

func (*recordingStmt) NumInput() int { return -1 }

func (*recordingStmt) Exec([]driver.Value) (driver.Result, error) { return nil, errors.ErrUnsupported }

func (s *recordingStmt) Query([]driver.Value) (driver.Rows, error) {
	if s.connector.failQuery {
		return nil, errQueryRejected
	}

	return &recordingRows{connector: s.connector}, nil
}

type recordingRows struct {
	connector *recordingConnector
	next      int
}

func (*recordingRows) Columns() []string { return []string{"id"} }

func (r *recordingRows) Close() error {
	r.connector.rec.record("rows")
	return nil
}

func (r *recordingRows) Next(dest []driver.Value) error {
	if r.next >= len(r.connector.ids) {
		return io.EOF
	}

	dest[0] = r.connector.ids[r.next]
	r.next++

	return nil
}

func openRecordingDB(t *testing.T, connector *recordingConnector) *sql.DB {
	t.Helper()

	db := sql.OpenDB(connector)
	// connections go back to the driver as soon as they are released
	db.SetMaxIdleConns(0)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// failingAfterQuery is the generic parser with a post-query hook that fails.
type failingAfterQuery struct {
	parser.Parser
}

func (failingAfterQuery) AfterQuery(context.Context) error { return errHookFailed }

func TestReleaseClosesEveryResourceOnEachPath(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		failQuery  bool
		afterFails bool
		wantRows   int
		wantErr    bool
		wantClosed []string
	}{
		"success": {
			wantRows:   2,
			wantClosed: []string{"rows", "stmt", "conn"},
		},
		"sql failure": {
			failQuery:  true,
			wantRows:   1,
			wantErr:    true,
			wantClosed: []string{"stmt", "conn"},
		},
		"other failure": {
			afterFails: true,
			wantRows:   2,
			wantClosed: []string{"rows", "stmt", "conn"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := &closeRecorder{}
			db := openRecordingDB(t, &recordingConnector{rec: rec, ids: []int64{1, 2}, failQuery: tt.failQuery})

			c := newTestCommand(t, db, definition("recorded", "metric", "SELECT id FROM recorded"))
			if tt.afterFails {
				c.parser = failingAfterQuery{Parser: parser.NewGeneric(logger.NewTestLogger())}
			}

			result := c.Execute(context.Background())
			assert.Len(t, result.Metrics, tt.wantRows)
			assert.Equal(t, tt.wantErr, result.Err != nil)

			// database/sql closes a drained cursor on its own, so only the
			// statement and connection order is ours on the success paths
			closed := rec.events()
			assert.ElementsMatch(t, tt.wantClosed, closed)
			require.NotEmpty(t, closed)
			assert.Equal(t, "conn", closed[len(closed)-1])
			assert.Less(t, indexOf(closed, "stmt"), indexOf(closed, "conn"))
		})
	}
}

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}

	return -1
}

type namedCloser struct {
	name string
	rec  *closeRecorder
	err  error
}

func (n namedCloser) Close() error {
	n.rec.record(n.name)
	return n.err
}

func TestCloseAllKeepsOrderAndContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	db, _ := openTestDB(t)
	c := newTestCommand(t, db, definition("closing", "metric", "SELECT 1"))

	rec := &closeRecorder{}
	c.closeAll([]resource{
		{name: "statement", closer: namedCloser{name: "statement", rec: rec, err: errors.New("already closed")}},
		{name: "result set", closer: namedCloser{name: "result set", rec: rec}},
		{name: "connection", closer: namedCloser{name: "connection", rec: rec}},
	})

	assert.Equal(t, []string{"statement", "result set", "connection"}, rec.events())
}

func TestAfterQueryFailureKeepsPartialResult(t *testing.T) {
	t.Parallel()

	db, _ := openTestDB(t,
		`CREATE TABLE partial (id INTEGER, note VARCHAR(10))`,
		`INSERT INTO partial VALUES (1, 'a'), (2, 'b'), (3, 'c')`)

	c := newTestCommand(t, db, definition("partial", "metric", "SELECT id, note FROM partial"))
	c.parser = failingAfterQuery{Parser: parser.NewGeneric(logger.NewTestLogger())}

	result := c.Execute(context.Background())
	require.NoError(t, result.Err)
	require.Len(t, result.Metrics, 3)

	_, hasErrorCode := result.Metrics[0].Lookup("errorCode")
	assert.False(t, hasErrorCode)
}
