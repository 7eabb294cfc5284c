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

package poller

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/sqlpoller/pkg/dialect"
	"github.com/carverauto/sqlpoller/pkg/logger"
	"github.com/carverauto/sqlpoller/pkg/models"
	"github.com/carverauto/sqlpoller/pkg/report"
)

var errReportFailed = errors.New("report failed")

func strPtr(s string) *string { return &s }

// openTestDB creates a shared in-memory database named after the test. The
// returned handle keeps it alive while the poller opens its own.
func openTestDB(t *testing.T, statements ...string) (*sql.DB, string) {
	t.Helper()

	return openNamedDB(t, t.Name(), statements...)
}

func openNamedDB(t *testing.T, name string, statements ...string) (*sql.DB, string) {
	t.Helper()

	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)

	db, err := dialect.SQLite{}.Open(models.ConnectionConfig{Hostname: dialect.MemoryHost, Database: name})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	return db, name
}

func testAgent() *models.AgentConfig {
	return &models.AgentConfig{
		Name:             "agent1",
		Host:             dialect.MemoryHost,
		InputFile:        "commands.json",
		PollInterval:     models.Duration(time.Minute),
		StaticAttributes: map[string]string{"region": "eu", "env": "test"},
	}
}

func definition(name, provider, database, queryType, query string) models.CommandDefinition {
	return models.CommandDefinition{
		Name:     name,
		Provider: provider,
		Database: strPtr(database),
		Query:    strPtr(query),
		Type:     strPtr(queryType),
	}
}

func newTestPoller(t *testing.T, rep report.Reporter, clock Clock, defs ...models.CommandDefinition) *Poller {
	t.Helper()

	p, err := New(Config{Agent: testAgent(), Definitions: defs, Reporter: rep}, clock, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.pool.Close() })

	return p
}

func rowAttribute(t *testing.T, row models.MetricRow, name string) interface{} {
	t.Helper()

	m, ok := row.Lookup(name)
	require.True(t, ok, "missing %s", name)

	return m.Value
}

func TestNewSkipsUnknownProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, dbName := openTestDB(t)

	p := newTestPoller(t, report.NewMockReporter(ctrl), nil,
		definition("q1", "SQLite", dbName, "metric", "SELECT 1 AS one"),
		definition("q2", "DB2", dbName, "metric", "SELECT 1 FROM sysibm.sysdummy1"),
	)

	require.Len(t, p.Commands(), 1)
	assert.Equal(t, "q1", p.Commands()[0].Name())
}

func TestNewWithoutUsableCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)

	_, err := New(Config{
		Agent:       testAgent(),
		Definitions: []models.CommandDefinition{definition("q", "AS400", "db", "metric", "SELECT 1")},
		Reporter:    rep,
	}, nil, nil)
	require.ErrorIs(t, err, ErrNoCommands)

	_, err = New(Config{Agent: testAgent(), Reporter: rep}, nil, nil)
	require.ErrorIs(t, err, ErrNoCommands)
}

func TestNewRequiresAgentAndReporter(t *testing.T) {
	_, err := New(Config{Reporter: report.Multi{}}, nil, nil)
	require.ErrorIs(t, err, errMissingAgent)

	_, err = New(Config{Agent: testAgent()}, nil, nil)
	require.ErrorIs(t, err, errMissingReport)
}

func TestNewRejectsInvalidDefinition(t *testing.T) {
	ctrl := gomock.NewController(t)
	def := definition("q", "SQLite", "db", "metric", "SELECT 1")
	def.Type = nil

	_, err := New(Config{
		Agent:       testAgent(),
		Definitions: []models.CommandDefinition{def},
		Reporter:    report.NewMockReporter(ctrl),
	}, nil, nil)
	require.ErrorIs(t, err, models.ErrMissingType)
}

func TestCommandsShareDatabaseHandles(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, dbName := openTestDB(t)
	_, otherName := openNamedDB(t, t.Name()+"_other")

	p := newTestPoller(t, report.NewMockReporter(ctrl), nil,
		definition("q1", "SQLite", dbName, "metric", "SELECT 1 AS one"),
		definition("q2", "sqlite3", dbName, "metric", "SELECT 2 AS two"),
		definition("q3", "SQLite", otherName, "metric", "SELECT 3 AS three"),
	)

	assert.Len(t, p.Commands(), 3)
	assert.Equal(t, 2, p.pool.size())
}

func TestPollReportsMetricsWithStaticAttributes(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)

	_, dbName := openTestDB(t,
		`CREATE TABLE sessions (state VARCHAR(10), total INTEGER)`,
		`INSERT INTO sessions VALUES ('active', 4)`)

	query := "SELECT state, total FROM sessions"

	var got models.MetricRow

	rep.EXPECT().
		ReportMetrics(gomock.Any(), "SQLite", "agent1_sessions_SQLite_"+query, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, row models.MetricRow) error {
			got = row
			return nil
		})

	p := newTestPoller(t, rep, nil, definition("sessions", "SQLite", dbName, "metric", query))
	p.Poll(context.Background())

	require.NotEmpty(t, got)
	assert.Equal(t, "active", rowAttribute(t, got, "state"))
	assert.Equal(t, int64(4), rowAttribute(t, got, "total"))
	assert.Equal(t, "sessions", rowAttribute(t, got, "queryName"))
	assert.Equal(t, dialect.MemoryHost, rowAttribute(t, got, "databaseHost"))

	n := len(got)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, models.NewAttribute("env", "test"), got[n-2])
	assert.Equal(t, models.NewAttribute("region", "eu"), got[n-1])
}

func TestPollReportsInventory(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)

	_, dbName := openTestDB(t,
		`CREATE TABLE Items (name VARCHAR(10), size INTEGER)`,
		`INSERT INTO Items VALUES ('disk', 10)`)

	def := definition("inv", "SQLite", dbName, "inventory", "SELECT name, size FROM Items")
	def.Prefix = strPtr("Custom")

	rep.EXPECT().ReportInventory(gomock.Any(), "custom/"+strings.ToLower(dbName)+"/items",
		map[string]string{"name": "disk", "size": "10"})

	p := newTestPoller(t, rep, nil, def)
	p.Poll(context.Background())
}

func TestPollReportsQueryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)
	_, dbName := openTestDB(t)

	var got models.MetricRow

	rep.EXPECT().
		ReportMetrics(gomock.Any(), "SQLite", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, row models.MetricRow) error {
			got = row
			return nil
		})

	p := newTestPoller(t, rep, nil, definition("broken", "SQLite", dbName, "metric", "SELECT * FROM missing_table"))
	p.Poll(context.Background())

	assert.Equal(t, "1", rowAttribute(t, got, "errorCode"))
	assert.Contains(t, rowAttribute(t, got, "errorMessage"), "missing_table")
	assert.Equal(t, models.NewAttribute("region", "eu"), got[len(got)-1])
}

func TestSeedRunsBeforeFirstPoll(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)

	db, dbName := openTestDB(t,
		`CREATE TABLE log (id INTEGER, msg VARCHAR(20))`,
		`INSERT INTO log VALUES (42, 'seed')`)

	def := definition("tail", "SQLite", dbName, "metric", "SELECT id, msg FROM log WHERE id > ? ORDER BY id")
	def.QueryOptions = &models.QueryOptions{
		InitialQuery:          "SELECT max(id) AS id FROM log",
		QueryParameterColumns: []string{"id"},
	}

	var ids []interface{}

	rep.EXPECT().
		ReportMetrics(gomock.Any(), "SQLite", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, row models.MetricRow) error {
			ids = append(ids, rowAttribute(t, row, "id"))
			return nil
		}).
		Times(2)

	p := newTestPoller(t, rep, nil, def)
	ctx := context.Background()

	p.seed(ctx)

	_, err := db.Exec(`INSERT INTO log VALUES (50, 'a'), (57, 'b')`)
	require.NoError(t, err)

	p.Poll(ctx)
	assert.Equal(t, []interface{}{int64(50), int64(57)}, ids)
}

func TestRunOnceSeedsThenPolls(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)

	_, dbName := openTestDB(t,
		`CREATE TABLE log (id INTEGER, msg VARCHAR(20))`,
		`INSERT INTO log VALUES (3, 'old'), (7, 'new')`)

	def := definition("tail", "SQLite", dbName, "metric", "SELECT id, msg FROM log WHERE id > ? ORDER BY id")
	def.QueryOptions = &models.QueryOptions{
		InitialQuery:          "SELECT 5 AS id",
		QueryParameterColumns: []string{"id"},
	}

	rep.EXPECT().
		ReportMetrics(gomock.Any(), "SQLite", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, row models.MetricRow) error {
			assert.Equal(t, int64(7), rowAttribute(t, row, "id"))
			return nil
		}).
		Times(1)

	p := newTestPoller(t, rep, nil, def)
	p.RunOnce(context.Background())
}

func TestPollSkipsCommandStillRunning(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, dbName := openTestDB(t)

	// no expectations: a skipped command must not report
	p := newTestPoller(t, report.NewMockReporter(ctrl), nil, definition("q1", "SQLite", dbName, "metric", "SELECT 1 AS one"))

	sc := p.commands[0]
	sc.mu.Lock()
	p.pollCommand(context.Background(), sc)
	sc.mu.Unlock()
}

func TestStartPollsOnEveryTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)
	ticker := NewMockTicker(ctrl)
	rep := report.NewMockReporter(ctrl)

	_, dbName := openTestDB(t)

	tick := make(chan time.Time)
	reported := make(chan struct{}, 4)

	clock.EXPECT().Ticker(time.Minute).Return(ticker)
	clock.EXPECT().Now().Return(time.Unix(0, 0)).AnyTimes()
	ticker.EXPECT().Chan().Return((<-chan time.Time)(tick)).AnyTimes()
	ticker.EXPECT().Stop()

	rep.EXPECT().
		ReportMetrics(gomock.Any(), "SQLite", gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string, models.MetricRow) error {
			reported <- struct{}{}
			return nil
		}).
		Times(2)

	p := newTestPoller(t, rep, clock, definition("q1", "SQLite", dbName, "metric", "SELECT 1 AS one"))

	errCh := make(chan error, 1)

	go func() {
		errCh <- p.Start(context.Background())
	}()

	waitFor(t, reported)

	tick <- time.Unix(60, 0)

	waitFor(t, reported)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, p.Stop(stopCtx))
	require.NoError(t, <-errCh)
}

func TestStartReturnsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)
	ticker := NewMockTicker(ctrl)
	rep := report.NewMockReporter(ctrl)

	_, dbName := openTestDB(t)

	clock.EXPECT().Ticker(time.Minute).Return(ticker)
	clock.EXPECT().Now().Return(time.Unix(0, 0)).AnyTimes()
	ticker.EXPECT().Chan().Return((<-chan time.Time)(make(chan time.Time))).AnyTimes()
	ticker.EXPECT().Stop()
	rep.EXPECT().ReportMetrics(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	p := newTestPoller(t, rep, clock, definition("q1", "SQLite", dbName, "metric", "SELECT 1 AS one"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, p.Start(ctx), context.Canceled)
	require.NoError(t, p.Stop(context.Background()))
}

func TestPopulateMetricsAttemptsEveryRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)
	_, dbName := openTestDB(t)

	p := newTestPoller(t, rep, nil, definition("q1", "SQLite", dbName, "metric", "SELECT 1 AS one"))
	cmd := p.Commands()[0]

	rows := []models.MetricRow{
		{models.NewNumeric("a", models.MetricTypeGauge, int64(1))},
		{models.NewNumeric("a", models.MetricTypeGauge, int64(2))},
	}
	static := StaticAttributes(map[string]string{"site": "lab"})

	gomock.InOrder(
		rep.EXPECT().ReportMetrics(gomock.Any(), "SQLite", "agent1_q1_SQLite_SELECT 1 AS one",
			models.MetricRow{rows[0][0], models.NewAttribute("site", "lab")}).Return(errReportFailed),
		rep.EXPECT().ReportMetrics(gomock.Any(), "SQLite", "agent1_q1_SQLite_SELECT 1 AS one",
			models.MetricRow{rows[1][0], models.NewAttribute("site", "lab")}).Return(nil),
	)

	err := PopulateMetrics(context.Background(), rep, "agent1", cmd, rows, static)
	require.ErrorIs(t, err, errReportFailed)
	assert.Len(t, rows[0], 1, "rows must not be modified")
}

func TestPopulateInventoryInPathOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	rep := report.NewMockReporter(ctrl)

	gomock.InOrder(
		rep.EXPECT().ReportInventory(gomock.Any(), "a/db/t", map[string]string{"k": "1"}).Return(errReportFailed),
		rep.EXPECT().ReportInventory(gomock.Any(), "b/db/t", map[string]string{"k": "2"}).Return(nil),
	)

	err := PopulateInventory(context.Background(), rep, map[string]map[string]string{
		"b/db/t": {"k": "2"},
		"a/db/t": {"k": "1"},
	})
	require.ErrorIs(t, err, errReportFailed)
}

func TestStaticAttributes(t *testing.T) {
	assert.Empty(t, StaticAttributes(nil))
	assert.Equal(t, models.MetricRow{
		models.NewAttribute("a", "1"),
		models.NewAttribute("b", "2"),
	}, StaticAttributes(map[string]string{"b": "2", "a": "1"}))
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report")
	}
}
