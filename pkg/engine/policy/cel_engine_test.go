package policy

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/DrSkyle/rackfit/pkg/engine/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// logRecords decodes the JSON lines written by a capturing logger.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	return records
}

func TestCELEngine(t *testing.T) {
	engine, err := NewCELEngine(quietLogger())
	require.NoError(t, err)

	rules := []DynamicRule{
		{ID: "oversized", Condition: "cores > 8", Action: ActionReject, Priority: 10},
		{ID: "ram_heavy", Condition: "ram >= 4 * cores * 4", Action: ActionWarn},
	}
	require.NoError(t, engine.Compile(rules))

	matches := engine.Evaluate(EvaluationContext{ID: 1, Cores: 12, RAM: 8})
	require.Len(t, matches, 1)
	assert.Equal(t, "oversized", matches[0].ID)

	matches = engine.Evaluate(EvaluationContext{ID: 2, Cores: 1, RAM: 16})
	require.Len(t, matches, 1)
	assert.Equal(t, "ram_heavy", matches[0].ID)

	assert.Empty(t, engine.Evaluate(EvaluationContext{ID: 3, Cores: 2, RAM: 4}))
}

func TestCELEngine_CompileErrors(t *testing.T) {
	for name, rule := range map[string]DynamicRule{
		"syntax":   {ID: "a", Condition: "cores >", Action: ActionReject},
		"not bool": {ID: "b", Condition: "cores + 1", Action: ActionReject},
		"unknown":  {ID: "c", Condition: "gpus > 1", Action: ActionReject},
		"action":   {ID: "d", Condition: "cores > 1", Action: "delete"},
	} {
		t.Run(name, func(t *testing.T) {
			engine, err := NewCELEngine(quietLogger())
			require.NoError(t, err)
			assert.Error(t, engine.Compile([]DynamicRule{rule}))
		})
	}
}

func TestAdmission_Filter(t *testing.T) {
	a, err := New([]DynamicRule{
		{ID: "oversized", Condition: "cores > 8", Action: ActionReject},
		{ID: "watch", Condition: "id == 0", Action: ActionWarn},
	}, quietLogger())
	require.NoError(t, err)

	requests := tetris.Configuration{Number: 3, Items: []tetris.Item{
		{ID: 0, Cores: 2, RAM: 4},
		{ID: 1, Cores: 16, RAM: 4},
		{ID: 2, Cores: 4, RAM: 8},
	}}

	admitted, rejected := a.Filter(requests)

	assert.Equal(t, 3, admitted.Number)
	assert.Equal(t, []tetris.Item{{ID: 0, Cores: 2, RAM: 4}, {ID: 2, Cores: 4, RAM: 8}}, admitted.Items)
	assert.Equal(t, []int{1}, rejected)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "rules:\n  - id: tiny\n    condition: \"ram < 2\"\n    action: reject\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	a, err := LoadFile(path, quietLogger())
	require.NoError(t, err)

	_, rejected := a.Filter(tetris.Configuration{Items: []tetris.Item{{ID: 0, Cores: 1, RAM: 1}}})
	assert.Equal(t, []int{0}, rejected)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), quietLogger())
	assert.Error(t, err)
}

func TestCELEngine_RuntimeErrorLogsThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	engine, err := NewCELEngine(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)
	require.NoError(t, engine.Compile([]DynamicRule{
		{ID: "broken", Condition: "cores / (cores - cores) > 0", Action: ActionReject},
	}))

	assert.Empty(t, engine.Evaluate(EvaluationContext{ID: 4, Cores: 2, RAM: 2}))

	records := logRecords(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "ERROR", records[0]["level"])
	assert.Equal(t, "Rule evaluation failed", records[0]["msg"])
	assert.Equal(t, "broken", records[0]["rule_id"])
	assert.EqualValues(t, 4, records[0]["request"])
}

func TestAdmission_RejectLogNamesRejectingRule(t *testing.T) {
	var buf bytes.Buffer
	a, err := New([]DynamicRule{
		{ID: "busy", Condition: "cores > 1", Action: ActionWarn, Priority: 10},
		{ID: "oversized", Condition: "cores > 8", Action: ActionReject, Priority: 1},
	}, slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)
	buf.Reset()

	_, rejected := a.Filter(tetris.Configuration{Items: []tetris.Item{{ID: 0, Cores: 12, RAM: 4}}})
	assert.Equal(t, []int{0}, rejected)

	var reason any
	for _, rec := range logRecords(t, &buf) {
		if rec["msg"] == "Request rejected" {
			reason = rec["rule_id"]
		}
	}
	assert.Equal(t, "oversized", reason)
}
