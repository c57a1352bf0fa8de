package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/jsguard/internal/api"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/config"
	jsguardtest "github.com/ludo-technologies/jsguard/internal/testutil"
)

func TestInstrumentation_RecordsRun(t *testing.T) {
	metrics := NewInstrumentation()
	provider := testProvider("test",
		ruleSpec{id: "Functions", visit: reportFunctions},
		ruleSpec{id: "Broken", visit: func(*ast.File, api.Emit) error { return errors.New("broken") }},
	)
	reg, err := api.NewRegistry(provider)
	require.NoError(t, err)

	engine := NewEngine(EngineOptions{Config: config.Empty(), Registry: reg, Logger: zerolog.Nop(), Metrics: metrics})
	files := []*ast.File{
		jsguardtest.ParseFile(t, "a.js", "function a() {}\nfunction b() {}\n"),
		jsguardtest.ParseFile(t, "b.js", "const c = 1;\n"),
	}
	_, err = engine.Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.filesAnalyzed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.findingsTotal.WithLabelValues("test", "Functions", "warning")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ruleFailures.WithLabelValues("test", "Broken")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.runsIncomplete))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.ruleDuration), "one histogram per rule set")
}

func TestInstrumentation_NilIsSafe(t *testing.T) {
	var metrics *Instrumentation
	metrics.fileAnalyzed()
	metrics.ruleFailed("test", "Rule")
	metrics.phase("setup", 0)
	metrics.incomplete()
}

func TestInstrumentation_WriteTextfile(t *testing.T) {
	metrics := NewInstrumentation()
	metrics.fileAnalyzed()
	metrics.ruleSkipped("type_resolution")

	path := filepath.Join(t.TempDir(), "jsguard.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "jsguard_files_analyzed_total 1")
	assert.Contains(t, string(data), `jsguard_rules_skipped_total{reason="type_resolution"} 1`)
}
