package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiqai/speech-insights/internal/analytics"
)

func TestAnalyzeCmd_Args(t *testing.T) {
	for _, args := range [][]string{{"analyze"}, {"analyze", "a", "b", "c", "d"}} {
		root := newRootCmd()
		root.SetArgs(args)
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		assert.Error(t, root.Execute(), strings.Join(args, " "))
	}
}

func TestOpenFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.wav")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	uploads, closeAll, err := openFiles([]string{path})
	require.NoError(t, err)
	defer closeAll()
	require.Len(t, uploads, 1)
	assert.Equal(t, "talk.wav", uploads[0].Filename)

	_, _, err = openFiles([]string{path, filepath.Join(dir, "missing.wav")})
	assert.Error(t, err)
}

func TestWritePlots(t *testing.T) {
	color.NoColor = true
	dir := filepath.Join(t.TempDir(), "plots")
	var out bytes.Buffer
	require.NoError(t, writePlots(&out, dir, map[string]string{"wpm_plot": "aGVsbG8="}))

	data, err := os.ReadFile(filepath.Join(dir, "wpm_plot.png"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "Wrote "+filepath.Join(dir, "wpm_plot.png")+"\n", out.String())

	out.Reset()
	assert.Error(t, writePlots(&out, dir, map[string]string{"bad": "%%%"}))
	assert.NoError(t, writePlots(&out, "", map[string]string{"ignored": "x"}))
	assert.Empty(t, out.String())
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	var s analytics.Stats
	s.Speech.MeanWPM = 142.5
	s.Confidence.LowConfidenceWords = []string{"um"}

	var buf bytes.Buffer
	printReport(&buf, "talk.wav", s)
	printSignificance(&buf, nil)

	out := buf.String()
	assert.Contains(t, out, "talk.wav")
	assert.Contains(t, out, "142.5")
	assert.Contains(t, out, `["um"]`)
	assert.Contains(t, out, "unavailable")
}
