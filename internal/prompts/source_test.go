package prompts_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/tokenfire/internal/prompts"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNewSourceRejectsEmpty(t *testing.T) {
	_, err := prompts.NewSource(nil)
	require.ErrorIs(t, err, prompts.ErrNoPrompts)
}

func TestPickAtWrapsAround(t *testing.T) {
	src, err := prompts.NewSource([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, "a", src.PickAt(0))
	assert.Equal(t, "c", src.PickAt(2))
	assert.Equal(t, "a", src.PickAt(3))
	assert.Equal(t, "b", src.PickAt(7))
}

func TestPickRandomStaysInCorpus(t *testing.T) {
	corpus := []string{"x", "y", "z"}
	src, err := prompts.NewSource(corpus)
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[src.PickRandom()] = true
	}
	for picked := range seen {
		assert.Contains(t, corpus, picked)
	}
}

func TestLoadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	content := `{"prompt": "one"}
not json at all
{"prompt": "two"}
{"no_prompt_field": 42}
{"prompt": "three"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := prompts.LoadJSONL(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, loaded)
}

func TestLoadJSONLNonStringPromptSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	content := `{"prompt": 123}
{"prompt": "valid"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := prompts.LoadJSONL(path, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"valid"}, loaded)
}

func TestLoadJSONLAllMalformedFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("garbage\nmore garbage\n"), 0o644))

	_, err := prompts.LoadJSONL(path, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid prompts")
}

func TestLoadJSONLMissingFile(t *testing.T) {
	_, err := prompts.LoadJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), discardLogger())
	require.Error(t, err)
}
