package twcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesYAML(t *testing.T) {
	path := writeTemp(t, "config.yaml", `
mode: mono
apertium_pair_name: en-es
source: en
target: es
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeMono, cfg.Mode)
	assert.Equal(t, "en-es", cfg.ApertiumPairName)
	assert.Equal(t, "en", cfg.Source)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "mode: [unterminated")
	_, err := Load(path)
	require.Error(t, err)
}

// TestValidateCollectsEveryError exercises validate_config's "report
// everything at once" behavior: an empty config should fail every required
// field, not just the first one checked.
func TestValidateCollectsEveryError(t *testing.T) {
	cfg := &Config{}
	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 5)
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := &Config{
		Mode:                 "bogus",
		ApertiumPairName:     "en-es",
		ApertiumPairData:     t.TempDir(),
		Source:               "en",
		Target:               "es",
		SourceLanguageCorpus: writeTemp(t, "src.txt", "hola\n"),
		DataFolder:           t.TempDir(),
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1, "expected only the invalid-mode error, got %v", errs)
}

func TestValidatePassesWithCompleteMonoConfig(t *testing.T) {
	dataFolder := t.TempDir()
	pairData := t.TempDir()
	corpusPath := writeTemp(t, "corpus.txt", "some text\n")
	modelPath := writeTemp(t, "model.bin", "fake model")

	cfg := &Config{
		Mode:                 ModeMono,
		ApertiumPairName:     "en-es",
		ApertiumPairData:     pairData,
		Source:               "en",
		Target:               "es",
		SourceLanguageCorpus: corpusPath,
		LanguageModel:        modelPath,
		DataFolder:           dataFolder,
	}

	errs := cfg.Validate()
	assert.Empty(t, errs)
}

func TestValidateParallelRequiresTargetCorpus(t *testing.T) {
	cfg := &Config{
		Mode:                 ModeParallel,
		ApertiumPairName:     "en-es",
		ApertiumPairData:     t.TempDir(),
		Source:               "en",
		Target:               "es",
		SourceLanguageCorpus: writeTemp(t, "src.txt", "hola\n"),
		DataFolder:           t.TempDir(),
	}

	errs := cfg.Validate()
	require.NotEmpty(t, errs)
}

func TestPrefixUsesFnameCommonPrefixWhenSet(t *testing.T) {
	cfg := &Config{DataFolder: "/data", FnameCommonPrefix: "custom"}
	assert.Equal(t, filepath.Join("/data", "custom"), cfg.Prefix())
}

func TestPrefixMonoUsesSourceCorpusBasename(t *testing.T) {
	cfg := &Config{DataFolder: "/data", SourceLanguageCorpus: "/corpora/en.txt", Mode: ModeMono}
	assert.Equal(t, filepath.Join("/data", "en"), cfg.Prefix())
}

func TestPrefixParallelJoinsSourceAndTargetBasenames(t *testing.T) {
	cfg := &Config{
		DataFolder:           "/data",
		SourceLanguageCorpus: "/corpora/en.txt",
		TargetLanguageCorpus: "/corpora/es.txt",
		Mode:                 ModeParallel,
	}
	assert.Equal(t, filepath.Join("/data", "en-es"), cfg.Prefix())
}
