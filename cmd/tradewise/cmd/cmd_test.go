package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestUniverseDiffCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "v200.csv", "old_list,old,new_list\nInfosys,INFY.NS,Infosys\nTCS,TCS.NS,Wipro\n")
	out := filepath.Join(dir, "out.txt")

	rootCmd.SetArgs([]string{"universe", "diff", "--file", in, "--out", out})
	require.NoError(t, rootCmd.Execute())

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Symbols for new list:\nINFY.NS\nnan\n\nItems in old list but not in new list:\nTCS\n", string(got))
}

func TestProcessCommands_MockProvider(t *testing.T) {
	dir := t.TempDir()
	list := writeFile(t, dir, "v40.csv", "Symbol\nINFY\nTCS\n")
	cfg := writeFile(t, dir, "config.yaml", `
database:
  driver: sqlite
  sqlite_path: `+filepath.Join(dir, "tradewise.db")+`
data_source:
  provider: mock
universes:
  - name: v40
    source: `+list+`
    strategies:
      - name: v20
        num_days: 20
`)

	for _, args := range [][]string{
		{"process-stocks"},
		{"process-lth", "--update-only", "--days-back", "10"},
		{"lth", "--price"},
		{"signals", "--universe", "v40"},
	} {
		rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
		assert.NoError(t, rootCmd.Execute(), "%v", args)
	}
}

func TestSignalsCommand_BadAction(t *testing.T) {
	dir := t.TempDir()
	list := writeFile(t, dir, "v40.csv", "INFY\n")
	cfg := writeFile(t, dir, "config.yaml", `
database:
  driver: memory
data_source:
  provider: mock
universes:
  - name: v40
    source: `+list+`
    strategies:
      - name: v20
        num_days: 20
`)
	rootCmd.SetArgs([]string{"--config", cfg, "signals", "--action", "hold"})
	assert.Error(t, rootCmd.Execute())
	sigAction = ""
}
