package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbooks-dev/fieldbooks/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hollow-oak")

	out, err := execute(t, "init", dir, "--name", "Hollow Oak Farm")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized ledger for Hollow Oak Farm")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Hollow Oak Farm", cfg.Business.Name)
	assert.Equal(t, "sole_proprietor", cfg.Business.EntityType)

	_, err = os.Stat(filepath.Join(dir, cfg.Database.Path))
	require.NoError(t, err)

	// Re-init refuses to clobber an existing ledger.
	_, err = execute(t, "init", dir, "--name", "Hollow Oak Farm")
	require.ErrorContains(t, err, "already exists")
}

func TestInitCommand_RequiresName(t *testing.T) {
	_, err := execute(t, "init", t.TempDir())
	require.Error(t, err)
}

func TestImportAndReportCommands(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")
	_, err := execute(t, "init", dir, "--name", "Hollow Oak Farm")
	require.NoError(t, err)

	entries := filepath.Join(t.TempDir(), "entries.csv")
	require.NoError(t, os.WriteFile(entries, []byte(
		`entry,date,description,debit,credit,account_code
e1,2024-06-03,Hay sale,810.00,,1010
e1,2024-06-03,Hay sale,,810.00,4010
e2,2024-06-10,Fuel,95.50,,6010
e2,2024-06-10,Fuel,,95.50,1010
`), 0o644))

	out, err := execute(t, "import", "entries", entries, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Posted 2 entries, skipped 0")

	out, err = execute(t, "report", "income", "--dir", dir,
		"--start", "2024-01-01", "--end", "2024-12-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Crop Sales")
	assert.Contains(t, out, "810.00")
	assert.Contains(t, out, "Net Income")
	assert.Contains(t, out, "714.50")

	out, err = execute(t, "report", "balance-sheet", "--dir", dir, "--as-of", "2024-12-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Farm Checking")
	assert.Contains(t, out, "714.50")
}

func TestImportFeedCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")
	_, err := execute(t, "init", dir, "--name", "Hollow Oak Farm")
	require.NoError(t, err)

	feedFile := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(feedFile, []byte(
		`date,description,amount
2025-02-01,FARM SUPPLY CO,-42.50
2025-02-03,GRAIN ELEVATOR SETTLEMENT,3500.00
`), 0o644))

	out, err := execute(t, "import", "feed", feedFile, "--dir", dir, "--source", "bank-ext-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2 pending transactions")

	_, err = execute(t, "import", "feed", feedFile, "--dir", dir,
		"--source", "bank-ext-1", "--format", "nope")
	require.ErrorContains(t, err, "unknown feed format")
}

func TestImportChartCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")
	_, err := execute(t, "init", dir, "--name", "Hollow Oak Farm")
	require.NoError(t, err)

	chart := filepath.Join(t.TempDir(), "chart.csv")
	require.NoError(t, os.WriteFile(chart, []byte(
		`code,name,type_hint,balance
7010,Custom Hauling,Income,
7020,Widgets,Gadgets,
`), 0o644))

	out, err := execute(t, "import", "chart", chart, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 accounts, skipped 0")
	assert.Contains(t, out, "unmapped type")
}
