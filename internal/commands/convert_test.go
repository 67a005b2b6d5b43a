package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meisai-dev/meisai/internal/importer"
	"github.com/meisai-dev/meisai/internal/ledger"
	"github.com/meisai-dev/meisai/internal/runlog"
)

func TestConvert_WritesMonthFiles(t *testing.T) {
	dir := t.TempDir()
	res, err := runMeisai(t, dir, nil, "convert", fixturePath, "--out", "out")
	require.NoError(t, err, res.stderr)

	for _, name := range []string{"meisai_2026-01.csv", "meisai_2026-02.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, "out", name))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), ledger.BOM), "%s should start with a BOM", name)
	}

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MONTH")

	history, err := runlog.Read(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2026-02", history[1].Month)
	assert.Equal(t, int64(502003), history[1].Closing)
	assert.Equal(t, "bank_sjis.csv", history[1].Sources)
	assert.Equal(t, []string{"2026-01", "4", "800000", "200000", "348000", "652000"}, strings.Fields(lines[1])[:6])
	assert.Equal(t, []string{"2026-02", "3", "652000", "3", "150000", "502003"}, strings.Fields(lines[2])[:6])
}

func TestConvert_OutputReimports(t *testing.T) {
	dir := t.TempDir()
	_, err := runMeisai(t, dir, nil, "convert", fixturePath, "--month", "2026-01")
	require.NoError(t, err)

	recs, err := importer.ParseFile(importer.NewBankParser(nil, nil), filepath.Join(dir, "meisai_2026-01.csv"))
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "売上", recs[0].Subject)
}

func TestConvert_SingleMonth(t *testing.T) {
	dir := t.TempDir()
	_, err := runMeisai(t, dir, nil, "convert", fixturePath, "--month", "2026-02")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "meisai_2026-02.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "meisai_2026-01.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown month", []string{"convert", fixturePath, "--month", "2025-01"}, `no records for month "2025-01"`},
		{"malformed month", []string{"convert", fixturePath, "--month", "2026/02"}, `invalid month "2026/02"`},
		{"unknown format", []string{"convert", fixturePath, "--format", "ofx"}, `unknown format "ofx" (available: bank)`},
		{"no input", []string{"convert"}, "no CSV files to convert"},
		{"missing file", []string{"convert", "missing.csv"}, "opening missing.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := runMeisai(t, t.TempDir(), nil, tt.args...)
			require.Error(t, err)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestConvert_ScanAndArchive(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	copyFixture(t, inbox, "statement.csv")
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("skip me"), 0o644))

	res, err := runMeisai(t, dir, nil, "convert", "--dir", "inbox", "--archive", "--out", "out")
	require.NoError(t, err, res.stderr)

	_, err = os.Stat(filepath.Join(inbox, "processed", "statement.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(inbox, "statement.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(filepath.Join(inbox, "notes.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "out", "meisai_2026-02.csv"))
	assert.NoError(t, err)
}

func TestConvert_UsesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := runMeisai(t, dir, nil, "init")
	require.NoError(t, err)
	copyFixture(t, filepath.Join(dir, "import"), "statement.csv")

	res, err := runMeisai(t, dir, nil, "convert", "--out", "out")
	require.NoError(t, err, res.stderr)
	assert.Contains(t, res.stdout, "2026-01")

	// Archiving is off by default, so the statement stays put.
	_, err = os.Stat(filepath.Join(dir, "import", "statement.csv"))
	assert.NoError(t, err)
}

func TestConvert_ConfigFromAnotherDirectory(t *testing.T) {
	project := t.TempDir()
	_, err := runMeisai(t, project, nil, "init")
	require.NoError(t, err)
	copyFixture(t, filepath.Join(project, "import"), "statement.csv")

	elsewhere := t.TempDir()
	cfgPath := filepath.Join(project, "meisai.yaml")

	res, err := runMeisai(t, elsewhere, nil, "--config", cfgPath, "rules")
	require.NoError(t, err, res.stderr)
	assert.Contains(t, res.stdout, "pattern: ATM")

	res, err = runMeisai(t, elsewhere, nil, "--config", cfgPath, "convert", "--out", "out")
	require.NoError(t, err, res.stderr)
	_, err = os.Stat(filepath.Join(elsewhere, "out", "meisai_2026-01.csv"))
	assert.NoError(t, err)
}

func TestConvert_WarnsWhenClosingChanges(t *testing.T) {
	dir := t.TempDir()
	stmt := filepath.Join(dir, "stmt.csv")
	header := "date,description,withdrawal,deposit,balance\n"
	require.NoError(t, os.WriteFile(stmt, []byte(header+"2026-01-05,ACME SALES,,1000,11000\n"), 0o644))

	res, err := runMeisai(t, dir, nil, "convert", stmt, "--out", "out")
	require.NoError(t, err, res.stderr)
	assert.NotContains(t, res.stderr, "closing balance changed")

	res, err = runMeisai(t, dir, nil, "convert", stmt, "--out", "out")
	require.NoError(t, err, res.stderr)
	assert.NotContains(t, res.stderr, "closing balance changed")

	require.NoError(t, os.WriteFile(stmt, []byte(header+"2026-01-05,ACME SALES,,1000,11000\n2026-01-09,ATM,500,,10500\n"), 0o644))
	res, err = runMeisai(t, dir, nil, "convert", stmt, "--out", "out")
	require.NoError(t, err, res.stderr)
	assert.Contains(t, res.stderr, "closing balance changed since the last conversion")
	assert.Contains(t, res.stderr, "previous=11000")
	assert.Contains(t, res.stderr, "closing=10500")
}

func TestConvert_CombinesFiles(t *testing.T) {
	dir := t.TempDir()
	jan := filepath.Join(dir, "jan.csv")
	feb := filepath.Join(dir, "feb.csv")
	require.NoError(t, os.WriteFile(jan, []byte("date,description,withdrawal,deposit,balance\n2026-01-05,ACME SALES,,1000,11000\n"), 0o644))
	require.NoError(t, os.WriteFile(feb, []byte("date,description,withdrawal,deposit,balance\n2026-02-01,ATM,500,,10500\n"), 0o644))

	// Argument order does not matter; records are merged by date.
	res, err := runMeisai(t, dir, nil, "convert", feb, jan, "--out", "out")
	require.NoError(t, err, res.stderr)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"2026-01", "1", "10000", "1000", "0", "11000"}, strings.Fields(lines[1])[:6])
	assert.Equal(t, []string{"2026-02", "1", "11000", "0", "500", "10500"}, strings.Fields(lines[2])[:6])
}
