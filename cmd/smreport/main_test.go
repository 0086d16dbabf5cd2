package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smperez989-stack/IWA-SMDashboard/internal/errors"
	"github.com/smperez989-stack/IWA-SMDashboard/internal/shared/testutil"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func workbook(t *testing.T) string {
	t.Helper()
	return testutil.WriteWorkbook(t, "IWA SM Analytics.xlsx", testutil.AnalyticsSheets())
}

func TestInsights_AllNetworks(t *testing.T) {
	stdout, _, err := runCLI(t, "insights", "--file", workbook(t))
	require.NoError(t, err)

	paragraphs := strings.Split(strings.TrimSpace(stdout), "\n\n")
	require.Len(t, paragraphs, 3)
	assert.True(t, strings.HasPrefix(paragraphs[0], "Facebook insights for October vs November:"))
	assert.True(t, strings.HasPrefix(paragraphs[1], "Instagram insights for October vs November:"))
	assert.True(t, strings.HasPrefix(paragraphs[2], "LinkedIn insights for October vs November:"))
}

func TestInsights_SingleNetworkAndMonths(t *testing.T) {
	stdout, _, err := runCLI(t, "insights", "-f", workbook(t),
		"--network", "facebook", "--month-a", "November", "--month-b", "December")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "Facebook insights for November vs December:"), stdout)
	assert.Equal(t, 1, strings.Count(stdout, "insights for"))
}

func TestInsights_MissingMonth(t *testing.T) {
	stdout, _, err := runCLI(t, "insights", "-f", workbook(t), "-n", "Facebook", "--month-a", "March")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not enough data to compare March and November for Facebook")
}

func TestCompare(t *testing.T) {
	stdout, _, err := runCLI(t, "compare", "-f", workbook(t), "--network", "Facebook")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "Facebook: October vs November", lines[0])
	assert.Contains(t, stdout, "Followers")
	assert.Contains(t, stdout, "1,000")
	assert.Contains(t, stdout, "1,200")
}

func TestCompare_RequiresNetwork(t *testing.T) {
	_, _, err := runCLI(t, "compare", "-f", workbook(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"network" not set`)
}

func TestCompare_UnknownNetwork(t *testing.T) {
	_, _, err := runCLI(t, "compare", "-f", workbook(t), "-n", "TikTok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TikTok")
}

func TestChart_WritesPNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "fb.png")
	_, stderr, err := runCLI(t, "chart", "-f", workbook(t), "-n", "Facebook",
		"--metrics", "views,followers", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	assert.Contains(t, stderr, "Facebook chart of Views, Followers")
}

func TestChart_UnknownMetric(t *testing.T) {
	_, _, err := runCLI(t, "chart", "-f", workbook(t), "-n", "Facebook",
		"--metrics", "Likes", "--out", filepath.Join(t.TempDir(), "x.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown metric "Likes"`)
}

func TestExport_Stdout(t *testing.T) {
	stdout, _, err := runCLI(t, "export", "-f", workbook(t), "-n", "Facebook", "--out", "-")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Year,Month,Date,"))
	assert.True(t, strings.HasPrefix(lines[1], "2023,October,2023-10-01,"))
}

func TestExport_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "linkedin.csv")
	_, stderr, err := runCLI(t, "export", "-f", workbook(t), "-n", "LinkedIn", "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Year,Month,Date,")
	assert.Contains(t, stderr, "Wrote LinkedIn table to "+out)
}

func TestMissingWorkbook(t *testing.T) {
	_, _, err := runCLI(t, "insights", "--file", filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound), err.Error())
}

func TestUnreadableWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	_, _, err := runCLI(t, "insights", "--file", path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing), err.Error())
}

func TestExport_MissingOutputDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "facebook.csv")
	_, _, err := runCLI(t, "export", "-f", workbook(t), "-n", "Facebook", "-o", out)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound), err.Error())
	assert.NoFileExists(t, out)
}
