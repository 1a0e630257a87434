package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"nctracker/internal/core"
)

type listResponse struct {
	Status string       `json:"status"`
	Data   []RecordView `json:"data"`
	Error  *CLIError    `json:"error"`
}

func listJSON(t *testing.T, category string) []RecordView {
	t.Helper()
	res := runCLI(t, "", "list", "--category", category, "--format", "json")
	require.NoError(t, res.err, res.stderr)

	var resp listResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestInitCreatesWorkbook(t *testing.T) {
	dir := setupEnv(t)

	res := runCLI(t, "", "init")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Workbook ready")

	_, err := os.Stat(filepath.Join(dir, "network_changes.xlsx"))
	require.NoError(t, err)

	assert.Empty(t, listJSON(t, "cr"))
	assert.Empty(t, listJSON(t, "wp"))

	res = runCLI(t, "", "init")
	require.NoError(t, res.err, "init must be repeatable")
}

func TestAddAndList(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "add",
		"--category", "wp",
		"--date", "2025-08-30",
		"--request", "CR/ENP/1234",
		"--description", "Router upgrade\n configuration backup \n")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Added WorkPermit record")

	got := listJSON(t, "work-permit")
	require.Len(t, got, 1)
	assert.Equal(t, RecordView{
		Category:      core.WorkPermit,
		ApprovalDate:  "2025-08-30",
		RequestNumber: "CR/ENP/1234",
		Description:   "Router upgrade, configuration backup",
	}, got[0])

	assert.Empty(t, listJSON(t, "cr"), "other category untouched")
}

func TestListTextOutput(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "list", "-c", "cr")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No ChangeRequest records.")

	require.NoError(t, runCLI(t, "", "add", "-c", "cr", "-d", "2025-08-30", "-r", "CR/1", "-m", "first").err)
	require.NoError(t, runCLI(t, "", "add", "-c", "cr", "-d", "2025-08-31", "-m", "second").err)

	res = runCLI(t, "", "list", "-c", "cr")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, core.HeaderRequestNumber)
	assert.Regexp(t, `(?s)2025-08-30\s+CR/1\s+first.*2025-08-31\s+second`, res.stdout)
}

func TestAddDescriptionFromStdin(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "line1\r\nline2\r\n", "add", "-c", "cr", "-d", "2025-08-30", "-m", "-")
	require.NoError(t, res.err, res.stderr)

	got := listJSON(t, "cr")
	require.Len(t, got, 1)
	assert.Equal(t, "line1, line2", got[0].Description)
}

func TestAddDefaultsDateToToday(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "add", "-c", "cr", "-m", "no date given", "--format", "json")
	require.NoError(t, res.err, res.stderr)

	var resp struct {
		Data RecordView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, time.Now().Format(core.DateLayout), resp.Data.ApprovalDate)
}

func TestAddInvalidDate(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "add", "-c", "cr", "-d", "30-08-2025", "-m", "x")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, ErrCodeValidation)
	assert.Contains(t, res.stderr, "YYYY-MM-DD")

	assert.Empty(t, listJSON(t, "cr"), "nothing written")
}

func TestAddInvalidDateJSON(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "add", "-c", "cr", "-d", "2025-02-30", "-m", "x", "--format", "json")
	require.Error(t, res.err)

	var resp listResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
}

func TestAddUnknownCategory(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "add", "-c", "incident", "-d", "2025-08-30", "-m", "x")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "unknown category")
}

func TestAddRequiresRequestNumberWhenConfigured(t *testing.T) {
	setupEnv(t)
	t.Setenv("REQUIRE_REQUEST_NUMBER", "true")

	res := runCLI(t, "", "add", "-c", "cr", "-d", "2025-08-30", "-m", "x")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "request number is required")

	res = runCLI(t, "", "add", "-c", "cr", "-d", "2025-08-30", "-r", "CR/9", "-m", "x")
	require.NoError(t, res.err, res.stderr)
}

func TestAddLockedWorkbook(t *testing.T) {
	dir := setupEnv(t)
	require.NoError(t, runCLI(t, "", "init").err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$network_changes.xlsx"), []byte("owner"), 0o644))

	res := runCLI(t, "", "add", "-c", "cr", "-d", "2025-08-30", "-m", "x")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stderr, ErrCodeStorage)
	assert.Contains(t, res.stderr, "Close the workbook")
}

func TestListMigratesLegacyWorkbook(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "network_changes.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "ChangeRequest"))
	require.NoError(t, f.SetSheetRow("ChangeRequest", "A1", &[]any{core.HeaderApprovalDate, core.HeaderDescription}))
	require.NoError(t, f.SetSheetRow("ChangeRequest", "A2", &[]any{"2024-05-01", "Core switch replacement"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got := listJSON(t, "cr")
	require.Len(t, got, 1)
	assert.Equal(t, RecordView{
		Category:     core.ChangeRequest,
		ApprovalDate: "2024-05-01",
		Description:  "Core switch replacement",
	}, got[0])

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("ChangeRequest")
	require.NoError(t, err)
	assert.Equal(t, core.Header(), rows[0], "sheet migrated in place")
}

func TestAddRejectsTextTheWorkbookCannotHold(t *testing.T) {
	setupEnv(t)

	res := runCLI(t, "", "add", "-c", "cr", "-d", "2025-08-30", "-m", "reboot\x01router")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, ErrCodeValidation)

	assert.Empty(t, listJSON(t, "cr"))
}
