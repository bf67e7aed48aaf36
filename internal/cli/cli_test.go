package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The admin and diagnostic commands are exercised against a real temp
// workbook; with no channel credentials configured the dispatches fail and
// get recorded, but the pipeline still completes.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	t.Setenv("LEADS_WORKBOOK", path)
	t.Setenv("LEAD_WATCHER_CONFIG", "")
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("SLACK_CHANNEL_ID", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_USERNAME", "")
	t.Setenv("SMTP_PASSWORD", "")
	t.Setenv("MAIL_REPLY_TO", "")
	return path
}

func TestInitCommand(t *testing.T) {
	path := setupEnv(t)

	out, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
}

func TestCheckCommandReportsMissingCredentials(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "init")
	require.NoError(t, err)

	out, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "slack bot token")
	assert.Contains(t, out, "MISSING")
	assert.Contains(t, out, "workbook")
}

func TestCheckCommandFailsWithoutWorkbook(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "check")
	require.Error(t, err)
}

func TestSmokeAndResetCommands(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "init")
	require.NoError(t, err)

	out, err := run(t, "smoke")
	require.NoError(t, err, "smoke must complete even when both channels are unconfigured")
	assert.Contains(t, out, "row marked processed")

	out, err = run(t, "reset")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "1 row(s)"), "expected one cleared row, got: %s", out)
}
