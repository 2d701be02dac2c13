package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankcap/internal/apperrors"
)

const page = `<html><body><table><tbody>
<tr><th>Rank</th><th>Bank</th><th>Cap</th></tr>
<tr><td>1</td><td><a href="/a">Bank A</a></td><td>100</td></tr>
<tr><td>2</td><td><a href="/b">Bank B</a></td><td>50.5</td></tr>
<tr><td>3</td><td><a href="/c">Bank C</a></td><td>200</td></tr>
</tbody></table></body></html>`

// workspace writes the source page, rates and a config into a temp dir and returns the config path.
func workspace(t *testing.T, extra string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}
	src := write("banks.html", page)
	rates := write("exchange_rate.csv", "Currency,Rate\nEUR,0.93\nGBP,0.8\nINR,82.1\n")
	cfgPath = write("config.yaml", fmt.Sprintf(`
source:
  url: file://%s
transform:
  rates_path: %s
output:
  csv_path: %s
database:
  dsn: %s
progress:
  log_path: %s
history:
  sqlite_path: %s
%s`, src, rates,
		filepath.Join(dir, "Largest_banks_data.csv"),
		filepath.Join(dir, "Banks.db"),
		filepath.Join(dir, "code_log.txt"),
		filepath.Join(dir, "history.db"),
		extra))
	return dir, cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunQueryHistory(t *testing.T) {
	dir, cfg := workspace(t, "")

	out, err := execute(t, "run", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, ": Done, 3 banks")
	assert.Contains(t, out, "avg_gbp: SELECT AVG(MC_GBP_Billion) FROM Largest_banks")
	assert.Contains(t, out, "(3 rows)")

	logLines, err := os.ReadFile(filepath.Join(dir, "code_log.txt"))
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(logLines), "\n"))

	out, err = execute(t, "query", "--config", cfg, "SELECT Name FROM Largest_banks LIMIT 2")
	require.NoError(t, err)
	assert.Contains(t, out, "Bank A\nBank B\n(2 rows)")

	out, err = execute(t, "history", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Done")
}

func TestRun_FailureReturnsError(t *testing.T) {
	_, cfg := workspace(t, "")

	out, err := execute(t, "run", "--config", cfg, "--source", filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIO)
	assert.Contains(t, out, "stage: Extract")
}

func TestQuery_RejectsWrites(t *testing.T) {
	_, cfg := workspace(t, "")
	_, err := execute(t, "run", "--config", cfg)
	require.NoError(t, err)

	_, err = execute(t, "query", "--config", cfg, "DELETE FROM Largest_banks")
	assert.ErrorIs(t, err, apperrors.ErrQuery)
}

func TestInvalidConfig(t *testing.T) {
	_, cfg := workspace(t, "extract:\n  parse_policy: sloppy\n")
	_, err := execute(t, "run", "--config", cfg)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestRun_BadPolicyFlag(t *testing.T) {
	_, cfg := workspace(t, "")
	_, err := execute(t, "run", "--config", cfg, "--parse-policy", "nope")
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}
