package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/tokenwallet/internal/adapters/snapshot"
	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
	assert.NoDirExists(t, filepath.Join(home, ".tokenwallet"), "version must not open the store")
}

func TestTokenCreateRequiresSignIn(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "token", "create", "--type", "xp", "--amount", "5")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestTokenCreateRequiresTypeFlag(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "token", "create", "--amount", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"type\" not set")
}

func TestRegisterAwardsDailyBonus(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := registerAda(t, home)
	require.NoError(t, err)
	assert.Contains(t, stdout, "signed in as Ada <ada@example.com>")
	assert.Contains(t, stdout, "Infinity balance 10")

	stdout, _, err = executeCLI(t, home, "balance", "--type", "infinity")
	require.NoError(t, err)
	assert.Equal(t, "10\n", stdout)

	stdout, _, err = executeCLI(t, home, "auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ada <ada@example.com>")
}

func TestRegisterReadsSecretFromStdin(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLIWithInput(t, home, "hunter22\n",
		"auth", "register", "--email", "ada@example.com", "--name", "Ada", "--secret-stdin")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "auth", "signout")
	require.NoError(t, err)

	stdout, _, err := executeCLIWithInput(t, home, "hunter22\n", "auth", "signin", "--email", "ADA@example.com", "--secret-stdin")
	require.NoError(t, err)
	assert.Contains(t, stdout, "signed in as Ada")
}

func TestRegisterRejectsShortSecret(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "auth", "register", "--email", "ada@example.com", "--name", "Ada", "--secret", "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTokenCreateSpendAndBalances(t *testing.T) {
	home := t.TempDir()
	_, _, err := registerAda(t, home)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "token", "create", "--type", "xp", "--amount", "5", "--source", "quest", "--meta", "level=3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "XP\t+5\tbalance 5")

	_, _, err = executeCLI(t, home, "token", "spend", "--type", "infinity", "--amount", "15")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Contains(t, err.Error(), "balance is 10")

	stdout, _, err = executeCLI(t, home, "token", "spend", "--type", "infinity", "--amount", "10", "--description", "buy")
	require.NoError(t, err)
	assert.Equal(t, "spent 10 Infinity\tbalance 0\n", stdout)

	stdout, _, err = executeCLI(t, home, "balance", "--json")
	require.NoError(t, err)
	var balances map[string]int64
	require.NoError(t, json.Unmarshal([]byte(stdout), &balances))
	assert.Equal(t, map[string]int64{
		"infinity_tokens": 0,
		"xp_tokens":       5,
		"badge_tokens":    0,
		"creator_tokens":  0,
	}, balances)
}

func TestTokenSpendWithExpectedBalance(t *testing.T) {
	home := t.TempDir()
	_, _, err := registerAda(t, home)
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "token", "spend", "--type", "infinity", "--amount", "3", "--expect-balance", "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBalanceChanged)

	stdout, _, err := executeCLI(t, home, "token", "spend", "--type", "infinity", "--amount", "3", "--expect-balance", "10")
	require.NoError(t, err)
	assert.Contains(t, stdout, "balance 7")
}

func TestHistoryAndLedgerVerify(t *testing.T) {
	home := t.TempDir()
	_, _, err := registerAda(t, home)
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "token", "create", "--type", "badge", "--amount", "1", "--description", "first login")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "history", "--json")
	require.NoError(t, err)
	var history []domain.Transaction
	require.NoError(t, json.Unmarshal([]byte(stdout), &history))
	require.Len(t, history, 2)
	assert.Equal(t, domain.TokenTypeBadge, history[0].TokenType)
	assert.Equal(t, "first login", history[0].Description)
	assert.Equal(t, domain.TokenTypeInfinity, history[1].TokenType)

	stdout, _, err = executeCLI(t, home, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "first login")
	assert.NotContains(t, stdout, "Infinity")

	stdout, _, err = executeCLI(t, home, "ledger", "verify")
	require.NoError(t, err)
	assert.Equal(t, "ledger ok: 2 tokens replayed\n", stdout)
}

func TestLedgerVerifyReportsDrift(t *testing.T) {
	home := t.TempDir()
	_, _, err := registerAda(t, home)
	require.NoError(t, err)

	walletPath := filepath.Join(home, ".tokenwallet", "wallet.toml")
	data, err := os.ReadFile(walletPath)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "infinity_tokens = 10", "infinity_tokens = 99", 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(walletPath, []byte(tampered), 0o600))

	stdout, _, err := executeCLI(t, home, "ledger", "verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger drift in 1 token types")
	assert.Contains(t, stdout, "Infinity\tcached 99\treplayed 10")
}

func TestTokenClearNeedsConfirmation(t *testing.T) {
	home := t.TempDir()
	_, _, err := registerAda(t, home)
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "token", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without --yes")

	_, _, err = executeCLI(t, home, "token", "clear", "--yes")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "balance", "--type", "infinity")
	require.NoError(t, err)
	assert.Equal(t, "0\n", stdout)
}

func TestSignOutThenWrongSecretIsRejected(t *testing.T) {
	home := t.TempDir()
	_, _, err := registerAda(t, home)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "auth", "signout")
	require.NoError(t, err)
	assert.Equal(t, "signed out\n", stdout)

	stdout, _, err = executeCLI(t, home, "auth", "whoami", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"authenticated": false}`, stdout)

	_, _, err = executeCLI(t, home, "auth", "signin", "--email", "ada@example.com", "--secret", "wrong-secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials are invalid")

	_, _, err = executeCLI(t, home, "auth", "signin", "--email", "nobody@example.com", "--secret", "wrong-secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials are invalid")
}

func TestBalanceRendersWalletView(t *testing.T) {
	home := t.TempDir()
	_, _, err := registerAda(t, home)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "balance")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Token Wallet")
	assert.Contains(t, stdout, "signed in as Ada <ada@example.com>")
	assert.Contains(t, stdout, "Recent activity")
}

func TestSQLiteBackendFromConfigFile(t *testing.T) {
	home := t.TempDir()
	dataDir := filepath.Join(home, ".tokenwallet")
	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte("[store]\nbackend = \"sqlite\"\n"), 0o600))

	_, _, err := registerAda(t, home)
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "token", "create", "--type", "creator", "--amount", "7")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "balance", "--type", "creator")
	require.NoError(t, err)
	assert.Equal(t, "7\n", stdout)
	assert.FileExists(t, filepath.Join(dataDir, "wallet.db"))
	assert.NoFileExists(t, filepath.Join(dataDir, "wallet.toml"))
}

func TestUnsupportedBackendFails(t *testing.T) {
	home := t.TempDir()
	dataDir := filepath.Join(home, ".tokenwallet")
	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte("[store]\nbackend = \"postgres\"\n"), 0o600))

	_, _, err := executeCLI(t, home, "balance")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend \"postgres\"")
}

func TestDataDirFromEnvironment(t *testing.T) {
	home := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "wallet-data")
	t.Setenv("TW_DATA_DIR", dataDir)

	_, _, err := executeCLIKeepEnv(t, home, "", "auth", "register", "--email", "ada@example.com", "--name", "Ada", "--secret", "hunter22")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, "wallet.toml"))
	assert.NoDirExists(t, filepath.Join(home, ".tokenwallet"))
}

func TestSyncPlanAndApplyFromDirectory(t *testing.T) {
	home := t.TempDir()
	snapshots := t.TempDir()
	at := time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)
	writeSnapshot(t, snapshots, []domain.Entity{
		{ID: "B", Name: "beta", Version: "v2", UpdatedAt: at.Add(time.Hour)},
		{ID: "C", Name: "gamma", Version: "v1", UpdatedAt: at},
	})

	stdout, _, err := executeCLI(t, home, "sync", "apply", "repos", "--from", snapshots, "--strategy", "server", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"strategy":"server","counts":{"adopted_server":2},"merged":["B","C"]}`, stdout)

	writeSnapshot(t, snapshots, []domain.Entity{
		{ID: "C", Name: "gamma", Version: "v1", UpdatedAt: at},
		{ID: "D", Name: "delta", Version: "v1", UpdatedAt: at},
	})

	stdout, _, err = executeCLI(t, home, "sync", "plan", "repos", "--from", snapshots, "--json")
	require.NoError(t, err)
	var conflicts []map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &conflicts))
	assert.Equal(t, []map[string]string{
		{"entity_id": "B", "entity_name": "beta", "type": "deleted", "cached_version": "v2"},
		{"entity_id": "D", "entity_name": "delta", "type": "added", "server_version": "v1"},
	}, conflicts)

	stdout, _, err = executeCLI(t, home, "sync", "apply", "repos", "--from", snapshots, "--strategy", "merge", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"strategy":"merge","counts":{"adopted_server":1,"kept_local":1},"merged":["C","D","B"]}`, stdout)
}

func TestSyncPlanOverHTTPShowsSpinner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"A","name":"alpha","version":"v1"}]`))
	}))
	defer server.Close()

	home := t.TempDir()
	t.Setenv("TW_SYNC_URL", server.URL)

	stdout, stderr, err := executeCLIKeepEnv(t, home, "", "sync", "plan", "repos")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Fetching repos snapshot")
	assert.Contains(t, stderr, "repos: 1 on server, 0 cached, 1 conflict (1 added, 0 deleted, 0 modified)")
	assert.Contains(t, stdout, "conflicts: 1")
	assert.Contains(t, stdout, "alpha")
}

func TestSyncRequiresSnapshotSource(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "sync", "plan", "repos")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot source")
}

func TestSyncApplyRejectsUnknownStrategy(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "sync", "apply", "repos", "--from", t.TempDir(), "--strategy", "theirs")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func registerAda(t *testing.T, home string) (string, string, error) {
	t.Helper()
	return executeCLI(t, home, "auth", "register", "--email", "ada@example.com", "--name", "Ada", "--secret", "hunter22")
}

func writeSnapshot(t *testing.T, dir string, entities []domain.Entity) {
	t.Helper()

	data, err := snapshot.EncodeCollection("repos", entities)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repos.json"), data, 0o600))
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, home, "", args...)
}

// executeCLIWithInput clears TW_* overrides so the host environment cannot
// leak into the run.
func executeCLIWithInput(t *testing.T, home, input string, args ...string) (string, string, error) {
	t.Helper()
	for _, key := range []string{"TW_DATA_DIR", "TW_REDIS_ADDR", "TW_SYNC_URL"} {
		t.Setenv(key, "")
	}
	return executeCLIKeepEnv(t, home, input, args...)
}

func executeCLIKeepEnv(t *testing.T, home, input string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("TW_TRANSPORT", "none")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
