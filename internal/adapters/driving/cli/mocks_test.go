package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
)

// mockRuntime implements Runtime for testing.
type mockRuntime struct {
	poller   *mockPoller
	ingestor *mockIngestor
	ledger   *mockLedger

	openErr  error
	checkErr error

	dryRun     bool
	withForum  bool
	metricsOn  string
	closed     int
	gotSetting *domain.Settings
}

func newMockRuntime() *mockRuntime {
	return &mockRuntime{
		poller:   &mockPoller{},
		ingestor: &mockIngestor{stats: &driving.IngestStats{}},
		ledger:   &mockLedger{},
	}
}

func (m *mockRuntime) Poller(_ context.Context, s *domain.Settings, dryRun bool) (driving.Poller, error) {
	m.gotSetting, m.dryRun = s, dryRun
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.poller, nil
}

func (m *mockRuntime) Ingestor(_ context.Context, s *domain.Settings, withForum bool) (driving.Ingestor, error) {
	m.gotSetting, m.withForum = s, withForum
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.ingestor, nil
}

func (m *mockRuntime) Ledger(_ context.Context, s *domain.Settings) (driving.LedgerService, error) {
	m.gotSetting = s
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.ledger, nil
}

func (m *mockRuntime) Check(_ context.Context, s *domain.Settings) error {
	m.gotSetting = s
	return m.checkErr
}

func (m *mockRuntime) ServeMetrics(ctx context.Context, addr string) error {
	m.metricsOn = addr
	<-ctx.Done()
	return nil
}

func (m *mockRuntime) Close() error {
	m.closed++
	return nil
}

// mockPoller implements driving.Poller for testing.
type mockPoller struct {
	stats  driving.CycleStats
	err    error
	cycles int
	runs   int
}

func (m *mockPoller) RunCycle(_ context.Context) (driving.CycleStats, error) {
	m.cycles++
	return m.stats, m.err
}

func (m *mockPoller) Run(ctx context.Context) error {
	m.runs++
	if m.err != nil {
		return m.err
	}
	return context.Canceled
}

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	stats   *driving.IngestStats
	err     error
	dir     string
	exts    []string
	history int
}

func (m *mockIngestor) IngestMaterials(_ context.Context, dir string, exts []string) (*driving.IngestStats, error) {
	m.dir, m.exts = dir, exts
	return m.stats, m.err
}

func (m *mockIngestor) IngestHistory(_ context.Context) (*driving.IngestStats, error) {
	m.history++
	return m.stats, m.err
}

// mockLedger implements driving.LedgerService for testing.
type mockLedger struct {
	records   []domain.AnsweredRecord
	handled   map[string]bool
	err       error
	lastLimit int
}

func (m *mockLedger) Recent(_ context.Context, limit int) ([]domain.AnsweredRecord, error) {
	m.lastLimit = limit
	return m.records, m.err
}

func (m *mockLedger) IsHandled(_ context.Context, postID string) (bool, error) {
	return m.handled[postID], m.err
}

func (m *mockLedger) Total(_ context.Context) (int, error) {
	return len(m.records), m.err
}

// setupRuntime swaps in a mock runtime and an isolated home directory.
// Flag values are package variables, so they are reset afterwards.
func setupRuntime(t *testing.T) *mockRuntime {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PIAZZA_EMAIL", "")
	t.Setenv("PIAZZA_PASSWORD", "")
	t.Chdir(home)

	rt := newMockRuntime()
	original := appRuntime
	appRuntime = rt
	t.Cleanup(func() {
		appRuntime = original
		settings, configFileUsed = nil, ""
		resetFlags(rootCmd)
	})
	return rt
}

// resetFlags restores every flag to its default and clears Changed,
// which cobra consults for required flags.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

var testTime = time.Date(2026, 3, 4, 12, 30, 0, 0, time.UTC)
