package migration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/imthatgin/querylib/internal/domain"
	"github.com/imthatgin/querylib/internal/graph"
)

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) LogDebug(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) LogInfo(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) LogWarn(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) LogError(err error, msg string) error {
	l.messages = append(l.messages, msg)
	return err
}

func (l *recordingLogger) LogFatal(err error, msg string) {
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) contains(fragment string) bool {
	for _, msg := range l.messages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func mustFileMigration(t *testing.T, name, script string) domain.FileMigration {
	t.Helper()
	fm, err := domain.NewFileMigration(name, script)
	if err != nil {
		t.Fatalf("NewFileMigration(%s): %v", name, err)
	}
	return fm
}

func newTestRunner(store *graph.MemoryStore) (*Runner, *recordingLogger) {
	log := &recordingLogger{}
	return NewRunner(store, NewLinker(store), log), log
}

func TestRunnerAppliesInOrder(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	runner, log := newTestRunner(store)

	migrations := []domain.FileMigration{
		mustFileMigration(t, "001_init.sql", "CREATE TABLE a ();"),
		mustFileMigration(t, "002_users.sql", "CREATE TABLE b ();"),
		mustFileMigration(t, "003_index.sql", "CREATE INDEX i ON b (x);"),
	}

	summary, err := runner.Run(ctx, migrations)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scanned != 3 || summary.Applied != 3 || summary.Skipped != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	scripts := store.AppliedScripts()
	if len(scripts) != 3 || scripts[0] != "CREATE TABLE a ();" || scripts[2] != "CREATE INDEX i ON b (x);" {
		t.Errorf("scripts not applied in order: %v", scripts)
	}

	nodes, _ := store.ListNodes(ctx, domain.MigrationLabel)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 recorded migrations, got %d", len(nodes))
	}

	edges, _ := store.ListEdges(ctx, domain.PreviousMigrationRel)
	if len(edges) != 2 {
		t.Errorf("expected a 2-edge chain, got %d edges", len(edges))
	}

	if !log.contains("Running migrations for 3 files") {
		t.Errorf("missing run banner, got %v", log.messages)
	}
	if !log.contains("[002_users.sql] DONE - migrated") {
		t.Errorf("missing DONE line, got %v", log.messages)
	}
}

func TestRunnerSkipsUpToDate(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	runner, _ := newTestRunner(store)

	migrations := []domain.FileMigration{
		mustFileMigration(t, "001_init.sql", "CREATE TABLE a ();"),
		mustFileMigration(t, "002_users.sql", "CREATE TABLE b ();"),
	}

	if _, err := runner.Run(ctx, migrations); err != nil {
		t.Fatalf("first run: %v", err)
	}

	rerunner, log := newTestRunner(store)
	summary, err := rerunner.Run(ctx, migrations)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Applied != 0 || summary.Skipped != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if got := len(store.AppliedScripts()); got != 2 {
		t.Errorf("scripts must not run twice, got %d executions", got)
	}
	nodes, _ := store.ListNodes(ctx, domain.MigrationLabel)
	if len(nodes) != 2 {
		t.Errorf("expected 2 recorded migrations, got %d", len(nodes))
	}

	if !log.contains("[001_init.sql] SKIP - up to date") {
		t.Errorf("missing SKIP line, got %v", log.messages)
	}
}

func TestRunnerChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	runner, _ := newTestRunner(store)

	original := []domain.FileMigration{
		mustFileMigration(t, "001_init.sql", "CREATE TABLE a ();"),
		mustFileMigration(t, "002_users.sql", "CREATE TABLE b ();"),
	}
	if _, err := runner.Run(ctx, original); err != nil {
		t.Fatalf("first run: %v", err)
	}

	edited := []domain.FileMigration{
		original[0],
		mustFileMigration(t, "002_users.sql", "CREATE TABLE b (id uuid);"),
	}

	rerunner, log := newTestRunner(store)
	summary, err := rerunner.Run(ctx, edited)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), original[1].Checksum) || !strings.Contains(err.Error(), edited[1].Checksum) {
		t.Errorf("error must carry the recorded and computed checksums: %v", err)
	}
	if summary.Skipped != 1 {
		t.Errorf("file 001 should have been skipped before the failure: %+v", summary)
	}

	if !log.contains("[002_users.sql] CHECKSUM MISMATCH - wrong checksum") {
		t.Errorf("missing mismatch line, got %v", log.messages)
	}
}

func TestRunnerLinksNewFileAfterSkips(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	runner, _ := newTestRunner(store)

	initial := []domain.FileMigration{
		mustFileMigration(t, "001_init.sql", "CREATE TABLE a ();"),
		mustFileMigration(t, "002_users.sql", "CREATE TABLE b ();"),
	}
	if _, err := runner.Run(ctx, initial); err != nil {
		t.Fatalf("first run: %v", err)
	}

	extended := append(initial, mustFileMigration(t, "003_index.sql", "CREATE INDEX i ON b (x);"))
	rerunner, _ := newTestRunner(store)
	summary, err := rerunner.Run(ctx, extended)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Applied != 1 || summary.Skipped != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	// The new record must link across the skipped files to version 2.
	third, err := store.GetNodeByProperty(ctx, domain.MigrationLabel, domain.PropertyVersion, "3")
	if err != nil {
		t.Fatalf("lookup version 3: %v", err)
	}
	second, err := store.GetNodeByProperty(ctx, domain.MigrationLabel, domain.PropertyVersion, "2")
	if err != nil {
		t.Fatalf("lookup version 2: %v", err)
	}

	edge, err := store.OutgoingEdge(ctx, third.ID, domain.PreviousMigrationRel)
	if err != nil {
		t.Fatalf("OutgoingEdge: %v", err)
	}
	if edge.TargetID != second.ID {
		t.Errorf("version 3 must link to version 2")
	}
}

func TestRunnerEmptyList(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	runner, log := newTestRunner(store)

	summary, err := runner.Run(ctx, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Scanned != 0 || summary.Applied != 0 || summary.Skipped != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !log.contains("Running migrations for 0 files") {
		t.Errorf("missing run banner, got %v", log.messages)
	}
}

func TestRunnerRecordsScriptProperties(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemoryStore()
	runner, _ := newTestRunner(store)

	fm := mustFileMigration(t, "001_init.sql", "CREATE TABLE a ();")
	if _, err := runner.Run(ctx, []domain.FileMigration{fm}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	node, err := store.GetNodeByProperty(ctx, domain.MigrationLabel, domain.PropertyFileName, "001_init.sql")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if node.Properties[domain.PropertyChecksum] != fm.Checksum {
		t.Errorf("checksum property mismatch")
	}
	if node.Properties[domain.PropertyScript] != fm.Script {
		t.Errorf("script property mismatch")
	}
	if node.Properties[domain.PropertyVersion] != "1" {
		t.Errorf("version property mismatch: %v", node.Properties[domain.PropertyVersion])
	}
}
