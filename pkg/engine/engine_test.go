package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/musterhq/muster/pkg/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tilinna/clock"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	outFor map[string]string
	errFor map[string]error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{name: name, args: args})
	base := filepath.Base(name)
	return r.outFor[base], r.errFor[base]
}

func (r *fakeRunner) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]call, len(r.calls))
	copy(out, r.calls)
	return out
}

type fakeExitError struct{ code int }

func (e *fakeExitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *fakeExitError) ExitCode() int { return e.code }

func makeInstall(t *testing.T) *Install {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{"sbin", "bin", "conf"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	scripts := []string{
		"sbin/start-master.sh", "sbin/stop-master.sh",
		"sbin/start-slave.sh", "sbin/stop-slave.sh",
		"bin/spark-submit",
	}
	for _, script := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, script), []byte("#!/bin/sh\n"), 0o755))
	}
	install, err := OpenInstall(dir)
	require.NoError(t, err)
	return install
}

func staticResolver(ip string) AddressResolver {
	return func(string) (string, error) { return ip, nil }
}

func testConfig() Config {
	return Config{
		Interface:   "eth0",
		ServicePort: 7077,
		SettleDelay: time.Millisecond,
		Resolve:     staticResolver("10.0.0.1"),
	}
}

func TestOpenInstallValid(t *testing.T) {
	install := makeInstall(t)
	assert.NotEmpty(t, install.Dir)
}

func TestOpenInstallMissingPieces(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sbin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sbin", "start-master.sh"), []byte("#!/bin/sh\n"), 0o755))

	_, err := OpenInstall(dir)
	var invalid *InvalidInstallError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, dir, invalid.Dir)
	assert.Contains(t, invalid.Missing, "bin/spark-submit")
	assert.Contains(t, invalid.Missing, "sbin/stop-master.sh")
	assert.Contains(t, invalid.Missing, "conf")
	assert.NotContains(t, invalid.Missing, "sbin/start-master.sh")
}

func TestStartClusterSequence(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{}
	lc := NewLifecycle(install, runner, testConfig(), nil)

	require.NoError(t, lc.StartCluster(context.Background()))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, install.Script("start-master.sh"), calls[0].name)
	assert.Equal(t, []string{"--host", "10.0.0.1", "--port", "7077"}, calls[0].args)
	assert.Equal(t, install.Script("start-slave.sh"), calls[1].name)
	assert.Equal(t, []string{"spark://10.0.0.1:7077"}, calls[1].args)
}

func TestStartClusterWaitsForSettle(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{}
	cfg := testConfig()
	cfg.SettleDelay = 10 * time.Second
	lc := NewLifecycle(install, runner, cfg, nil)

	mock := clock.NewMock(time.Date(2026, 8, 25, 13, 0, 0, 0, time.UTC))
	ctx := clock.Context(context.Background(), mock)

	done := make(chan error, 1)
	go func() { done <- lc.StartCluster(ctx) }()

	require.Eventually(t, func() bool { return len(runner.Calls()) == 1 },
		2*time.Second, 10*time.Millisecond, "master starts immediately")

	// The worker must not start until the settle delay elapses.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, runner.Calls(), 1)

	mock.Add(10 * time.Second)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("start did not finish after settle delay")
	}
	assert.Len(t, runner.Calls(), 2)
}

func TestStartClusterMasterFailureStopsSequence(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{
		outFor: map[string]string{"start-master.sh": "port already in use"},
		errFor: map[string]error{"start-master.sh": errors.New("exit status 1")},
	}
	lc := NewLifecycle(install, runner, testConfig(), nil)

	err := lc.StartCluster(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start master")
	assert.Contains(t, err.Error(), "port already in use")
	assert.Len(t, runner.Calls(), 1, "worker daemon must not start after a master failure")
}

func TestStartClusterResolverFailure(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{}
	cfg := testConfig()
	cfg.Resolve = func(string) (string, error) { return "", errors.New("no such interface") }
	lc := NewLifecycle(install, runner, cfg, nil)

	require.Error(t, lc.StartCluster(context.Background()))
	assert.Empty(t, runner.Calls())
}

func TestStopClusterOrder(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{}
	lc := NewLifecycle(install, runner, testConfig(), nil)

	require.NoError(t, lc.StopCluster(context.Background()))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, install.Script("stop-slave.sh"), calls[0].name, "worker stops before master")
	assert.Equal(t, install.Script("stop-master.sh"), calls[1].name)
}

func TestStopClusterWorkerFailureKeepsMaster(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{
		errFor: map[string]error{"stop-slave.sh": errors.New("exit status 1")},
	}
	lc := NewLifecycle(install, runner, testConfig(), nil)

	err := lc.StopCluster(context.Background())
	require.Error(t, err)
	assert.Len(t, runner.Calls(), 1, "master keeps running when the worker will not stop")
}

func testJob() JobSpec {
	return JobSpec{
		TrainDir:    "/srv/muster/data/train",
		TargetDir:   "/srv/muster/data/target",
		Topics:      20,
		Iterations:  100,
		Algorithm:   "em",
		ArtifactJar: "/opt/muster/analytics.jar",
		MainClass:   "analytics.TopicModelJob",
	}
}

func TestSubmitLocalArgsAndLog(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{outFor: map[string]string{"spark-submit": "job output"}}
	sub := NewSubmitter(install, runner, testConfig())

	logPath := filepath.Join(t.TempDir(), "job-20260825-120000.log")
	require.NoError(t, os.WriteFile(logPath, []byte("earlier attempt\n"), 0o644))

	code, err := sub.SubmitLocal(context.Background(), testJob(),
		budget.LocalBudget{DriverMB: 11468, MaxResultMB: 5734}, logPath)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, install.SubmitBinary(), calls[0].name)
	assert.Equal(t, []string{
		"--master", "local[*]",
		"--driver-memory", "11468m",
		"--conf", "spark.driver.maxResultSize=5734m",
		"--class", "analytics.TopicModelJob",
		"/opt/muster/analytics.jar",
		"/srv/muster/data/train", "/srv/muster/data/target", "20", "100", "em",
	}, calls[0].args)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "earlier attempt\njob output\n", string(data), "run log is append-only")
}

func TestSubmitClusterArgs(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{}
	sub := NewSubmitter(install, runner, testConfig())

	code, err := sub.SubmitCluster(context.Background(), testJob(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"--master", "spark://10.0.0.1:7077",
		"--class", "analytics.TopicModelJob",
		"/opt/muster/analytics.jar",
		"/srv/muster/data/train", "/srv/muster/data/target", "20", "100", "em",
	}, calls[0].args)
}

func TestSubmitSurfacesJobExitCode(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{
		outFor: map[string]string{"spark-submit": "ERROR: training data not found"},
		errFor: map[string]error{"spark-submit": &fakeExitError{code: 3}},
	}
	sub := NewSubmitter(install, runner, testConfig())

	logPath := filepath.Join(t.TempDir(), "job.log")
	code, err := sub.SubmitLocal(context.Background(), testJob(), budget.LocalBudget{DriverMB: 1, MaxResultMB: 1}, logPath)
	require.NoError(t, err, "a job that ran and failed is an outcome, not a submit error")
	assert.Equal(t, 3, code)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "training data not found")
}

func TestSubmitLaunchFailure(t *testing.T) {
	install := makeInstall(t)
	runner := &fakeRunner{
		errFor: map[string]error{"spark-submit": errors.New("fork/exec: no such file or directory")},
	}
	sub := NewSubmitter(install, runner, testConfig())

	code, err := sub.SubmitCluster(context.Background(), testJob(), "")
	require.Error(t, err)
	assert.Equal(t, -1, code)
}

func TestConfigureMemory(t *testing.T) {
	install := makeInstall(t)

	require.NoError(t, ConfigureMemory(install, budget.Budget{
		DaemonMB:   1024,
		ExecutorMB: 11264,
		DriverMB:   11264,
	}))

	data, err := os.ReadFile(install.EnvFile())
	require.NoError(t, err)
	want := `# Generated by muster engine config-memory. Regenerated on every call.
export SPARK_DAEMON_MEMORY=1024m
export SPARK_WORKER_MEMORY=11264m
export SPARK_EXECUTOR_MEMORY=11264m
export SPARK_DRIVER_MEMORY=11264m
`
	assert.Equal(t, want, string(data))
}

func TestConfigureMemoryOverwritesPrevious(t *testing.T) {
	install := makeInstall(t)

	require.NoError(t, ConfigureMemory(install, budget.Budget{DaemonMB: 512, ExecutorMB: 1000, DriverMB: 1000}))
	require.NoError(t, ConfigureMemory(install, budget.Budget{DaemonMB: 1024, ExecutorMB: 2000, DriverMB: 2000}))

	data, err := os.ReadFile(install.EnvFile())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "512m", "memory config is derived fresh, not accumulated")
	assert.Contains(t, string(data), "SPARK_DAEMON_MEMORY=1024m")
}
