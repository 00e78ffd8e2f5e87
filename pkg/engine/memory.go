package engine

import (
	"fmt"
	"os"

	"github.com/musterhq/muster/pkg/budget"
)

// ConfigureMemory writes the daemon memory sizing into the install's
// spark-env.sh. The budget is derived fresh from host RAM on every call and
// persisted nowhere else; the env file is the single hand-off point to the
// engine's own scripts.
func ConfigureMemory(install *Install, b budget.Budget) error {
	content := fmt.Sprintf(`# Generated by muster engine config-memory. Regenerated on every call.
export SPARK_DAEMON_MEMORY=%dm
export SPARK_WORKER_MEMORY=%dm
export SPARK_EXECUTOR_MEMORY=%dm
export SPARK_DRIVER_MEMORY=%dm
`, b.DaemonMB, b.ExecutorMB, b.ExecutorMB, b.DriverMB)

	if err := os.WriteFile(install.EnvFile(), []byte(content), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", install.EnvFile(), err)
	}
	return nil
}
