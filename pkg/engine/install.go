package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// requiredEntries are the install paths every operation depends on, relative
// to the install root.
var requiredEntries = []string{
	"sbin/start-master.sh",
	"sbin/stop-master.sh",
	"sbin/start-slave.sh",
	"sbin/stop-slave.sh",
	"bin/spark-submit",
	"conf",
}

// InvalidInstallError reports an engine directory that is missing required
// scripts or layout. Nothing is run against an invalid install.
type InvalidInstallError struct {
	Dir     string
	Missing []string
}

func (e *InvalidInstallError) Error() string {
	return fmt.Sprintf("invalid engine install at %s: missing %s", e.Dir, strings.Join(e.Missing, ", "))
}

// Install is a validated engine installation directory.
type Install struct {
	Dir string
}

// OpenInstall validates the install layout up front so every later daemon or
// submit failure means a real runtime problem, not a typo in the path.
func OpenInstall(dir string) (*Install, error) {
	var missing []string
	for _, entry := range requiredEntries {
		if _, err := os.Stat(filepath.Join(dir, entry)); err != nil {
			missing = append(missing, entry)
		}
	}
	if len(missing) > 0 {
		return nil, &InvalidInstallError{Dir: dir, Missing: missing}
	}
	return &Install{Dir: dir}, nil
}

// Script returns the absolute path of a daemon control script.
func (i *Install) Script(name string) string {
	return filepath.Join(i.Dir, "sbin", name)
}

// SubmitBinary returns the absolute path of spark-submit.
func (i *Install) SubmitBinary() string {
	return filepath.Join(i.Dir, "bin", "spark-submit")
}

// EnvFile returns the path of the generated memory configuration file.
func (i *Install) EnvFile() string {
	return filepath.Join(i.Dir, "conf", "spark-env.sh")
}
