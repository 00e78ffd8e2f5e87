package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "/etc/muster/muster.yaml"

// Duration wraps time.Duration so YAML values can be written as "15s", "5m".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full coordinator configuration. Every knob has a default;
// a missing config file means running on pure defaults.
type Config struct {
	// DataRoot is the shared directory telemetry output and job logs live
	// under. It is also the path exported to workers over NFS unless
	// Exports.SharedPath overrides it.
	DataRoot string `yaml:"data_root"`

	// MembershipFile holds one worker address per line and is the single
	// source of truth for cluster membership.
	MembershipFile string `yaml:"membership_file"`

	// PIDDir holds one <role>.pid file per live background collector.
	PIDDir string `yaml:"pid_dir"`

	// JournalPath is the bbolt database recording run history.
	JournalPath string `yaml:"journal_path"`

	Memory    MemoryConfig    `yaml:"memory"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Engine    EngineConfig    `yaml:"engine"`
	Exports   ExportsConfig   `yaml:"exports"`
	SSH       SSHConfig       `yaml:"ssh"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// MemoryConfig drives the memory budget calculator.
type MemoryConfig struct {
	// OSReserveMB is held back for the OS and page cache before any
	// engine allocation.
	OSReserveMB int `yaml:"os_reserve_mb"`
	// DaemonReserveMB is held back for each of the two engine daemons.
	DaemonReserveMB int `yaml:"daemon_reserve_mb"`
	// LocalDriverFraction of total host memory becomes the driver ceiling
	// for single-node runs.
	LocalDriverFraction float64 `yaml:"local_driver_fraction"`
	// LocalResultFraction of the driver ceiling becomes the collected
	// result-size ceiling for single-node runs.
	LocalResultFraction float64 `yaml:"local_result_fraction"`
}

// TelemetryConfig drives the per-run collectors.
type TelemetryConfig struct {
	// CPUInterval is the CPU/RAM sampler tick.
	CPUInterval Duration `yaml:"cpu_interval"`
	// DiskInterval is the disk-free sampler tick.
	DiskInterval Duration `yaml:"disk_interval"`
	// Cooldown is observed between job exit and telemetry stop so the
	// engine's own cleanup shows up in the last disk samples.
	Cooldown Duration `yaml:"cooldown"`
	// RemoteBinary is the muster binary path on worker nodes, invoked over
	// SSH for metrics start/stop.
	RemoteBinary string `yaml:"remote_binary"`
}

// EngineConfig locates and parameterizes the compute engine.
type EngineConfig struct {
	// Dir is the engine installation used by cluster start/stop. Run
	// commands take the install dir as an argument instead.
	Dir string `yaml:"dir"`
	// Interface is the NIC whose IPv4 address the coordinator daemon
	// binds to.
	Interface string `yaml:"interface"`
	// ServicePort is the coordinator daemon's service port.
	ServicePort int `yaml:"service_port"`
	// SettleDelay is the wait between starting the coordinator daemon and
	// starting the worker daemon that points at it.
	SettleDelay Duration `yaml:"settle_delay"`
	// ArtifactJar is the analytics application artifact passed to submit.
	ArtifactJar string `yaml:"artifact_jar"`
	// MainClass is the artifact's entry point.
	MainClass string `yaml:"main_class"`
}

// ExportsConfig drives the NFS export table synchronizer.
type ExportsConfig struct {
	// Table is the export table file.
	Table string `yaml:"table"`
	// SharedPath is the exported directory; empty means DataRoot.
	SharedPath string `yaml:"shared_path"`
	// Options is the per-rule NFS option string.
	Options string `yaml:"options"`
}

// SSHConfig is the fixed credential used for all remote worker commands.
type SSHConfig struct {
	User    string   `yaml:"user"`
	KeyFile string   `yaml:"key_file"`
	Port    int      `yaml:"port"`
	Timeout Duration `yaml:"timeout"`
	// KnownHostsFile is optional; when empty, host keys are not verified,
	// which is the usual posture for a closed lab network.
	KnownHostsFile string `yaml:"known_hosts_file"`
}

// ServerConfig is the read-only status server.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file overrides anything.
func Default() *Config {
	return &Config{
		DataRoot:       "/srv/muster/data",
		MembershipFile: "/etc/muster/slaves",
		PIDDir:         "/var/run/muster",
		JournalPath:    "/var/lib/muster/runs.db",
		Memory: MemoryConfig{
			OSReserveMB:         8192,
			DaemonReserveMB:     1024,
			LocalDriverFraction: 0.7,
			LocalResultFraction: 0.5,
		},
		Telemetry: TelemetryConfig{
			CPUInterval:  Duration(1 * time.Second),
			DiskInterval: Duration(5 * time.Second),
			Cooldown:     Duration(15 * time.Second),
			RemoteBinary: "muster",
		},
		Engine: EngineConfig{
			Dir:         "/opt/spark",
			Interface:   "eth0",
			ServicePort: 7077,
			SettleDelay: Duration(10 * time.Second),
			ArtifactJar: "/opt/muster/analytics.jar",
			MainClass:   "analytics.TopicModelJob",
		},
		Exports: ExportsConfig{
			Table:   "/etc/exports",
			Options: "rw,sync,no_subtree_check",
		},
		SSH: SSHConfig{
			User:    "root",
			KeyFile: "/root/.ssh/id_rsa",
			Port:    22,
			Timeout: Duration(30 * time.Second),
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:9620",
			RefreshInterval: Duration(15 * time.Second),
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error: the defaults stand on their own. An unreadable or malformed file
// is an error so a typo never silently reverts the cluster to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Exports.SharedPath == "" {
		cfg.Exports.SharedPath = cfg.DataRoot
	}
	return cfg, nil
}
