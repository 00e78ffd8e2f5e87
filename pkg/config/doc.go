/*
Package config loads Muster's coordinator configuration.

One YAML file overlays a complete set of defaults, so a bare coordinator
works with no file at all and a production coordinator typically overrides
only a handful of paths. The zero configuration is never partially applied:
a malformed file is an error rather than a silent fallback to defaults.

# Knobs and Defaults

	data_root:        /srv/muster/data    shared telemetry/job-log directory
	membership_file:  /etc/muster/slaves  one worker address per line
	pid_dir:          /var/run/muster     one <role>.pid per live collector
	journal_path:     /var/lib/muster/runs.db

	memory.os_reserve_mb:          8192   held back for OS + page cache
	memory.daemon_reserve_mb:      1024   per engine daemon (there are two)
	memory.local_driver_fraction:  0.7    single-node driver ceiling
	memory.local_result_fraction:  0.5    of the driver ceiling

	telemetry.cpu_interval:   1s          CPU/RAM sampler tick
	telemetry.disk_interval:  5s          disk-free sampler tick
	telemetry.cooldown:       15s         job exit → telemetry stop delay
	telemetry.remote_binary:  muster      worker-side binary for fan-out

	engine.dir:           /opt/spark      install used by cluster start/stop
	engine.interface:     eth0            NIC for the coordinator bind address
	engine.service_port:  7077
	engine.settle_delay:  10s             coordinator daemon settle time

	exports.table:        /etc/exports
	exports.shared_path:  (data_root)
	exports.options:      rw,sync,no_subtree_check

	ssh.user:     root
	ssh.key_file: /root/.ssh/id_rsa
	ssh.port:     22
	ssh.timeout:  30s                     bound on every remote command

	server.addr:             127.0.0.1:9620
	server.refresh_interval: 15s

Durations are Go duration strings ("15s", "2m30s").

# Usage

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}
	controller := telemetry.NewController(mgr, sup, telemetry.Config{
		CPUInterval:  cfg.Telemetry.CPUInterval.Std(),
		DiskInterval: cfg.Telemetry.DiskInterval.Std(),
	})
*/
package config
