/*
Package engine manages the compute engine install on the coordinator: daemon
lifecycle, job submission, and memory configuration.

The engine is an external Spark-style installation. Muster never reaches
into it beyond four contracts:

	sbin/*.sh          daemon control scripts
	bin/spark-submit   job submission
	conf/spark-env.sh  memory sizing hand-off (written by ConfigureMemory)
	exit status        the job's outcome

# Install validation

OpenInstall checks the full layout before anything runs. An incomplete
install fails with InvalidInstallError naming every missing entry, so the
operator fixes the path once instead of discovering one missing script per
attempt. No operation in this package accepts an unvalidated directory.

# Daemon lifecycle

StartCluster resolves the coordinator's IP from the configured NIC, starts
the master bound to it, waits out a settle delay, then starts the worker
daemon pointed at spark://<ip>:<port>. The delay exists because the worker
registers with its master on startup; dialing too early fails the whole
start. StopCluster runs the same pair in reverse: worker first, then master,
so the worker never outlives the endpoint it is registered with.

The settle timer comes from the clock carried in ctx, which lets tests drive
it with a mock instead of sleeping.

# Submission

SubmitLocal runs the job in a single JVM sized by the ad-hoc local budget:

	spark-submit --master local[*] --driver-memory <n>m \
	    --conf spark.driver.maxResultSize=<n>m \
	    --class <main> <jar> <train> <target> <topics> <iters> <algo>

SubmitCluster targets the coordinator's engine endpoint and leaves sizing to
the spark-env.sh written before the daemons started.

Both append the engine's combined output to the per-token run log (opened
O_APPEND, never truncated) and return the job's exit status. A non-zero exit
is a job outcome and not an error; only failures to launch spark-submit at
all come back as errors.

# Memory configuration

ConfigureMemory writes conf/spark-env.sh exporting SPARK_DAEMON_MEMORY,
SPARK_WORKER_MEMORY, SPARK_EXECUTOR_MEMORY and SPARK_DRIVER_MEMORY from a
cluster budget. The file is regenerated whole on every call; host RAM is
re-read each time rather than cached anywhere.

# Usage

	install, err := engine.OpenInstall(cfg.Engine.Dir)
	if err != nil {
	    return err
	}

	lc := engine.NewLifecycle(install, proc.ExecRunner{}, engine.Config{
	    Interface:   cfg.Engine.Interface,
	    ServicePort: cfg.Engine.ServicePort,
	    SettleDelay: cfg.Engine.SettleDelay.Std(),
	}, broker)

	if err := lc.StartCluster(ctx); err != nil {
	    return err
	}

# See Also

  - pkg/budget: derives the numbers ConfigureMemory and SubmitLocal consume.
  - pkg/network: NIC address resolution behind AddressResolver.
  - pkg/orchestrator: calls the submitter inside a telemetry-bracketed run.
*/
package engine
