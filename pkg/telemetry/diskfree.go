package telemetry

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/tilinna/clock"
)

// diskFreeHeader is the first line of every disk-free CSV.
const diskFreeHeader = "timestamp,used,available,percent_used"

// CollectDiskFree samples the volume holding path at the given interval and
// appends one CSV row per sample until ctx is cancelled. The first sample is
// written immediately so even a short run yields data. Each row is synced to
// disk; the sampler dies by SIGKILL and must not lose buffered rows.
func CollectDiskFree(ctx context.Context, path string, interval time.Duration) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open disk-free output %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat disk-free output %s: %w", path, err)
	}
	if info.Size() == 0 {
		if _, err := fmt.Fprintln(f, diskFreeHeader); err != nil {
			return fmt.Errorf("write disk-free header: %w", err)
		}
	}

	clck := clock.FromContext(ctx)
	ticker := clck.NewTicker(interval)
	defer ticker.Stop()

	if err := appendSample(f, clck.Now(), path); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := appendSample(f, now, path); err != nil {
				return err
			}
		}
	}
}

func appendSample(f *os.File, now time.Time, path string) error {
	used, avail, err := diskUsageKiB(path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, sampleLine(now, used, avail)); err != nil {
		return fmt.Errorf("append disk-free sample: %w", err)
	}
	return f.Sync()
}

// diskUsageKiB returns used and available space of path's volume in KiB.
// Used counts all allocated blocks; available is what an unprivileged
// writer can still claim, matching df's accounting.
func diskUsageKiB(path string) (used, avail uint64, err error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize)
	used = (st.Blocks - st.Bfree) * bsize / 1024
	avail = st.Bavail * bsize / 1024
	return used, avail, nil
}

func sampleLine(now time.Time, used, avail uint64) string {
	percent := 0.0
	if total := used + avail; total > 0 {
		percent = float64(used) / float64(total) * 100
	}
	return fmt.Sprintf("%s,%d,%d,%.1f", now.Format("2006-01-02 15:04:05"), used, avail, percent)
}
