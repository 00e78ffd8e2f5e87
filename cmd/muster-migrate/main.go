package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/musterhq/muster/pkg/journal"
	"github.com/musterhq/muster/pkg/types"
)

var (
	dataRoot    = flag.String("data-root", "/srv/muster/data", "Shared data directory holding the run directories")
	journalPath = flag.String("journal", "/var/lib/muster/runs.db", "Journal database to backfill")
	dryRun      = flag.Bool("dry-run", false, "Show what would be backfilled without making changes")
	backupPath  = flag.String("backup", "", "Path to back up the journal before backfilling (default: <journal>.backup)")
)

// tokenFormat is the run token layout embedded in every run directory name.
const tokenFormat = "20060102-150405"

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Muster Journal Backfill Tool - run directories → journal")
	log.Println("========================================================")

	log.Printf("Data root: %s", *dataRoot)
	log.Printf("Journal: %s", *journalPath)
	log.Printf("Dry run: %v", *dryRun)

	candidates, err := scanRunDirs(*dataRoot)
	if err != nil {
		log.Fatalf("Failed to scan data root: %v", err)
	}
	if len(candidates) == 0 {
		log.Println("✓ No run directories found - nothing to backfill")
		return
	}
	log.Printf("Found %d run directories", len(candidates))

	// Create backup unless in dry-run mode
	journalExists := false
	if _, err := os.Stat(*journalPath); err == nil {
		journalExists = true
	}
	if journalExists && !*dryRun {
		backupFile := *backupPath
		if backupFile == "" {
			backupFile = *journalPath + ".backup"
		}
		log.Printf("Creating backup: %s", backupFile)
		if err := copyFile(*journalPath, backupFile); err != nil {
			log.Fatalf("Failed to create backup: %v", err)
		}
		log.Println("✓ Backup created successfully")
	}

	existing := make(map[string]bool)
	var jnl *journal.Journal
	if journalExists || !*dryRun {
		jnl, err = journal.Open(*journalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		defer jnl.Close()

		records, err := jnl.List()
		if err != nil {
			log.Fatalf("Failed to read journal: %v", err)
		}
		for _, r := range records {
			existing[r.Token] = true
		}
		log.Printf("Journal already holds %d records", len(records))
	}

	var created, skipped int
	for _, rec := range candidates {
		if existing[rec.Token] {
			skipped++
			continue
		}
		if *dryRun {
			log.Printf("  [DRY RUN] would backfill %s (%s, %d workers)",
				rec.Token, rec.Mode, len(rec.Workers))
			created++
			continue
		}
		rec.ID = uuid.New().String()
		if err := jnl.Put(rec); err != nil {
			log.Fatalf("Failed to backfill %s: %v", rec.Token, err)
		}
		created++
		if created%10 == 0 {
			log.Printf("  Backfilled %d/%d...", created, len(candidates))
		}
	}

	if *dryRun {
		log.Printf("\nDry run completed: %d records would be created, %d already journaled.", created, skipped)
		log.Println("Run without --dry-run to perform the backfill.")
	} else {
		log.Printf("\n✓ Backfill completed: %d records created, %d already journaled.", created, skipped)
		log.Println("Backfilled records carry exit code -1: pre-journal runs never recorded it.")
	}
}

// scanRunDirs turns the run directories under dataRoot into journal records,
// one per coordinator directory, sorted by token. Worker directories attach
// to their run's record; a worker directory with no matching coordinator
// directory is reported and ignored.
func scanRunDirs(dataRoot string) ([]*types.RunRecord, error) {
	entries, err := os.ReadDir(dataRoot)
	if err != nil {
		return nil, err
	}

	var tokens []string
	workers := make(map[string][]types.WorkerTelemetry)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		prefix, token, ok := splitToken(e.Name())
		if !ok {
			continue
		}
		switch {
		case prefix == "master":
			tokens = append(tokens, token)
		case strings.HasPrefix(prefix, "slave-"):
			addr := strings.TrimPrefix(prefix, "slave-")
			workers[token] = append(workers[token], types.WorkerTelemetry{
				Address: types.WorkerAddress(addr),
			})
		}
	}
	sort.Strings(tokens)

	records := make([]*types.RunRecord, 0, len(tokens))
	for _, token := range tokens {
		started, err := time.ParseInLocation(tokenFormat, token, time.Local)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", token, err)
		}

		mode := types.RunModeLocal
		if len(workers[token]) > 0 {
			mode = types.RunModeCluster
		}

		logPath := filepath.Join(dataRoot, "job-"+token+".log")
		if _, err := os.Stat(logPath); err != nil {
			logPath = ""
		}

		records = append(records, &types.RunRecord{
			Token:     token,
			Mode:      mode,
			Status:    types.RunStatusCompleted,
			ExitCode:  -1,
			LogPath:   logPath,
			Workers:   workers[token],
			StartedAt: started,
		})
		delete(workers, token)
	}

	for token, orphans := range workers {
		log.Printf("⚠ Warning: %d worker directories for token %s have no coordinator directory, skipping",
			len(orphans), token)
	}

	return records, nil
}

// splitToken splits a run directory name "<prefix>-<token>" around the
// fixed-width token suffix.
func splitToken(name string) (prefix, token string, ok bool) {
	if len(name) < len(tokenFormat)+1 {
		return "", "", false
	}
	cut := len(name) - len(tokenFormat)
	if name[cut-1] != '-' {
		return "", "", false
	}
	token = name[cut:]
	if _, err := time.ParseInLocation(tokenFormat, token, time.Local); err != nil {
		return "", "", false
	}
	return name[:cut-1], token, true
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0600)
}
