package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// LockFileName is the run lock created in the working directory.
const LockFileName = ".drivercheck.lock"

// ErrLocked is returned when another live process holds the run lock.
var ErrLocked = errors.New("working directory is locked")

// LockInfo describes the run that owns the lock. A contending run reports
// it so the user can tell which scenario is still holding the output.
type LockInfo struct {
	PID        int       `json:"pid"`
	RunID      string    `json:"run_id"`
	Identifier string    `json:"identifier"`
	Reference  string    `json:"reference"`
	StartedAt  time.Time `json:"started_at"`
}

func (l *LockInfo) String() string {
	return fmt.Sprintf("run %s (identifier %q vs %s, PID %d, since %s)",
		l.RunID, l.Identifier, l.Reference, l.PID, l.StartedAt.Format(time.RFC3339))
}

// lockOwner builds the lock record for the run described by report.
func lockOwner(report *Report) LockInfo {
	return LockInfo{
		PID:        os.Getpid(),
		RunID:      report.RunID,
		Identifier: report.Identifier,
		Reference:  report.Reference,
		StartedAt:  report.StartedAt,
	}
}

// Acquire records owner in the lock file in dir. A lock left behind by a
// dead process is taken over.
func Acquire(dir string, owner LockInfo) error {
	lockPath := filepath.Join(dir, LockFileName)

	err := writeLock(lockPath, &owner)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create lock %s: %w", lockPath, err)
	}

	holder, readErr := ReadLock(dir)
	if readErr != nil {
		return fmt.Errorf("%w: %s (could not read lock: %v)", ErrLocked, dir, readErr)
	}
	if isProcessAlive(holder.PID) {
		return fmt.Errorf("%w: held by %s", ErrLocked, holder)
	}

	slog.Warn("taking over lock of dead run", "dir", dir, "stale_run", holder.RunID, "stale_pid", holder.PID)
	if err := os.Remove(lockPath); err != nil {
		return fmt.Errorf("remove stale lock: %w", err)
	}
	if err := writeLock(lockPath, &owner); err != nil {
		return fmt.Errorf("acquire after stale removal: %w", err)
	}
	return nil
}

// Release removes the lock file from dir. It is idempotent.
func Release(dir string) {
	lockPath := filepath.Join(dir, LockFileName)
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to release lock", "path", lockPath, "error", err)
	}
}

// ReadLock reads the lock file from dir.
func ReadLock(dir string) (*LockInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		return nil, err
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse lock: %w", err)
	}
	return &info, nil
}

// writeLock creates the lock file with O_EXCL so only one writer wins.
func writeLock(path string, info *LockInfo) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	encErr := json.NewEncoder(f).Encode(info)
	closeErr := f.Close()
	if encErr != nil {
		return encErr
	}
	return closeErr
}

func isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// signal 0 checks existence without delivering anything
	return proc.Signal(syscall.Signal(0)) == nil
}
