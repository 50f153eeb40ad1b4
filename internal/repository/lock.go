package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"
)

// ErrLocked is returned when another process holds the data lock past the
// wait deadline.
var ErrLocked = errors.New("data directory locked")

const (
	lockPollMin = 5 * time.Millisecond
	lockPollMax = 100 * time.Millisecond
)

// LockInfo is the metadata written into the lock file.
type LockInfo struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	Owner     string    `json:"owner"` // "cli" or "server"
	Timestamp time.Time `json:"timestamp"`
}

// FileLock is an exclusive flock on a metadata file next to the data
// directory. The file outlives the lock: it is truncated on release and
// never unlinked, so every holder locks the same inode. A lock whose owner
// died is released by the kernel.
type FileLock struct {
	path  string
	owner string
	file  *os.File
}

// NewFileLock creates a lock at path on behalf of owner.
func NewFileLock(path, owner string) *FileLock {
	return &FileLock{path: path, owner: owner}
}

// Acquire takes the lock without waiting.
func (l *FileLock) Acquire() error {
	return l.AcquireWithin(0)
}

// AcquireWithin retries until the lock is free or wait has elapsed.
func (l *FileLock) AcquireWithin(wait time.Duration) error {
	deadline := time.Now().Add(wait)
	delay := lockPollMin
	for {
		err := l.tryAcquire()
		if !errors.Is(err, ErrLocked) || !time.Now().Before(deadline) {
			return err
		}
		time.Sleep(min(delay, time.Until(deadline)))
		delay = min(delay*2, lockPollMax)
	}
}

func (l *FileLock) tryAcquire() error {
	if l.file != nil {
		return fmt.Errorf("lock %s already held by this handle", l.path)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		closeFile(file)
		if held, readErr := l.read(); readErr == nil {
			age := time.Since(held.Timestamp).Round(time.Second)
			return fmt.Errorf("%w by %s (PID %d, %v ago)", ErrLocked, held.Owner, held.PID, age)
		}
		return fmt.Errorf("%w: %v", ErrLocked, err)
	}

	// The path may have been replaced between open and flock; a lock on
	// an orphaned inode excludes nobody.
	if same, err := l.isCurrent(file); err != nil || !same {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		closeFile(file)
		if err != nil {
			return fmt.Errorf("stat lock file: %w", err)
		}
		return fmt.Errorf("%w: lock file replaced", ErrLocked)
	}
	l.file = file

	hostname, _ := os.Hostname()
	data, err := json.MarshalIndent(LockInfo{
		PID:       os.Getpid(),
		Hostname:  hostname,
		Owner:     l.owner,
		Timestamp: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lock metadata: %w", err)
	}
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := file.WriteAt(data, 0); err != nil {
		return fmt.Errorf("write lock metadata: %w", err)
	}
	return nil
}

func (l *FileLock) isCurrent(file *os.File) (bool, error) {
	held, err := file.Stat()
	if err != nil {
		return false, err
	}
	onDisk, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(held, onDisk), nil
}

// Release clears the metadata and unlocks. The lock file stays in place.
// Releasing an unheld lock is a no-op.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil

	truncErr := file.Truncate(0)
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_UN); err != nil {
		log.Printf("warning: release flock: %v", err)
	}
	closeFile(file)
	if truncErr != nil {
		return fmt.Errorf("clear lock metadata: %w", truncErr)
	}
	return nil
}

func (l *FileLock) read() (*LockInfo, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func closeFile(file *os.File) {
	if err := file.Close(); err != nil {
		log.Printf("warning: close lock file: %v", err)
	}
}
