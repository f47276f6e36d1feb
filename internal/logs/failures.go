package logs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cliconfig-go/internal/errmsg"
)

// FailureLogName is the file, inside the data directory, that records
// failed commands together with their user-facing explanation.
const FailureLogName = "failures.log"

const failureBackupsKept = 5

// LogFailure appends one line for a failed command:
//
//	timestamp [ERROR] command | message | action | raw error
func LogFailure(dataDir, command string, failure error) error {
	if failure == nil {
		return nil
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(failureLogPath(dataDir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", FailureLogName, err)
	}
	defer f.Close()

	message, action := "unclassified", ""
	if m, ok := errmsg.Classify(failure); ok {
		message, action = m.Message, m.Action
	}

	raw := strings.ReplaceAll(failure.Error(), "\n", " ")
	line := fmt.Sprintf("%s\t[ERROR]\t%s | %s | %s | %s\n",
		time.Now().Format("2006-01-02 15:04:05"), command, message, action, raw)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write to %s: %w", FailureLogName, err)
	}
	return nil
}

// ReadFailures returns the recorded failure lines, oldest first.
// A missing log yields no lines.
func ReadFailures(dataDir string) ([]string, error) {
	f, err := os.Open(failureLogPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", FailureLogName, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FailureLogName, err)
	}
	return lines, nil
}

// BackupAndClearFailureLog copies a non-empty failure log to a timestamped
// backup, keeps the newest backups and truncates the log.
func BackupAndClearFailureLog(dataDir string) error {
	logPath := failureLogPath(dataDir)

	content, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read log for backup: %w", err)
	}

	if len(content) > 0 {
		backupPath := filepath.Join(dataDir,
			fmt.Sprintf("failures.backup.%s.log", time.Now().Format("20060102-150405.000")))
		if err := os.WriteFile(backupPath, content, 0644); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		if err := cleanOldBackups(dataDir, failureBackupsKept); err != nil {
			return err
		}
	}

	if err := os.Truncate(logPath, 0); err != nil {
		return fmt.Errorf("failed to clear log: %w", err)
	}
	return nil
}

func cleanOldBackups(dataDir string, keepCount int) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "failures.backup.*.log"))
	if err != nil {
		return fmt.Errorf("failed to list backup files: %w", err)
	}
	if len(files) <= keepCount {
		return nil
	}

	// Names embed the timestamp, so lexical order is age order.
	sort.Strings(files)
	for _, file := range files[:len(files)-keepCount] {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old backup %s: %w", file, err)
		}
	}
	return nil
}

func failureLogPath(dataDir string) string {
	return filepath.Join(dataDir, FailureLogName)
}
