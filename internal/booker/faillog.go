package booker

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"kadence-booker/internal/models"
)

// DefaultFailureLogPath is where creation failures are appended unless the
// caller picks a different path.
const DefaultFailureLogPath = "./kadence-booker-failures.log"

const failureLogHeader = "Row,Email Address,Building Name,Floor Name,Space Name,Space Type,Date,Start Time,End Time,Error"

// FailureLog is the shared append-only CSV of failed rows. Appends from
// concurrent workers are serialized behind a mutex, and the header is
// written exactly once no matter which worker fails first. The file is only
// opened once the first failure arrives.
type FailureLog struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	file afero.File
}

func NewFailureLog(fs afero.Fs, path string) *FailureLog {
	if path == "" {
		path = DefaultFailureLogPath
	}
	return &FailureLog{fs: fs, path: path}
}

// Record appends one failed row. Missing time fields are substituted with
// the defaults the window computation would have used.
func (l *FailureLog) Record(row models.InputRow, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if err := l.open(); err != nil {
			return err
		}
	}

	fields := []string{
		strconv.Itoa(row.Number),
		row.Email,
		row.Building,
		row.Floor,
		row.Space,
		row.SpaceType,
		row.Date,
		EffectiveTime(row.StartTime, DefaultStartTime),
		EffectiveTime(row.EndTime, DefaultEndTime),
		message,
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quote(f)
	}
	if _, err := l.file.WriteString(strings.Join(quoted, ",") + "\n"); err != nil {
		return fmt.Errorf("failed to append to failure log %q: %w", l.path, err)
	}
	return nil
}

// open prepares the log for appending, writing the header unless the file
// already starts with it.
func (l *FailureLog) open() error {
	needHeader := true
	if data, err := afero.ReadFile(l.fs, l.path); err == nil {
		needHeader = !strings.HasPrefix(string(data), failureLogHeader)
	}

	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open failure log %q: %w", l.path, err)
	}
	if needHeader {
		if _, err := f.WriteString(failureLogHeader + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("failed to write failure log header: %w", err)
		}
	}
	l.file = f
	return nil
}

// Close flushes and closes the log. Safe to call when nothing was recorded.
func (l *FailureLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
