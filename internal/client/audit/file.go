package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/smartkraft/lebensspur/internal/client/models"
	"github.com/smartkraft/lebensspur/internal/filex"
)

// FileAppender appends audit entries to a JSONL file.
type FileAppender struct {
	path string
	mu   sync.Mutex
}

func NewFileAppender(path string) *FileAppender {
	return &FileAppender{path: path}
}

func (a *FileAppender) Append(entry models.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := filex.EnsureParentDir(a.path); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// ReadAll loads every entry in file order. A missing file yields no entries.
// Malformed lines are skipped.
func (a *FileAppender) ReadAll() ([]models.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var out []models.AuditEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e models.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return out, nil
}
