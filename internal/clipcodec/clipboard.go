package clipcodec

import (
	"sync"

	"github.com/atotto/clipboard"

	"github.com/langarchive/catalog/internal/log"
)

// Clipboard reads and writes clipboard text.
type Clipboard interface {
	Copy(text string) error
	Paste() (string, error)
}

// System uses the operating system clipboard.
type System struct{}

// Copy writes text to the system clipboard.
func (System) Copy(text string) error { return clipboard.WriteAll(text) }

// Paste reads the system clipboard.
func (System) Paste() (string, error) { return clipboard.ReadAll() }

// Memory is an in-process clipboard, used in tests and on systems without a
// clipboard utility.
type Memory struct {
	mu   sync.Mutex
	text string
}

// Copy stores text.
func (m *Memory) Copy(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// Paste returns the stored text.
func (m *Memory) Paste() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// Detect returns the system clipboard when one is available and an
// in-memory clipboard otherwise.
func Detect() Clipboard {
	if clipboard.Unsupported {
		log.Warn(log.CatClipboard, "system clipboard unavailable, using in-memory clipboard")
		return &Memory{}
	}
	return System{}
}
