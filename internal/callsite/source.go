package callsite

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"easyinfo/internal/logging"
)

// sourceCache keeps the lines of every file a frame has pointed at.
// Files are read once; edits made while the process runs are not seen.
type sourceCache struct {
	mu    sync.Mutex
	files map[string][]string
}

var sources = &sourceCache{files: make(map[string][]string)}

func (c *sourceCache) lines(file string) ([]string, error) {
	if file == "" || file == "?" || strings.HasPrefix(file, "<") {
		return nil, fmt.Errorf("%w: frame has no file", ErrNoSourceAvailable)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if lines, ok := c.files[file]; ok {
		return lines, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		logging.CallsiteDebug("source unavailable for %s: %v", file, err)
		return nil, fmt.Errorf("%w: %v", ErrNoSourceAvailable, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	c.files[file] = lines
	logging.CallsiteDebug("cached %d source lines from %s", len(lines), file)
	return lines, nil
}

// Forget drops a file from the source cache so the next lookup rereads it.
func Forget(file string) {
	sources.mu.Lock()
	delete(sources.files, file)
	sources.mu.Unlock()
}
