package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/specialistvlad/modelopt/internal/config"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. Output, logs
// included, goes to the returned buffer.
func SetupAppTest(t *testing.T, opts *config.Options) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	if opts.LogLevel == "" {
		opts.LogLevel = "debug"
	}
	testApp := NewApp(logBuffer, opts)

	t.Cleanup(func() {
		if os.Getenv("MO_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
