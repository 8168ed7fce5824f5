package export

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultRelationalTimeout bounds one relational loader run.
const DefaultRelationalTimeout = 2 * time.Minute

// RelationalLoader hands a category's export file to an external loader tool.
// The tool receives the category name and the CSV path as arguments.
type RelationalLoader struct {
	binPath string
	timeout time.Duration
}

// NewRelationalLoader creates a loader around the given tool. An empty
// binPath disables the loader. A zero timeout uses the default.
func NewRelationalLoader(binPath string, timeout time.Duration) *RelationalLoader {
	if timeout <= 0 {
		timeout = DefaultRelationalTimeout
	}
	return &RelationalLoader{binPath: binPath, timeout: timeout}
}

// Enabled reports whether a loader tool is configured.
func (l *RelationalLoader) Enabled() bool { return l != nil && l.binPath != "" }

// Load runs the loader tool against an exported CSV. The run is bounded by
// the configured timeout.
func (l *RelationalLoader) Load(ctx context.Context, category, csvPath string) error {
	if !l.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, l.binPath, category, csvPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return eris.Wrapf(err, "export: relational loader failed for %s: %s", category, stderr.String())
	}

	zap.L().Info("export: relational load complete",
		zap.String("category", category),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
