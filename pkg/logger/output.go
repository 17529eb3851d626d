package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// openOutputs resolves output names to writers. "stdout" and "stderr" are
// the process streams; anything else is a file opened for append.
func openOutputs(paths []string) (io.Writer, []io.Closer, error) {
	if len(paths) == 0 {
		return os.Stdout, nil, nil
	}
	var (
		writers []io.Writer
		closers []io.Closer
	)
	for _, p := range paths {
		switch strings.ToLower(p) {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			f, err := openAppend(p)
			if err != nil {
				closeAll(closers)
				return nil, nil, err
			}
			writers = append(writers, f)
			closers = append(closers, f)
		}
	}
	if len(writers) == 1 {
		return writers[0], closers, nil
	}
	return io.MultiWriter(writers...), closers, nil
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
