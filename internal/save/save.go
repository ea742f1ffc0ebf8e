// Package save persists a dispatch run's Responses incrementally as
// they arrive, rather than buffering the whole run in memory and
// writing once at the end — useful since a dispatch against thousands
// of hosts can run long enough that a crash partway through would
// otherwise lose everything collected so far.
package save

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parallelssh/pssh/internal/dispatch"
)

// DirForDate returns the date-partitioned directory name a run's
// output belongs under, matching the source tool's one-directory-
// per-day layout so multiple runs on the same day share a folder.
func DirForDate(t time.Time) string {
	return t.Format("02_January_2006")
}

// Writer incrementally appends Responses to a JSON array file as they
// are received, and separately records the hostnames of responses
// that failed for agent or auth reasons ([-42] / [-19]) — the
// collaborator-side bookkeeping the error-handling design calls out
// as "our side" failures worth tracking apart from ordinary
// unreachable/exec failures.
type Writer struct {
	log zerolog.Logger

	dataPath   string
	failedPath string

	data   io.WriteCloser
	failed io.WriteCloser

	ok, ko      int
	wroteAny    bool
	failedAny   bool
}

// NewWriter creates (or truncates) the incremental data file and the
// failed-hosts side file under dir, named after label (the CLI passes
// the module name, or "command" for command mode).
func NewWriter(dir, label string, log zerolog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	dataPath := filepath.Join(dir, fmt.Sprintf("incremental_%s.json", label))
	data, err := os.Create(dataPath)
	if err != nil {
		return nil, fmt.Errorf("create incremental file: %w", err)
	}

	failedPath := filepath.Join(dir, fmt.Sprintf("failed_hosts_%s.txt", label))
	failed, err := os.Create(failedPath)
	if err != nil {
		data.Close()
		return nil, fmt.Errorf("create failed-hosts file: %w", err)
	}

	if _, err := data.WriteString("[\n"); err != nil {
		data.Close()
		failed.Close()
		return nil, fmt.Errorf("write opening bracket: %w", err)
	}

	return &Writer{
		log:        log,
		dataPath:   dataPath,
		failedPath: failedPath,
		data:       data,
		failed:     failed,
	}, nil
}

// Write records one Response. Responses whose Result embeds [-42] or
// [-19] are diverted to the failed-hosts file instead of the JSON
// array — the collaborator's retry bookkeeping reads that file
// separately.
func (w *Writer) Write(r dispatch.Response) error {
	if r.Status {
		w.ok++
	} else {
		w.ko++
	}

	if !r.Status && (strings.Contains(r.Result, "[-42]") || strings.Contains(r.Result, "[-19]")) {
		host, _, splitErr := splitHost(r.Hostname)
		if splitErr != nil {
			host = r.Hostname
		}
		if _, err := fmt.Fprintln(w.failed, host); err != nil {
			return fmt.Errorf("write failed-hosts entry: %w", err)
		}
		w.failedAny = true
		w.log.Warn().Str("host", host).Str("result", r.Result).Msg("agent/auth failure recorded")
		return nil
	}

	prefix := ""
	if w.wroteAny {
		prefix = ",\n"
	}
	entry, err := jsonIndent(r)
	if err != nil {
		return fmt.Errorf("encode response for %s: %w", r.Hostname, err)
	}
	if _, err := fmt.Fprint(w.data, prefix+entry); err != nil {
		return fmt.Errorf("write incremental entry: %w", err)
	}
	w.wroteAny = true
	w.log.Info().Str("host", r.Hostname).Bool("status", r.Status).Int("ok", w.ok).Int("failed", w.ko).Msg("response recorded")
	return nil
}

// Close finalizes the JSON array and removes the failed-hosts file if
// nothing was ever written to it.
func (w *Writer) Close() error {
	if _, err := w.data.WriteString("\n]\n"); err != nil {
		w.data.Close()
		w.failed.Close()
		return fmt.Errorf("write closing bracket: %w", err)
	}
	if err := w.data.Close(); err != nil {
		w.failed.Close()
		return fmt.Errorf("close incremental file: %w", err)
	}
	if err := w.failed.Close(); err != nil {
		return fmt.Errorf("close failed-hosts file: %w", err)
	}

	if !w.failedAny {
		if err := os.Remove(w.failedPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove empty failed-hosts file: %w", err)
		}
	}
	return nil
}

func splitHost(hostname string) (host, port string, err error) {
	idx := strings.LastIndex(hostname, ":")
	if idx < 0 {
		return hostname, "", nil
	}
	return hostname[:idx], hostname[idx+1:], nil
}
