// Package results reads and writes experiment result files.
//
// A results file holds one run: one row per trial, three space-separated
// integers "<delay_ms> <success 0|1> <latency_ms>", no header.
package results

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultPattern names result files inside the results directory.
const DefaultPattern = "result%d.csv"

// ErrMalformed is wrapped by every ParseError.
var ErrMalformed = errors.New("malformed results row")

// Record is one trial outcome. Delay and Latency are in milliseconds.
type Record struct {
	Delay   int
	Success bool
	Latency int
}

// ParseError locates a bad row in a results file.
type ParseError struct {
	Path string
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.Path, e.Line, ErrMalformed, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrMalformed }

// NextAvailablePath returns dir/fmt.Sprintf(pattern, N) for the smallest
// N >= 0 that does not exist yet, creating dir if needed. Two processes
// racing for the same directory may pick the same N.
func NextAvailablePath(dir, pattern string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("results dir: %w", err)
	}
	for n := 0; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf(pattern, n))
		_, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %q: %w", p, err)
		}
	}
}

// Write stores records at path. The rows go to a temporary file in the same
// directory which is renamed into place once complete, so an interrupted
// write leaves nothing at path.
func Write(path string, records []Record) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%d %d %d\n", r.Delay, btoi(r.Success), r.Latency); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close results: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load parses the results file at path. Blank lines are skipped; any other
// row must hold exactly three integers with a success field of 0 or 1.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		rec, ok := parseRow(fields)
		if !ok {
			return nil, &ParseError{Path: path, Line: line, Text: text}
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Path: path, Line: line + 1, Text: "<line too long>"}
		}
		return nil, fmt.Errorf("load results %q: %w", path, err)
	}
	return out, nil
}

func parseRow(fields []string) (Record, bool) {
	if len(fields) != 3 {
		return Record{}, false
	}
	var v [3]int
	for i, s := range fields {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Record{}, false
		}
		v[i] = n
	}
	if v[1] != 0 && v[1] != 1 {
		return Record{}, false
	}
	return Record{Delay: v[0], Success: v[1] == 1, Latency: v[2]}, true
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
