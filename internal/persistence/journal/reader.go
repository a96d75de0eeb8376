package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrStop can be returned from a Scan callback to end the scan early.
var ErrStop = errors.New("journal: stop")

// Files lists the journal files under dir in chronological order.
func Files(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, Prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// Reader walks every record of a journal directory in order.
type Reader struct {
	dir string
}

func NewReader(dir string) *Reader { return &Reader{dir: dir} }

// Scan calls fn for each record. Returning ErrStop from fn ends the scan
// without error.
func (r *Reader) Scan(fn func(path string, ex Exchange) error) error {
	files, err := Files(r.dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ScanFile(path, func(ex Exchange) error { return fn(path, ex) }); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// ScanFile decodes one .jsonl.zst file.
func ScanFile(path string, fn func(Exchange) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var ex Exchange
		if err := json.Unmarshal(sc.Bytes(), &ex); err != nil {
			return fmt.Errorf("%s:%d: unmarshal: %w", filepath.Base(path), line, err)
		}
		if err := fn(ex); err != nil {
			return err
		}
	}
	return sc.Err()
}
