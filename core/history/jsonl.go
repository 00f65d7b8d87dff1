package history

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// JSONLStore appends records to a JSON-lines file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates the file if needed.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

func (s *JSONLStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

func (s *JSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := scanFiles(ctx, []string{s.path}, q)
	if err != nil {
		return nil, err
	}
	return finish(out, q.Limit), nil
}

func (s *JSONLStore) Get(ctx context.Context, runID string) (Record, error) {
	recs, err := s.Query(ctx, Query{})
	if err != nil {
		return Record{}, err
	}
	return find(recs, runID)
}

func (s *JSONLStore) Close() error { return nil }

// RotatingJSONLStore writes JSON lines through lumberjack so the file is
// rotated by size and age. Queries read the rotated backups too.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &RotatingJSONLStore{
		path: path,
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		},
	}, nil
}

func (s *RotatingJSONLStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewEncoder(s.writer).Encode(rec)
}

func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	out, err := scanFiles(ctx, files, q)
	if err != nil {
		return nil, err
	}
	return finish(out, q.Limit), nil
}

func (s *RotatingJSONLStore) Get(ctx context.Context, runID string) (Record, error) {
	recs, err := s.Query(ctx, Query{})
	if err != nil {
		return Record{}, err
	}
	return find(recs, runID)
}

// files lists the live file and lumberjack backups (name-timestamp.ext).
func (s *RotatingJSONLStore) files() ([]string, error) {
	ext := filepath.Ext(s.path)
	prefix := s.path[:len(s.path)-len(ext)]
	backups, err := filepath.Glob(prefix + "-*" + ext)
	if err != nil {
		return nil, err
	}
	return append(backups, s.path), nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error { return s.writer.Close() }

func scanFiles(ctx context.Context, files []string, q Query) ([]Record, error) {
	var out []Record
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(name)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		recs, err := scan(f, q)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func scan(r io.Reader, q Query) ([]Record, error) {
	var out []Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		if q.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, sc.Err()
}

func find(recs []Record, runID string) (Record, error) {
	for _, r := range recs {
		if r.RunID == runID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
