// Package builder streams zip archives from a declarative list of files and
// directories. Sources are opened only when their turn comes, so a builder
// holds nothing but paths until Stream is called.
package builder

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/sunr3d/explorer/internal/fsutil"
)

const copyBufferSize = 32 * 1024

// Source opens the bytes of a single entry.
type Source func() (io.ReadCloser, error)

type entry struct {
	name   string
	open   Source
	path   string
	dir    string
	prefix string
}

type Builder struct {
	logger     *zap.Logger
	level      int
	entries    []entry
	finalized  bool
	streamed   bool
	onProgress func(written uint64)
}

type Option func(*Builder)

// WithLevel sets the deflate level (-1..9).
func WithLevel(level int) Option {
	return func(b *Builder) {
		b.level = level
	}
}

// WithProgress registers a callback receiving the cumulative number of bytes
// handed to the sink.
func WithProgress(fn func(written uint64)) Option {
	return func(b *Builder) {
		b.onProgress = fn
	}
}

func New(log *zap.Logger, opts ...Option) *Builder {
	b := &Builder{
		logger: log,
		level:  flate.DefaultCompression,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append queues src under the archive name name.
func (b *Builder) Append(src Source, name string) {
	b.mustOpen("Append")
	b.entries = append(b.entries, entry{name: name, open: src})
}

// AppendFile queues the regular file at p under name; the file is opened
// lazily. A symlink at p fails the stream with ErrSourceRead.
func (b *Builder) AppendFile(p, name string) {
	b.mustOpen("AppendFile")
	b.entries = append(b.entries, entry{name: name, path: p})
}

// AppendDirectory queues every regular file below dir, rebased under prefix.
func (b *Builder) AppendDirectory(dir, prefix string) {
	b.mustOpen("AppendDirectory")
	b.entries = append(b.entries, entry{dir: dir, prefix: strings.Trim(filepath.ToSlash(prefix), "/")})
}

func (b *Builder) Finalize() {
	b.mustOpen("Finalize")
	b.finalized = true
}

func (b *Builder) Len() int {
	return len(b.entries)
}

func (b *Builder) mustOpen(op string) {
	if b.finalized {
		panic("builder: " + op + " после Finalize")
	}
}

// Stream writes the archive to w and returns the number of bytes written.
// On the first error it stops immediately and leaves the central directory
// unwritten, so a partial output is never a valid archive.
func (b *Builder) Stream(ctx context.Context, w io.Writer) (uint64, error) {
	if !b.finalized {
		return 0, ErrNotFinalized
	}
	if b.streamed {
		return 0, ErrStreamed
	}
	b.streamed = true

	sw := &sinkWriter{w: w, progress: b.onProgress}
	zw := zip.NewWriter(sw)
	level := b.level
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	s := &stream{
		ctx:    ctx,
		logger: b.logger,
		zw:     zw,
		seen:   make(map[string]struct{}),
		buf:    make([]byte, copyBufferSize),
	}

	for _, e := range b.entries {
		if err := ctx.Err(); err != nil {
			return sw.n, fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}

		var err error
		switch {
		case e.dir != "":
			err = s.directory(e.dir, e.prefix)
		case e.path != "":
			err = s.file(e.path, e.name)
		default:
			err = s.write(e.name, time.Now(), e.open)
		}
		if err != nil {
			return sw.n, classify(err)
		}
	}

	if err := zw.Close(); err != nil {
		return sw.n, classify(err)
	}

	return sw.n, nil
}

type stream struct {
	ctx    context.Context
	logger *zap.Logger
	zw     *zip.Writer
	seen   map[string]struct{}
	buf    []byte
}

func (s *stream) file(p, name string) error {
	info, err := os.Lstat(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceRead, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s является директорией", ErrSourceRead, p)
	}
	// same rule as directory(): links and special files are never followed
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s не является обычным файлом", ErrSourceRead, p)
	}
	return s.write(name, info.ModTime(), func() (io.ReadCloser, error) {
		return os.Open(p)
	})
}

func (s *stream) directory(dir, prefix string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceRead, err)
		}
		if err := s.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			s.logger.Debug("пропуск нерегулярного файла", zap.String("path", p))
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceRead, err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceRead, err)
		}

		return s.write(fsutil.EntryName(prefix, rel), info.ModTime(), func() (io.ReadCloser, error) {
			return os.Open(p)
		})
	})
}

func (s *stream) write(name string, modified time.Time, open Source) error {
	name = cleanEntryName(name)
	if name == "" {
		return fmt.Errorf("%w: пустое имя записи", ErrEncoding)
	}
	if _, dup := s.seen[name]; dup {
		s.logger.Warn("дубликат записи в архиве пропущен", zap.String("entry", name))
		return nil
	}
	s.seen[name] = struct{}{}

	rc, err := open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceRead, err)
	}
	defer rc.Close()

	w, err := s.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}

	if _, err := io.CopyBuffer(w, &sourceReader{ctx: s.ctx, r: rc}, s.buf); err != nil {
		return err
	}

	return nil
}

func cleanEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.ReplaceAll(name, "\x00", "")
	name = path.Clean("/" + name)
	return strings.Trim(name, "/")
}
