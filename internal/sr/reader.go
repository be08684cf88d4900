// Package sr reads the caret-delimited ASCII files of the USDA National Nutrient
// Database for Standard Reference.
package sr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"usda-import/internal/model"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// Delimiter separates the fields of a record.
	Delimiter = "^"
	// Quote wraps text field values.
	Quote = "~"
	// gzipSuffix is tried when the plain file is not present.
	gzipSuffix = ".gz"
)

// Charset identifies the byte encoding of a source file.
type Charset string

const (
	CharsetASCII  Charset = "ascii"
	CharsetUTF8   Charset = "utf-8"
	CharsetLatin1 Charset = "latin1"
)

// ParseCharset maps a configuration value to a Charset.
func ParseCharset(value string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ascii", "us-ascii":
		return CharsetASCII, nil
	case "utf-8", "utf8":
		return CharsetUTF8, nil
	case "latin1", "latin-1", "iso-8859-1":
		return CharsetLatin1, nil
	default:
		return "", fmt.Errorf("unsupported charset: %s (must be ascii, utf-8 or latin1)", value)
	}
}

// Record is one non-blank line of a source file split into unquoted fields.
type Record struct {
	Line   int
	Fields []string
}

// Options controls how a source file is read.
type Options struct {
	// MinFields is the number of fields every record must have.
	MinFields int

	// Charset is the encoding of the file. Empty means ASCII.
	Charset Charset
}

// Reader yields the records of a source file in file order.
// It is not safe for concurrent use.
type Reader struct {
	path      string
	scanner   *bufio.Scanner
	minFields int
	line      int
	closers   []io.Closer
}

// Resolve returns the path of the file to read for path: path itself when it exists,
// otherwise its gzip-compressed sibling. It returns an error wrapping
// model.ErrMissingSourceFile when neither exists.
func Resolve(path string) (string, error) {
	for _, candidate := range []string{path, path + gzipSuffix} {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("%w: %s is a directory", model.ErrMissingSourceFile, candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat source file %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("%w: %s", model.ErrMissingSourceFile, path)
}

// Open opens the source file at path for reading. Files ending in .gz are
// decompressed transparently.
func Open(path string, opts Options) (*Reader, error) {
	resolved, err := Resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrMissingSourceFile, resolved)
		}
		return nil, fmt.Errorf("failed to open source file %s: %w", resolved, err)
	}

	var src io.Reader = file
	closers := []io.Closer{file}

	if strings.HasSuffix(resolved, gzipSuffix) {
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", resolved, err)
		}
		src = gzipReader
		closers = append(closers, gzipReader)
	}

	r := NewReader(resolved, src, opts)
	r.closers = closers
	return r, nil
}

// NewReader returns a Reader over src. name is only used in error messages.
// A leading byte order mark is dropped and selects the encoding it announces.
func NewReader(name string, src io.Reader, opts Options) *Reader {
	var decoder transform.Transformer = transform.Nop
	if opts.Charset == CharsetLatin1 {
		decoder = charmap.ISO8859_1.NewDecoder()
	}
	src = transform.NewReader(src, unicode.BOMOverride(decoder))

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Reader{
		path:      name,
		scanner:   scanner,
		minFields: opts.MinFields,
	}
}

// Path returns the file the reader was opened on.
func (r *Reader) Path() string {
	return r.path
}

// Next returns the next record. It returns io.EOF after the last record and a
// *model.RecordError when a line has fewer than MinFields fields.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		// SR releases may end with a DOS end-of-file marker.
		if strings.Trim(text, " \t\r\x1a") == "" {
			continue
		}

		fields := SplitLine(text)
		if len(fields) < r.minFields {
			return Record{}, &model.RecordError{
				File: r.path,
				Line: r.line,
				Got:  len(fields),
				Want: r.minFields,
			}
		}
		return Record{Line: r.line, Fields: fields}, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("error reading source file %s: %w", r.path, err)
	}
	return Record{}, io.EOF
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}

// SplitLine splits a raw line on Delimiter and unquotes every field.
func SplitLine(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r"), Delimiter)
	for i, f := range fields {
		fields[i] = Unquote(f)
	}
	return fields
}

// Unquote strips Quote characters from both ends of a field value.
func Unquote(field string) string {
	return strings.Trim(field, Quote)
}
