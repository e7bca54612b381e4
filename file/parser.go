// Package file provides a file-backed vigil.Parser and an fsnotify watcher
// that nudges a Monitor when the file changes on disk.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoobzio/vigil"
)

// ErrEmpty is returned when the file has no content besides whitespace.
var ErrEmpty = errors.New("file is empty")

// Parser reads a file and decodes it into a *T with a vigil.Codec.
type Parser[T any] struct {
	path  string
	codec vigil.Codec
}

// NewParser creates a Parser for path. A nil codec is chosen from the file
// extension with vigil.CodecFor.
func NewParser[T any](path string, codec vigil.Codec) (*Parser[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path is blank", vigil.ErrInvalidArgument)
	}
	if codec == nil {
		c, err := vigil.CodecFor(filepath.Ext(path))
		if err != nil {
			return nil, err
		}
		codec = c
	}
	return &Parser[T]{path: path, codec: codec}, nil
}

// Path returns the watched file path.
func (p *Parser[T]) Path() string {
	return p.path
}

// Parse reads and decodes the file. Every failure is a *vigil.ParseError
// wrapping the cause: fs.ErrNotExist for a missing file, ErrEmpty for a
// blank file, the codec error for malformed content and vigil.ErrNilValue
// when the document decodes to null.
func (p *Parser[T]) Parse(ctx context.Context) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, p.wrap(err)
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, p.wrap(fmt.Errorf("file not found: %w", err))
		}
		return nil, p.wrap(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, p.wrap(ErrEmpty)
	}

	var out *T
	if err := p.codec.Unmarshal(data, &out); err != nil {
		return nil, p.wrap(fmt.Errorf("decode %s: %w", p.codec.ContentType(), err))
	}
	if out == nil {
		return nil, p.wrap(vigil.ErrNilValue)
	}
	return out, nil
}

func (p *Parser[T]) wrap(err error) error {
	return &vigil.ParseError{Source: p.path, Err: err}
}
