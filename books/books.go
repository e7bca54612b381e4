package books

import (
	"time"

	"github.com/zoobzio/vigil"
	"github.com/zoobzio/vigil/file"
)

// NewFileParser creates a parser for a books document. A nil codec is chosen
// from the file extension.
func NewFileParser(path string, codec vigil.Codec) (*file.Parser[Library], error) {
	return file.NewParser[Library](path, codec)
}

// NewMonitor creates a Monitor that re-reads the books document at path
// every interval and validates it with NewValidator.
func NewMonitor(path string, codec vigil.Codec, interval time.Duration) (*vigil.Monitor[*Library], error) {
	parser, err := NewFileParser(path, codec)
	if err != nil {
		return nil, err
	}
	return vigil.New[*Library](parser, NewValidator(), interval)
}
