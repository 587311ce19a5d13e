package logWatcher

import (
	"bufio"
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// A LineReader reads full lines from a Reader, typically a file being appended
// by an external program. It differs from bufio.Scanner in that EOF is
// expected to be transient: writers append intermittently, so a partial line
// found at EOF is carried in a residual buffer and completed by a later read
// instead of being returned.
type LineReader struct {
	reader       *bufio.Reader
	nextPosition int64
	residual     []byte
}

// NewLineReader makes a LineReader that counts positions from zero.
func NewLineReader(source io.Reader) *LineReader {
	return &LineReader{bufio.NewReader(source), 0, newResidual()}
}

// NewLineReaderAtPosition makes a LineReader that starts scanning at a
// specific position within the given file.
func NewLineReaderAtPosition(source io.ReadSeeker, position int64) (*LineReader, error) {
	offset, err := source.Seek(position, io.SeekStart)
	if err != nil {
		return nil, err
	}
	if offset != position {
		return nil, errors.New("cant reposition within file")
	}
	return &LineReader{bufio.NewReader(source), position, newResidual()}, nil
}

// ReadLine reads the next line from the input.
// It returns the line with its terminator stripped, the position within the
// file where the next line will start, and any occurring error.
//
// When a partial line is read and EOF is reached before finding a newline,
// io.EOF is returned and the partial bytes are kept; subsequent calls may
// finish the line once a newline is ultimately appended. A newline is either
// '\n' or '\r\n'. Lines can be empty.
//
// Line payloads are decoded as UTF-8 with invalid byte sequences replaced by
// U+FFFD, so binary garbage in the input is never an error.
func (lr *LineReader) ReadLine() (string, int64, error) {
	for {
		read, readError := lr.reader.ReadSlice('\n')
		if len(read) > 0 {
			lr.residual = append(lr.residual, read...)
			lr.nextPosition += int64(len(read))
		}
		if readError == nil {
			if len(read) == 0 {
				return "", 0, errors.New("ReadSlice found newLine but returned empty")
			}
			line := dropCR(lr.residual[:len(lr.residual)-1])
			lr.residual = newResidual()
			return decodeLossy(line), lr.nextPosition, nil
		}
		if readError == bufio.ErrBufferFull {
			// The whole bufio buffer was consumed into the residual, so the
			// next ReadSlice picks up where this one stopped.
			continue
		}
		if readError == io.EOF {
			return "", 0, io.EOF
		}
		return "", 0, readError
	}
}

// Position returns the offset within the file at which the next read starts.
// Bytes held in the residual buffer are already counted.
func (lr *LineReader) Position() int64 {
	return lr.nextPosition
}

// Reset rebinds the reader to a different source positioned at the given
// offset, discarding the residual buffer. Used after the watched file was
// replaced or the caller skipped ahead.
func (lr *LineReader) Reset(source io.Reader, position int64) {
	lr.reader = bufio.NewReader(source)
	lr.nextPosition = position
	lr.residual = newResidual()
}

const defaultLineBufferSize = 4096

// newResidual makes a new, empty buffer for the next line to be read.
func newResidual() []byte {
	return make([]byte, 0, defaultLineBufferSize)
}

// dropCR drops a terminal \r from a newline terminated line.
func dropCR(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return line[0 : len(line)-1]
	}
	return line
}

// decodeLossy decodes a line as UTF-8, substituting U+FFFD for invalid byte
// sequences.
func decodeLossy(line []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(line)
	if err != nil {
		return string(line)
	}
	return string(decoded)
}
