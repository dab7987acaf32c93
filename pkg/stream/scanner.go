package stream

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const (
	doneSentinel = "[DONE]"

	// DefaultMaxRecordSize bounds a record when the caller gives no limit
	DefaultMaxRecordSize = 8 << 20
)

// Scanner splits a text/event-stream body into record payloads.
// Data lines of one record are joined with "\n"; a blank line ends a record.
// A record larger than the limit is consumed up to its blank line and
// surfaced with Oversized set, so the stream can carry on after it.
type Scanner struct {
	reader    *bufio.Reader
	max       int
	data      []byte
	oversized bool
	err       error
}

// NewScanner creates a Scanner accepting records up to maxRecordSize bytes
func NewScanner(r io.Reader, maxRecordSize int) *Scanner {
	if maxRecordSize <= 0 {
		maxRecordSize = DefaultMaxRecordSize
	}
	size := 64 * 1024
	if maxRecordSize < size {
		size = maxRecordSize
	}
	return &Scanner{reader: bufio.NewReaderSize(r, size), max: maxRecordSize}
}

// Scan advances to the next record carrying data
func (s *Scanner) Scan() bool {
	var buf []byte
	pending, oversized := false, false

	for {
		line, tooLong, err := s.readLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			break
		}

		if tooLong {
			buf, pending, oversized = nil, true, true
			continue
		}

		if len(line) == 0 {
			if !pending {
				continue
			}
			if !oversized && string(buf) == doneSentinel {
				buf, pending = nil, false
				continue
			}
			s.data, s.oversized = buf, oversized
			return true
		}

		// Comments and non-data fields (event, id, retry) carry nothing we use
		if line[0] == ':' || !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		if oversized {
			continue
		}

		value := bytes.TrimPrefix(line, []byte("data:"))
		value = bytes.TrimPrefix(value, []byte(" "))
		if pending {
			buf = append(buf, '\n')
		}
		buf = append(buf, value...)
		pending = true
		if len(buf) > s.max {
			buf, oversized = nil, true
		}
	}

	// A final record without its trailing blank line still counts
	if pending && s.err == nil && (oversized || string(buf) != doneSentinel) {
		s.data, s.oversized = buf, oversized
		return true
	}
	return false
}

// readLine returns the next line without its terminator. A line longer than
// the record limit is read to its end and reported as too long.
func (s *Scanner) readLine() ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(chunk) > s.max {
				line, tooLong = nil, true
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

// Data returns the current record payload. It is nil for an oversized record.
func (s *Scanner) Data() []byte {
	return s.data
}

// Oversized reports whether the current record exceeded the size limit
func (s *Scanner) Oversized() bool {
	return s.oversized
}

// Err returns any read error other than io.EOF
func (s *Scanner) Err() error {
	return s.err
}
