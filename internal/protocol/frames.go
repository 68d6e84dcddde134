package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// ErrSentinel is returned by FrameScanner.Next once the [DONE] sentinel
// is read. It forces immediate terminal handling: frames after the
// sentinel are never decoded.
var ErrSentinel = errors.New("stream done sentinel")

// FrameScanner reads newline-delimited frames from an event stream and
// yields the payload of each data frame. Blank lines, SSE comments
// (":" prefix, used as heartbeats) and unprefixed noise such as "ping"
// are skipped. Repeated "data:" prefixes on one line (a known server
// quirk) collapse to a single payload.
//
// The scanner holds at most one partial line between reads; every
// complete frame is handed to the caller and discarded.
type FrameScanner struct {
	r    *bufio.Reader
	done bool
}

// NewFrameScanner wraps r for frame-by-frame reading.
func NewFrameScanner(r io.Reader) *FrameScanner {
	return &FrameScanner{r: bufio.NewReader(r)}
}

// Next returns the next frame payload. It returns io.EOF at the natural
// end of the stream and ErrSentinel once the [DONE] sentinel is seen;
// after either, all further calls return the same error.
func (s *FrameScanner) Next() ([]byte, error) {
	if s.done {
		return nil, ErrSentinel
	}

	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			// A stream may end without a trailing newline; the final
			// partial line is still a frame.
			if errors.Is(err, io.EOF) && line != "" {
				if payload, ok := framePayload(line); ok {
					if payload == doneSentinel {
						s.done = true
						return nil, ErrSentinel
					}
					return []byte(payload), nil
				}
			}
			return nil, err
		}

		payload, ok := framePayload(line)
		if !ok {
			continue
		}
		if payload == doneSentinel {
			s.done = true
			return nil, ErrSentinel
		}
		return []byte(payload), nil
	}
}

// framePayload applies the frame grammar to one line, in precedence
// order: blank and comment lines are skipped, then the data prefix is
// stripped (repeatedly, tolerating "data: data:" double-encoding), and
// whatever remains is the payload.
func framePayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", false
	}
	if strings.HasPrefix(line, ":") {
		// SSE comment / heartbeat
		return "", false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		// "ping", "event: ..." and other non-data lines
		return "", false
	}

	payload := line
	for strings.HasPrefix(payload, dataPrefix) {
		payload = strings.TrimSpace(strings.TrimPrefix(payload, dataPrefix))
	}
	if payload == "" {
		return "", false
	}
	return payload, true
}
