package controller

import (
	"bufio"

	"github.com/ImAmyth-II/OllamaChat/internal/constant"
)

// httpResponseStream adapts the chunked body writer to the relay's
// ResponseStream. Every fragment is flushed immediately so the client sees
// tokens as they arrive; a flush failure means the client disconnected.
type httpResponseStream struct {
	w *bufio.Writer
}

func (s *httpResponseStream) Send(fragment string) error {
	if _, err := s.w.WriteString(fragment); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *httpResponseStream) Close() error {
	return s.w.Flush()
}

func (s *httpResponseStream) CloseWithError(err error) error {
	// The chunked response is already committed, so the failure is
	// surfaced in-band instead of as a status code.
	_, _ = s.w.WriteString(constant.StreamFailedMarker)
	return s.w.Flush()
}
