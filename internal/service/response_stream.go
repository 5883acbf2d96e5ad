package service

// ResponseStream is the outbound channel for one send-message call. The
// relay stays independent of the concrete transport: the HTTP controller
// backs it with a chunked body writer, tests with an in-memory collector.
//
// Send delivers one fragment to the caller; it returns an error once the
// caller is gone. Close ends the stream normally, CloseWithError ends it
// after streaming already began and the failure has to be surfaced in-band.
type ResponseStream interface {
	Send(fragment string) error
	Close() error
	CloseWithError(err error) error
}
