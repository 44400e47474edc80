package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes and flushes a buffered destination after each one,
// so console lines on stdout stay in step with log entries on stderr.
type FlushingWriter struct {
	mutex       sync.Mutex
	destination io.Writer
	flusher     flusher
}

// NewFlushingWriter wraps destination. Wrapping an existing FlushingWriter returns it unchanged.
func NewFlushingWriter(destination io.Writer) io.Writer {
	switch typedDestination := destination.(type) {
	case nil:
		return nil
	case *FlushingWriter:
		return typedDestination
	}

	flushingWriter := &FlushingWriter{destination: destination}
	if bufferedDestination, buffered := destination.(flusher); buffered {
		flushingWriter.flusher = bufferedDestination
	}
	return flushingWriter
}

// Write writes data and flushes the destination when it is buffered.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.destination == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.destination.Write(data)
	if writeError != nil || flushingWriter.flusher == nil {
		return bytesWritten, writeError
	}
	return bytesWritten, flushingWriter.flusher.Flush()
}
