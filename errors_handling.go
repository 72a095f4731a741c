package mailpool

import (
	"fmt"
	"os"
	"time"
)

// PoolError describes an operational fault inside the pool: a failed
// transmission, a dead-letter write failure, a drain timeout. Per-envelope
// results still arrive through the envelope callback; this channel exists so
// hosts can observe pool health without wrapping every callback.
type PoolError struct {
	Time    time.Time
	Source  string // "send", "spool", "drain", "close", "callback"
	Message string
	Err     error
}

// Error returns the string representation of the PoolError.
func (pe PoolError) Error() string {
	return fmt.Sprintf("[%s] %s error: %s - %v",
		pe.Time.Format("2006-01-02 15:04:05"), pe.Source, pe.Message, pe.Err)
}

// ErrorHandler is a function that handles pool errors.
type ErrorHandler func(PoolError)

// SetErrorHandler replaces the operational error handler.
func (p *Pool) SetErrorHandler(handler ErrorHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorHandler = handler
}

// Errors returns a channel receiving operational errors. Delivery is
// non-blocking; when the channel backs up, errors fall through to the
// handler (or stderr).
func (p *Pool) Errors() <-chan PoolError {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errorChan == nil {
		p.errorChan = make(chan PoolError, defaultErrorChannelSize)
	}
	return p.errorChan
}

// reportError routes one operational error to the configured handler and
// error channel.
func (p *Pool) reportError(source, message string, err error) {
	poolErr := PoolError{
		Time:    time.Now(),
		Source:  source,
		Message: message,
		Err:     err,
	}

	p.mu.Lock()
	handler := p.errorHandler
	errorChan := p.errorChan
	p.mu.Unlock()

	if handler != nil {
		handler(poolErr)
	}
	if errorChan != nil {
		select {
		case errorChan <- poolErr:
		default:
			if handler == nil {
				StderrErrorHandler(poolErr)
			}
		}
	}
}

// Predefined error handlers

// StderrErrorHandler writes errors to stderr.
func StderrErrorHandler(err PoolError) {
	fmt.Fprintf(os.Stderr, "%s\n", err.Error())
}

// SilentErrorHandler discards all errors.
func SilentErrorHandler(err PoolError) {
	// Do nothing
}

// ChannelErrorHandler returns a handler that sends errors to a channel,
// falling back to stderr when the channel is full.
func ChannelErrorHandler(ch chan<- PoolError) ErrorHandler {
	return func(err PoolError) {
		select {
		case ch <- err:
		default:
			StderrErrorHandler(err)
		}
	}
}

// MultiErrorHandler fans one error out to several handlers.
func MultiErrorHandler(handlers ...ErrorHandler) ErrorHandler {
	return func(err PoolError) {
		for _, handler := range handlers {
			if handler != nil {
				handler(err)
			}
		}
	}
}
