package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	// ErrRecordNotFound reports that the job record targeted by an update or
	// delete does not exist in the store.
	ErrRecordNotFound = sterrors.New("msjob: job record not found")

	ErrJobOfferNotFound = sterrors.New("msjob: job offer does not exist")

	ErrPublisherRequired = sterrors.New("msjob: publisher is required")
	ErrStoreRequired     = sterrors.New("msjob: store is required")
	ErrHandlerRequired   = sterrors.New("msjob: event handler is required")
	ErrTopicRequired     = sterrors.New("msjob: topic is required")
)

// ProcessingError marks the failure of a single inbound envelope. The consumer
// loop logs it and leaves the message's commit position untouched; redelivery
// after a restart or rebalance is the retry mechanism.
type ProcessingError struct {
	EventType string
	MessageID string
	Err       error
}

func NewProcessingError(eventType, messageID string, err error) *ProcessingError {
	return &ProcessingError{EventType: eventType, MessageID: messageID, Err: err}
}

func (e *ProcessingError) Error() string {
	if e.MessageID == "" {
		return fmt.Sprintf("msjob: processing %s event: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("msjob: processing %s event %s: %v", e.EventType, e.MessageID, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// FatalConsumerError wraps broker failures that the consumer loop cannot
// recover from, such as an unreachable cluster or rejected credentials. It is
// propagated to the process owner, which is expected to exit and let the
// supervisor restart the service.
type FatalConsumerError struct {
	Err error
}

func NewFatalConsumerError(err error) *FatalConsumerError {
	return &FatalConsumerError{Err: err}
}

func (e *FatalConsumerError) Error() string {
	return fmt.Sprintf("msjob: fatal consumer failure: %v", e.Err)
}

func (e *FatalConsumerError) Unwrap() error { return e.Err }

// IsFatalConsumer reports whether err carries a FatalConsumerError anywhere in
// its chain.
func IsFatalConsumer(err error) bool {
	var fatal *FatalConsumerError
	return sterrors.As(err, &fatal)
}
