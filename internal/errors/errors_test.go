package errors

import (
	sterrors "errors"
	"fmt"
	"testing"
)

func TestProcessingErrorUnwraps(t *testing.T) {
	cause := sterrors.New("boom")
	err := NewProcessingError("JOB_CREATED", "msg-1", cause)

	if !sterrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if got := err.Error(); got != "msjob: processing JOB_CREATED event msg-1: boom" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestProcessingErrorWithoutMessageID(t *testing.T) {
	err := NewProcessingError("JOB_DELETED", "", sterrors.New("boom"))
	if got := err.Error(); got != "msjob: processing JOB_DELETED event: boom" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestIsFatalConsumer(t *testing.T) {
	fatal := NewFatalConsumerError(sterrors.New("no brokers"))
	wrapped := fmt.Errorf("starting consumer: %w", fatal)

	if !IsFatalConsumer(wrapped) {
		t.Fatal("expected fatal classification through wrapping")
	}
	if IsFatalConsumer(sterrors.New("plain")) {
		t.Fatal("plain errors are not fatal")
	}
}
