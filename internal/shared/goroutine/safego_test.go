package goroutine

import (
	"testing"
	"time"

	"github.com/walletwise/walletwise/internal/shared/logger"
)

func TestSafeGoDone_RecoversPanic(t *testing.T) {
	done := SafeGoDone(logger.NewNopLogger(), "panicky", func() {
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func TestSafeGo_RunsFunction(t *testing.T) {
	ran := make(chan struct{})
	SafeGo(logger.NewNopLogger(), "worker", func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("function was not executed")
	}
}
