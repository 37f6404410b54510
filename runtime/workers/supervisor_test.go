package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-relay/mocks"
)

func TestSupervisor_RestartsCrashedWorker(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	worker := mocks.NewMockWorker(ctrl)
	gomock.InOrder(
		worker.EXPECT().Run(gomock.Any()).Return(fmt.Errorf("boom")).Times(1),
		worker.EXPECT().Run(gomock.Any()).Return(nil).Times(1),
	)

	s := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug))
	s.Add(worker)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("supervisor did not finish after the worker recovered")
	}
}

type panickingWorker struct {
	calls atomic.Int32
}

func (w *panickingWorker) Run(context.Context) error {
	if w.calls.Add(1) == 1 {
		panic("first run explodes")
	}
	return nil
}

func TestSupervisor_RecoversFromPanic(t *testing.T) {
	req := require.New(t)
	s := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug))
	worker := &panickingWorker{}
	s.Add(worker)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		req.Equal(int32(2), worker.calls.Load())
	case <-time.After(2 * time.Second):
		req.Fail("supervisor did not recover from the panic")
	}
}

type blockingWorker struct{}

func (blockingWorker) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSupervisor_StopsOnContextCancel(t *testing.T) {
	req := require.New(t)
	s := NewSupervisor(logs.GetLoggerFromLevel(slog.LevelDebug))
	s.Add(blockingWorker{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.Fail("supervisor kept running after cancellation")
	}
}
