package opcua

import (
	"context"
	"time"

	"github.com/gopcua/opcua/monitor"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

//
// Author: 陈哈哈 yoojiachen@gmail.com
//

const defaultStopTimeout = 5 * time.Second

// runner 在独立的goroutine中分发订阅通知，直到被停止或通知通道关闭
type runner struct {
	cancel  context.CancelFunc
	done    chan struct{}
	running *atomic.Bool
}

func startRunner(events <-chan *monitor.DataChangeMessage, dispatch func(*monitor.DataChangeMessage) error, log *zap.SugaredLogger) *runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{
		cancel:  cancel,
		done:    make(chan struct{}),
		running: atomic.NewBool(true),
	}
	go r.loop(ctx, events, dispatch, log)
	return r
}

func (r *runner) loop(ctx context.Context, events <-chan *monitor.DataChangeMessage, dispatch func(*monitor.DataChangeMessage) error, log *zap.SugaredLogger) {
	defer close(r.done)
	defer r.running.Store(false)
	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-events:
			if !ok {
				log.Warnw("订阅通知通道已关闭", "stage", "runner")
				return
			}
			// 停止过程中到达的通知直接丢弃
			if nil != ctx.Err() {
				return
			}
			if err := dispatch(msg); nil != err {
				log.Warnw("丢弃数据变化通知", "stage", "notify", "error", err)
			}
		}
	}
}

// stop 请求分发循环退出，并在timeout内等待其结束
func (r *runner) stop(timeout time.Duration) error {
	r.cancel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.done:
		return nil
	case <-timer.C:
		return errors.Errorf("runner did not stop within %s", timeout)
	}
}

func (r *runner) isRunning() bool {
	return r.running.Load()
}
