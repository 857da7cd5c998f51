package opcua

import (
	"sync"
	"testing"
	"time"

	"github.com/gopcua/opcua/monitor"
	"github.com/gopcua/opcua/ua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_DispatchInOrder(t *testing.T) {
	log, _ := observedLogger()
	events := make(chan *monitor.DataChangeMessage, 8)
	var mu sync.Mutex
	var seen []uint32
	r := startRunner(events, func(msg *monitor.DataChangeMessage) error {
		mu.Lock()
		seen = append(seen, msg.NodeID.IntID())
		mu.Unlock()
		return nil
	}, log)

	for i := uint32(1); i <= 5; i++ {
		events <- &monitor.DataChangeMessage{NodeID: ua.NewNumericNodeID(0, i)}
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return 5 == len(seen)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.stop(time.Second))
	assert.False(t, r.isRunning())
	assert.Equal(t, []uint32{1, 2, 3, 4, 5}, seen)
}

func TestRunner_DispatchErrorContinues(t *testing.T) {
	log, logs := observedLogger()
	events := make(chan *monitor.DataChangeMessage, 2)
	done := make(chan struct{})
	calls := 0
	r := startRunner(events, func(msg *monitor.DataChangeMessage) error {
		calls++
		if 2 == calls {
			close(done)
		}
		return msg.Error
	}, log)

	events <- &monitor.DataChangeMessage{Error: errRejected}
	events <- &monitor.DataChangeMessage{}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner stopped after dispatch error")
	}
	require.NoError(t, r.stop(time.Second))
	assert.Equal(t, 1, countStage(logs, "notify"))
}

func TestRunner_ChannelClosed(t *testing.T) {
	log, logs := observedLogger()
	events := make(chan *monitor.DataChangeMessage)
	r := startRunner(events, func(*monitor.DataChangeMessage) error { return nil }, log)
	close(events)

	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("runner did not exit on closed channel")
	}
	assert.False(t, r.isRunning())
	assert.Equal(t, 1, countStage(logs, "runner"))
	assert.NoError(t, r.stop(time.Second))
}

func TestRunner_StopTimeout(t *testing.T) {
	log, _ := observedLogger()
	events := make(chan *monitor.DataChangeMessage, 1)
	entered := make(chan struct{})
	release := make(chan struct{})
	r := startRunner(events, func(*monitor.DataChangeMessage) error {
		close(entered)
		<-release
		return nil
	}, log)

	events <- &monitor.DataChangeMessage{}
	<-entered
	err := r.stop(20 * time.Millisecond)
	assert.Error(t, err)
	assert.True(t, r.isRunning())

	close(release)
	assert.NoError(t, r.stop(time.Second))
	assert.False(t, r.isRunning())
}
