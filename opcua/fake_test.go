package opcua

import (
	"context"
	"sync"
	"time"

	"github.com/gopcua/opcua/monitor"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func countStage(logs *observer.ObservedLogs, stage string) int {
	n := 0
	for _, entry := range logs.All() {
		if stage == entry.ContextMap()["stage"] {
			n++
		}
	}
	return n
}

// 按顺序记录服务端调用
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *callRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *callRecorder) count(call string) int {
	n := 0
	for _, c := range r.list() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeServer struct {
	calls    *callRecorder
	dialErr  error
	subErr   error
	addErr   error
	unsubErr error
	closeErr error
	onRemove func()

	mu       sync.Mutex
	configs  []*Config
	sessions []*fakeSession
}

func newFakeServer() *fakeServer {
	return &fakeServer{calls: new(callRecorder)}
}

func (f *fakeServer) dial(ctx context.Context, cfg *Config) (Session, error) {
	f.calls.add("dial")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	if nil != f.dialErr {
		return nil, f.dialErr
	}
	s := &fakeSession{server: f, url: cfg.URL}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeServer) lastRemote() *fakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	if 0 == len(f.sessions) {
		return nil
	}
	s := f.sessions[len(f.sessions)-1]
	if 0 == len(s.remotes) {
		return nil
	}
	return s.remotes[len(s.remotes)-1]
}

type fakeSession struct {
	server  *fakeServer
	url     string
	remotes []*fakeRemote
}

func (s *fakeSession) EndpointURL() string {
	return s.url
}

func (s *fakeSession) Subscribe(ctx context.Context, interval time.Duration) (RemoteSubscription, error) {
	s.server.calls.add("subscribe")
	if nil != s.server.subErr {
		return nil, s.server.subErr
	}
	r := &fakeRemote{
		server:   s.server,
		interval: interval,
		ch:       make(chan *monitor.DataChangeMessage, 16),
	}
	s.remotes = append(s.remotes, r)
	return r, nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.server.calls.add("close")
	return s.server.closeErr
}

type fakeRemote struct {
	server   *fakeServer
	interval time.Duration
	nodes    []string
	ch       chan *monitor.DataChangeMessage
}

func (r *fakeRemote) AddNodes(ctx context.Context, nodes ...string) error {
	r.server.calls.add("add")
	if nil != r.server.addErr {
		return r.server.addErr
	}
	r.nodes = append(r.nodes, nodes...)
	return nil
}

func (r *fakeRemote) RemoveNodes(ctx context.Context, nodes ...string) error {
	if nil != r.server.onRemove {
		r.server.onRemove()
	}
	r.server.calls.add("remove")
	r.nodes = nil
	return nil
}

func (r *fakeRemote) Unsubscribe(ctx context.Context) error {
	r.server.calls.add("unsubscribe")
	return r.server.unsubErr
}

func (r *fakeRemote) Notifications() <-chan *monitor.DataChangeMessage {
	return r.ch
}

var errRejected = errors.New("rejected by server")
