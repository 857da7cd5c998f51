package opcua

import (
	"sync"

	"github.com/nextabc-lab/edgex"
	"go.uber.org/zap"
)

// ingestBridge 保存宿主注册的Ingest函数和引用对象，并把Reading转交给宿主
type ingestBridge struct {
	mu     sync.RWMutex
	log    *zap.SugaredLogger
	ingest edgex.IngestFunc
	ref    interface{}
}

func (b *ingestBridge) register(ingest edgex.IngestFunc, ref interface{}) {
	b.mu.Lock()
	b.ingest = ingest
	b.ref = ref
	b.mu.Unlock()
}

func (b *ingestBridge) registered() (edgex.IngestFunc, interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ingest, b.ref
}

// forward 将Reading交给宿主，不检查宿主的处理结果。
func (b *ingestBridge) forward(reading edgex.Reading) {
	ingest, ref := b.registered()
	if nil == ingest {
		b.log.Debugw("未注册Ingest，丢弃Reading", "asset", reading.Asset)
		return
	}
	defer func() {
		if r := recover(); nil != r {
			b.log.Errorw("宿主Ingest出错", "stage", "ingest", "asset", reading.Asset, "panic", r)
		}
	}()
	ingest(ref, reading)
}
