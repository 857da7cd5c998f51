package edgex

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordTrigger struct {
	Trigger
	virtualIds []string
	bodies     [][]byte
}

func (r *recordTrigger) PublishEventMessage(virtualNodeId string, data []byte) {
	r.virtualIds = append(r.virtualIds, virtualNodeId)
	r.bodies = append(r.bodies, data)
}

type assetsHandle []string

func (a assetsHandle) Assets() []string {
	return a
}

func TestTriggerIngest(t *testing.T) {
	trigger := new(recordTrigger)
	TriggerIngest(trigger, Reading{
		Asset:     "ns=2;s=0:FIT-321.CV",
		Timestamp: time.Now(),
		Key:       "0b6a1f2e-9d1c-4c55-bf39-35d7b1d2b0a1",
		Readings:  map[string]interface{}{"value": 42.5},
	})
	require.Len(t, trigger.virtualIds, 1)
	assert.Equal(t, "ns=2;s=0:FIT-321.CV", trigger.virtualIds[0])
	assert.True(t, bytes.Contains(trigger.bodies[0], []byte("0b6a1f2e-9d1c-4c55-bf39-35d7b1d2b0a1")))
}

func TestTriggerIngest_WrongRef(t *testing.T) {
	assert.NotPanics(t, func() {
		TriggerIngest("not a trigger", Reading{Asset: "x"})
	})
}

func TestPluginDocument(t *testing.T) {
	config := map[string]interface{}{
		"Plugin": map[string]interface{}{"url": "opc.tcp://host:9409/Dv"},
	}
	assert.Equal(t, "opc.tcp://host:9409/Dv", PluginDocument(config, "Plugin")["url"])

	empty := PluginDocument(config, "Missing")
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

func TestInspectOfPlugin(t *testing.T) {
	info := PluginInfo{Name: "opcua", Version: "1.7.0"}
	node := inspectOfPlugin(info, "OPC Foundation", assetsHandle{"ns=2;s=A", "ns=2;s=B"})
	assert.Equal(t, NodeTypeTrigger, node.NodeType)
	assert.Equal(t, "opcua", node.ConnDriver)
	require.Len(t, node.VirtualNodes, 2)
	assert.Equal(t, "ns=2;s=B", node.VirtualNodes[1].VirtualId)

	// Handle不提供资产列表
	node = inspectOfPlugin(info, "", struct{}{})
	assert.Len(t, node.VirtualNodes, 0)
}
