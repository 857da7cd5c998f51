package edgex

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigByName_EnvPath(t *testing.T) {
	dir, err := ioutil.TempDir("", "edgex-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "opcua.toml")
	require.NoError(t, ioutil.WriteFile(file, []byte(`
NodeId = "OPCUA-HISTORIAN"

[Globals]
MqttBroker = "tcp://127.0.0.1:1883"

[Plugin]
url = "opc.tcp://host:9409/Dv"
subscriptions = '{ "subscriptions" : [ "ns=2;s=0:FIT-321.CV" ] }'
`), 0644))

	os.Setenv(EnvKeyConfig, file)
	defer os.Unsetenv(EnvKeyConfig)

	config, err := ReadConfigByName("not-in-cwd.toml")
	require.NoError(t, err)
	assert.Equal(t, "OPCUA-HISTORIAN", config["NodeId"])

	plugin, ok := config["Plugin"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "opc.tcp://host:9409/Dv", plugin["url"])
}

func TestReadConfigByName_NotExist(t *testing.T) {
	os.Unsetenv(EnvKeyConfig)
	_, err := ReadConfigByName("definitely-missing-edgex.toml")
	assert.Equal(t, ErrConfigNotExist, err)
}

func TestGlobals_Merge(t *testing.T) {
	g := DefaultGlobals()
	g.Merge(map[string]interface{}{
		"MqttBroker":   "tcp://10.0.0.1:1883",
		"MqttQoS":      int64(2),
		"MqttRetained": true,
	})
	assert.Equal(t, "tcp://10.0.0.1:1883", g.MqttBroker)
	assert.Equal(t, uint8(2), g.MqttQoS)
	assert.True(t, g.MqttRetained)
	assert.Equal(t, 120, g.MqttMaxRetry)
}
