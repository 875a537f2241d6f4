package mqtt

import (
	"testing"

	"hapoints2mqtt/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Duplicate() bool   { return false }
func (m testMessage) Qos() byte         { return 1 }
func (m testMessage) Retained() bool    { return false }
func (m testMessage) Topic() string     { return m.topic }
func (m testMessage) MessageID() uint16 { return 0 }
func (m testMessage) Payload() []byte   { return m.payload }
func (m testMessage) Ack()              {}

func TestPointCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/point/ZoneTemperatureSetPoint/set"
	r := pointCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(matches[0][1], "ZoneTemperatureSetPoint", "point name extract")
}

func TestPointCommandParseStateTopicFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/point/ZoneTemperatureSetPoint/state"
	r := pointCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

func TestPointCommandParseMetaTopicFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/point/ZoneTemperatureSetPoint/meta"
	r := pointCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(len(matches), 0, "no matches")
}

// Registry point names are free-form, spaces included. Every name the
// bridge advertises a command topic for must parse back from that topic.
func TestPointCommandParseSpacedName(t *testing.T) {

	assert := assert.New(t)

	client := &MQTTClient{
		cfg:                config.MQTTConfig{BaseTopic: "hapoints"},
		pointCommandRegexp: pointCommandExtractor("hapoints"),
	}

	topic := client.PointCommandTopic("Living Room Light")
	cmd, err := client.ParseMQTTCommand(testMessage{topic: topic, payload: []byte("on")})
	require.NoError(t, err)
	assert.Equal("Living Room Light", cmd.PointName)
	assert.Equal("on", cmd.Payload)
}

func TestPointCommandParseWrongTopicFail(t *testing.T) {

	client := &MQTTClient{
		cfg:                config.MQTTConfig{BaseTopic: "hapoints"},
		pointCommandRegexp: pointCommandExtractor("hapoints"),
	}

	_, err := client.ParseMQTTCommand(testMessage{topic: "hapoints/bridge/state", payload: []byte("online")})
	assert.Error(t, err)
}

func TestPointTopics(t *testing.T) {

	assert := assert.New(t)

	client := &MQTTClient{}
	client.cfg.BaseTopic = "hapoints"

	assert.Equal("hapoints/point/LightState/state", client.PointStateTopic("LightState"))
	assert.Equal("hapoints/point/LightState/meta", client.PointMetaTopic("LightState"))
	assert.Equal("hapoints/point/LightState/set", client.PointCommandTopic("LightState"))
	assert.Equal("hapoints/bridge/state", client.BridgeStateTopic())
}
