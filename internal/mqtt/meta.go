package mqtt

import (
	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/events"
)

// PointMetaMessage is the retained per-point metadata document. Consumers
// use it to discover units, type and writability without the registry file.
type PointMetaMessage struct {
	Device       string `json:"device"`
	PointName    string `json:"point_name"`
	EntityID     string `json:"entity_id"`
	EntityPoint  string `json:"entity_point"`
	Type         string `json:"type"`
	Units        string `json:"units,omitempty"`
	UnitsDetails string `json:"units_details,omitempty"`
	Writable     bool   `json:"writable"`
	StateTopic   string `json:"state_topic"`
	CommandTopic string `json:"command_topic,omitempty"`
	AvTopic      string `json:"availability_topic"`
}

// BridgeMetaMessage identifies the bridge instance on its meta topic.
type BridgeMetaMessage struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Version    string `json:"sw_version,omitempty"`
	StateTopic string `json:"state_topic"`
}

func PointMetaEntryToMetaMessage(client *MQTTClient, entry domain.PointMetaEntry) PointMetaMessage {
	msg := PointMetaMessage{
		Device:       entry.Device,
		PointName:    entry.PointName,
		EntityID:     entry.Meta.EntityID,
		EntityPoint:  entry.Meta.EntityPoint,
		Type:         entry.Meta.Type.String(),
		Units:        entry.Meta.Units,
		UnitsDetails: entry.Meta.UnitsDetails,
		Writable:     entry.Meta.Writable,
		StateTopic:   client.PointStateTopic(entry.PointName),
		AvTopic:      client.BridgeStateTopic(),
	}
	if entry.Meta.Writable {
		msg.CommandTopic = client.PointCommandTopic(entry.PointName)
	}
	return msg
}

func BridgeToMetaMessage(client *MQTTClient, bridge events.BridgeInfo) BridgeMetaMessage {
	return BridgeMetaMessage{
		Id:         bridge.Id,
		Name:       bridge.Name,
		Version:    bridge.Version,
		StateTopic: client.BridgeStateTopic(),
	}
}
