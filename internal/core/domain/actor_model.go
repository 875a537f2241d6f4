package domain

const (
	ACTOR_ID_MASTER = "master"
	ACTOR_ID_HASS   = "hass"
	ACTOR_ID_MQTT   = "mqtt"
	ACTOR_ID_META   = "pointmeta"
)

// PollerActorID names the per-device poller child of the master.
func PollerActorID(device string) string {
	return "poller_" + device
}

type GetEntityStatesRequest struct {
	ActorRequestMixIn
}

type GetEntityStatesResponse struct {
	ActorResponseMixIn
	Snapshot EntitySnapshot
}

// CallServicesRequest carries an ordered write plan. Operations are invoked
// in order; the first failure stops the sequence and is reported as-is.
type CallServicesRequest struct {
	ActorRequestMixIn
	Operations []ControllerOperation
}

type CallServicesResponse struct {
	ActorResponseMixIn
	Invoked int
}

// PointWriteRequest asks the owning device poller to translate and dispatch
// a point write.
type PointWriteRequest struct {
	ActorRequestMixIn
	PointName string
	Value     any
}

type PointWriteResponse struct {
	ActorResponseMixIn
	Operations int
}

// ReloadRegistryRequest swaps in a freshly parsed point registry. The new
// mapping table is built in full before it replaces the old one.
type ReloadRegistryRequest struct {
	ActorRequestMixIn
	Definitions []PointDefinition
}

type ReloadRegistryResponse struct {
	ActorResponseMixIn
	Points int
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishPointUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  PointUpdateEvent
}

type PublishPointUpdateResponse struct {
	ActorResponseMixIn
}

// PointMetaEntry is one point's publication metadata, published retained so
// consumers can interpret the state topics.
type PointMetaEntry struct {
	Device    string
	PointName string
	Meta      PointMeta
}

type PublishPointMetaRequest struct {
	ActorRequestMixIn
	Entries []PointMetaEntry
}

type PublishPointMetaResponse struct {
	ActorResponseMixIn
}

// PointInventoryEntry describes one declared point for the HTTP inventory.
type PointInventoryEntry struct {
	Device      string `json:"device"`
	PointName   string `json:"point_name"`
	EntityID    string `json:"entity_id"`
	EntityPoint string `json:"entity_point"`
	Type        string `json:"type"`
	Units       string `json:"units,omitempty"`
	Writable    bool   `json:"writable"`
}

type GetPointInventoryRequest struct {
	ActorRequestMixIn
}

type GetPointInventoryResponse struct {
	ActorResponseMixIn
	Points []PointInventoryEntry
}

// ReloadDeviceRequest replaces one device's registry. Routed through the
// master so its point index stays consistent with the poller's table.
type ReloadDeviceRequest struct {
	ActorRequestMixIn
	Device      string
	Definitions []PointDefinition
}

type ReloadDeviceResponse struct {
	ActorResponseMixIn
	Points int
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
