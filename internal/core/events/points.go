package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"hapoints2mqtt/internal/core/domain"
	"hapoints2mqtt/internal/core/registry"

	"github.com/carlmjohnson/versioninfo"
)

const (
	POINT_ID_BRIDGE_STATE = "bridge"

	floatDecimals = 2
)

// BridgeInfo identifies this bridge instance on the bus.
type BridgeInfo struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

func Bridge(baseTopic string) BridgeInfo {
	return BridgeInfo{
		Id:      fmt.Sprintf("hapoints_bridge_%s", md5HashShort(baseTopic)),
		Name:    fmt.Sprintf("hapoints %s", md5HashShort(baseTopic)),
		Version: versioninfo.Short(),
	}
}

// ScrapeResultToUpdateEvents maps one scrape cycle's values to point update
// events for publication.
func ScrapeResultToUpdateEvents(result domain.ScrapeResult) []any {
	var evs []any
	for name, value := range result.Values {
		evs = append(evs, pointValueToUpdateEvent(name, value))
	}
	return evs
}

// StartingValueEvents publishes the registry's scaffolding defaults, used
// once at boot before the first successful scrape.
func StartingValueEvents(table *registry.MappingTable) []any {
	var evs []any
	for _, def := range table.Points() {
		if def.StartingValue == nil {
			continue
		}
		evs = append(evs, pointValueToUpdateEvent(def.PointName, *def.StartingValue))
	}
	return evs
}

func pointValueToUpdateEvent(name string, value domain.PointValue) any {
	mixin := domain.PointUpdateEventMixIn{Name: name}
	switch value.Type {
	case domain.ValueTypeBool:
		return domain.BoolPointUpdateEvent{
			PointUpdateEventMixIn: mixin,
			Value:                 value.Bool,
		}
	case domain.ValueTypeInt:
		return domain.IntPointUpdateEvent{
			PointUpdateEventMixIn: mixin,
			Value:                 value.Int,
		}
	default:
		return domain.FloatPointUpdateEvent{
			PointUpdateEventMixIn: mixin,
			Value:                 value.Float,
			Decimals:              floatDecimals,
		}
	}
}

// PointMetaEntries builds the retained metadata set for one device's table.
func PointMetaEntries(device string, table *registry.MappingTable) []domain.PointMetaEntry {
	entries := make([]domain.PointMetaEntry, 0, table.Len())
	for _, def := range table.Points() {
		entries = append(entries, domain.PointMetaEntry{
			Device:    device,
			PointName: def.PointName,
			Meta:      domain.MetaOf(def),
		})
	}
	return entries
}

// PointInventory builds the HTTP inventory entries for one device's table.
func PointInventory(device string, table *registry.MappingTable) []domain.PointInventoryEntry {
	entries := make([]domain.PointInventoryEntry, 0, table.Len())
	for _, def := range table.Points() {
		entries = append(entries, domain.PointInventoryEntry{
			Device:      device,
			PointName:   def.PointName,
			EntityID:    def.EntityID,
			EntityPoint: def.EntityPoint,
			Type:        def.Type.String(),
			Units:       def.Units,
			Writable:    def.Writable,
		})
	}
	return entries
}

func md5HashShort(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])[:8]
}
