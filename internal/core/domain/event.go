package domain

import "fmt"

type PointUpdateEventMixIn struct {
	Name string
}

type PointUpdateEvent interface {
	PointUpdateEvent() string
	PointName() string
}

func (e PointUpdateEventMixIn) PointUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e PointUpdateEventMixIn) PointName() string {
	return e.Name
}

type BoolPointUpdateEvent struct {
	PointUpdateEventMixIn
	Value bool
}

type IntPointUpdateEvent struct {
	PointUpdateEventMixIn
	Value int64
}

type FloatPointUpdateEvent struct {
	PointUpdateEventMixIn
	Value    float64
	Decimals uint
}

type BridgeStateUpdateEvent struct {
	PointUpdateEventMixIn
	Value bool
}
