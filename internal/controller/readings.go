package controller

import (
	"github.com/GriffinCanCode/sensorlink/internal/ipc"
	"github.com/GriffinCanCode/sensorlink/internal/kernel"
)

// Slot is the reading a channel's values are stored into.
type Slot int

const (
	SlotSensor1 Slot = iota
	SlotSensor2
)

// String returns the string representation of the slot
func (s Slot) String() string {
	switch s {
	case SlotSensor1:
		return "sensor1"
	case SlotSensor2:
		return "sensor2"
	default:
		return "unknown"
	}
}

// Route tells a controller where a channel's value goes and how to take it.
type Route struct {
	Slot    Slot
	Receive func() (int32, bool)
}

// Router maps each multiplexed channel to its route.
type Router map[ipc.ChannelID]Route

// Add routes ch into slot and returns the router for chaining.
func (r Router) Add(ch *ipc.Channel[int32], slot Slot) Router {
	r[ch.ID()] = Route{Slot: slot, Receive: ch.TryReceive}
	return r
}

// Readings is a snapshot of what a controller last received.
// Sensor2 holds the latest value from either secondary channel and
// Sensor2Source names which one it was.
type Readings struct {
	Sensor1       int32         `json:"sensor1"`
	Sensor2       int32         `json:"sensor2"`
	Sensor2Source ipc.ChannelID `json:"sensor2_source,omitempty"`
	At            kernel.Tick   `json:"at"`
	Cycles        uint64        `json:"cycles"`
	Received      uint64        `json:"received"`
}
