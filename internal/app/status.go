package app

import (
	"github.com/GriffinCanCode/sensorlink/internal/controller"
	"github.com/GriffinCanCode/sensorlink/internal/ipc"
	"github.com/GriffinCanCode/sensorlink/internal/kernel"
)

// Status is a point-in-time view of the whole system.
type Status struct {
	RunID       string             `json:"run_id"`
	Started     bool               `json:"started"`
	Tick        kernel.Tick        `json:"tick"`
	DataReady   string             `json:"data_ready"`
	Liveness    string             `json:"liveness"`
	Tasks       []TaskStatus       `json:"tasks"`
	Controllers []ControllerStatus `json:"controllers"`
	Channels    []ipc.ChannelStats `json:"channels"`
}

// TaskStatus describes one spawned task.
type TaskStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority uint8  `json:"priority"`
	State    string `json:"state"`
}

// ControllerStatus describes one controller.
type ControllerStatus struct {
	Name     string              `json:"name"`
	Role     string              `json:"role"`
	Active   bool                `json:"active"`
	Readings controller.Readings `json:"readings"`
}

// Status returns a snapshot of tasks, controllers and channels.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	s := Status{
		RunID:       c.runID.String(),
		Started:     started,
		Tick:        c.clock.Now(),
		DataReady:   c.dataReady.Describe(c.dataReady.Get()),
		Liveness:    c.liveness.Describe(c.liveness.Get()),
		Tasks:       []TaskStatus{},
		Controllers: make([]ControllerStatus, 0, len(c.controllers)),
		Channels:    make([]ipc.ChannelStats, 0, len(c.channels)),
	}

	for _, t := range c.sched.Tasks() {
		s.Tasks = append(s.Tasks, TaskStatus{
			ID:       t.ID().String(),
			Name:     t.Name(),
			Priority: uint8(t.Priority()),
			State:    t.State().String(),
		})
	}
	for _, ctrl := range c.controllers {
		s.Controllers = append(s.Controllers, ControllerStatus{
			Name:     ctrl.Name(),
			Role:     ctrl.Role().String(),
			Active:   ctrl.Active(),
			Readings: ctrl.Readings(),
		})
	}
	for _, ch := range c.channels {
		s.Channels = append(s.Channels, ch.Stats())
	}
	return s
}
