package stream

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/kinetics/config"
)

// Control message types accepted from clients.
const (
	CmdStart       = "start"
	CmdPause       = "pause"
	CmdReset       = "reset"
	CmdAdd         = "add"
	CmdRemove      = "remove"
	CmdTemperature = "temperature"
)

// ErrUnknownCommand is returned for messages with an unrecognized type.
var ErrUnknownCommand = errors.New("unknown command")

// ClientMessage is a control message sent by a client.
type ClientMessage struct {
	Type        string         `json:"type"`
	Species     string         `json:"species,omitempty"`
	Count       int            `json:"count,omitempty"`
	Region      *config.Region `json:"region,omitempty"`
	Speed       *float64       `json:"speed,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
}

// Apply forwards the message to ctrl. Unknown species are left to the
// controller, which ignores them.
func (m ClientMessage) Apply(ctrl Controller) error {
	switch m.Type {
	case CmdStart:
		ctrl.Start()
	case CmdPause:
		ctrl.Pause()
	case CmdReset:
		ctrl.Reset()
	case CmdAdd:
		if m.Species == "" {
			return fmt.Errorf("%s: species is required", m.Type)
		}
		ctrl.AddParticles(config.SpawnGroup{
			Species: m.Species,
			Count:   m.Count,
			Region:  m.Region,
			Speed:   m.Speed,
		})
	case CmdRemove:
		if m.Species == "" {
			return fmt.Errorf("%s: species is required", m.Type)
		}
		ctrl.RemoveParticles(m.Species, m.Count)
	case CmdTemperature:
		if m.Temperature == nil {
			return fmt.Errorf("%s: temperature is required", m.Type)
		}
		ctrl.SetTemperature(*m.Temperature)
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, m.Type)
	}
	return nil
}
