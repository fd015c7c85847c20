package control

import (
	"github.com/dudk/oscfx"
	"github.com/dudk/oscfx/osc"
)

// gesture tags emitted by control surfaces.
var gestures = map[string]oscfx.Gesture{
	"pressed":     oscfx.Press,
	"s_pressed":   oscfx.Press,
	"unpressed":   oscfx.Unpress,
	"s_unpressed": oscfx.Unpress,
}

// Extract maps decoded message to parameter event. False is returned if
// path is not a known target or message carries no float argument.
func Extract(m osc.Message) (oscfx.Event, bool) {
	target, ok := oscfx.ParseTarget(m.Path)
	if !ok {
		return oscfx.Event{}, false
	}
	value, ok := firstFloat(m.Arguments)
	if !ok {
		return oscfx.Event{}, false
	}
	return oscfx.Event{
		Target:  target,
		Gesture: gesture(m.Arguments),
		Value:   target.Scale(value),
	}, true
}

func firstFloat(args []osc.Argument) (float32, bool) {
	for _, a := range args {
		if v, ok := a.Float(); ok {
			return v, true
		}
	}
	return 0, false
}

// gesture resolves the first string argument. Press and unpress tags
// count only if they are followed by a numeric argument.
func gesture(args []osc.Argument) oscfx.Gesture {
	for i, a := range args {
		s, ok := a.Text()
		if !ok {
			continue
		}
		if g, ok := gestures[s]; ok && hasFloat(args[i+1:]) {
			return g
		}
		return oscfx.Move
	}
	return oscfx.Move
}

func hasFloat(args []osc.Argument) bool {
	_, ok := firstFloat(args)
	return ok
}
