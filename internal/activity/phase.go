package activity

import "encoding/json"

// Phase is the smoothed activity state of one session as shown to the UI.
type Phase int

const (
	Idle Phase = iota
	Busy
	Cooldown
)

var phaseNames = map[Phase]string{
	Idle:     "idle",
	Busy:     "busy",
	Cooldown: "cooldown",
}

var phaseFromName = map[string]Phase{
	"idle":     Idle,
	"busy":     Busy,
	"cooldown": Cooldown,
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := phaseFromName[s]; ok {
		*p = v
	}
	return nil
}
