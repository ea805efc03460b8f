package model

import "fmt"

// Signal is an in-process notification pushed to views that something they
// render from has changed out from under them.
type Signal struct {
	SignalType SignalType `json:"signalType"`
}

type SignalType string

const (
	// SignalTypeFeedStale tells the feed view that its cached snapshot no
	// longer reflects the backend (e.g. a recipe was just submitted) and it
	// should treat the next subscription push as authoritative.
	SignalTypeFeedStale SignalType = "FEED_STALE"
)

var AllSignalType = []SignalType{
	SignalTypeFeedStale,
}

func (e SignalType) IsValid() bool {
	switch e {
	case SignalTypeFeedStale:
		return true
	}
	return false
}

func (e SignalType) String() string {
	return string(e)
}

func (e *SignalType) UnmarshalText(b []byte) error {
	*e = SignalType(b)
	if !e.IsValid() {
		return fmt.Errorf("%s is not a valid SignalType", string(b))
	}
	return nil
}
