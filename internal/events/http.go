package events

import (
	"net/http"
	"time"
)

// HTTPStart is published once the handler assigned the request its id.
type HTTPStart struct {
	Request   *http.Request
	RequestID string
}

// HTTPFinish is published after the response was written. Operations is the
// number of payloads the request carried, zero when it was rejected before
// execution.
type HTTPFinish struct {
	Request    *http.Request
	RequestID  string
	Status     int
	Operations int
	Duration   time.Duration
}
