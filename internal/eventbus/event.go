package eventbus

import "time"

// Message is a payload published to a named channel on the bus.
type Message struct {
	Channel   string    `json:"channel"`
	Payload   string    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Listener is a function that handles a message.
type Listener func(Message)
