// Package protocol defines the JSON frames exchanged between the app client
// (gateway/remote) and the sync server over a websocket. Requests are acked
// by id; subscription pushes are unsolicited frames routed by subscription
// id.
package protocol

import "encoding/json"

type Op string

const (
	OpAuth        Op = "auth"
	OpSignUp      Op = "signup"
	OpSubscribe   Op = "subscribe"
	OpUnsubscribe Op = "unsubscribe"
	OpWrite       Op = "write"
	OpIncrement   Op = "increment"

	// Server-originated frame kinds.
	OpAck  Op = "ack"
	OpPush Op = "push"
)

// ClientMessage is one request frame. ID is echoed on the ack. Sub names the
// client-chosen subscription id for subscribe/unsubscribe.
type ClientMessage struct {
	ID       string          `json:"id"`
	Op       Op              `json:"op"`
	Path     string          `json:"path,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Delta    int64           `json:"delta,omitempty"`
	Email    string          `json:"email,omitempty"`
	Password string          `json:"password,omitempty"`
	Sub      string          `json:"sub,omitempty"`
}

// ServerMessage is an ack (Op == OpAck, ID set) or a push (Op == OpPush,
// Sub set). AuthFailure marks a credential rejection whose Error text is
// surfaced to the user verbatim, as opposed to transport faults.
type ServerMessage struct {
	ID          string          `json:"id,omitempty"`
	Op          Op              `json:"op"`
	OK          bool            `json:"ok,omitempty"`
	Error       string          `json:"error,omitempty"`
	AuthFailure bool            `json:"authFailure,omitempty"`
	UID         string          `json:"uid,omitempty"`
	Sub         string          `json:"sub,omitempty"`
	Path        string          `json:"path,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	Keys        []string        `json:"keys,omitempty"`
}
