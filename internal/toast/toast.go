// Package toast keeps the queue of transient notifications shown by the UI.
package toast

import (
	"github.com/google/uuid"

	"github.com/odlvideo/odlv/internal/action"
)

const (
	TypeAddMessage    action.Type = "ADD_TOAST_MESSAGE"
	TypeRemoveMessage action.Type = "REMOVE_TOAST_MESSAGE"
)

// Types lists every action type the toast reducer handles.
func Types() []action.Type {
	return []action.Type{TypeAddMessage, TypeRemoveMessage}
}

// Message is one notification.
type Message struct {
	Key     string
	Content string
	Icon    string
}

// State holds messages oldest first.
type State struct {
	Messages []Message
}

// Add builds the action that queues msg. A missing key is replaced by a
// random one so the message can be removed later.
func Add(msg Message) action.Action {
	if msg.Key == "" {
		msg.Key = uuid.NewString()
	}
	return action.Action{Type: TypeAddMessage, Payload: msg}
}

// Remove builds the action that drops the message with key.
func Remove(key string) action.Action {
	return action.Action{Type: TypeRemoveMessage, Payload: key}
}

// Reduce applies a to s.
func Reduce(s State, a action.Action) State {
	switch a.Type {
	case TypeAddMessage:
		msg, ok := a.Payload.(Message)
		if !ok {
			return s
		}
		messages := make([]Message, 0, len(s.Messages)+1)
		messages = append(messages, s.Messages...)
		s.Messages = append(messages, msg)
	case TypeRemoveMessage:
		key, ok := a.Payload.(string)
		if !ok {
			return s
		}
		messages := make([]Message, 0, len(s.Messages))
		for _, m := range s.Messages {
			if m.Key != key {
				messages = append(messages, m)
			}
		}
		s.Messages = messages
	}
	return s
}
