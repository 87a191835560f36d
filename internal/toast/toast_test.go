package toast

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_AssignsKey(t *testing.T) {
	a := Add(Message{Content: "Subtitle deleted"})
	msg := a.Payload.(Message)

	_, err := uuid.Parse(msg.Key)
	require.NoError(t, err)

	keep := Add(Message{Key: "fixed"})
	assert.Equal(t, "fixed", keep.Payload.(Message).Key)
}

func TestReduce_AddAndRemove(t *testing.T) {
	var s State
	s = Reduce(s, Add(Message{Key: "a", Content: "first"}))
	s = Reduce(s, Add(Message{Key: "b", Content: "second"}))
	before := s

	s = Reduce(s, Remove("a"))

	require.Len(t, s.Messages, 1)
	assert.Equal(t, "b", s.Messages[0].Key)
	assert.Len(t, before.Messages, 2, "remove must not mutate the previous state")

	assert.Equal(t, s, Reduce(s, Remove("missing")))
}
