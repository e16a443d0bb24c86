package discord

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// convState is the closed set of multi-step conversation states. A user is
// in at most one state; anything else routes as a normal message.
type convState int

const (
	stateNone convState = iota
	stateAwaitUsername
	stateAwaitPassword
	stateAwaitTwoFactor
	stateAwaitBlob
	stateAwaitBroadcast
)

// conversation is the per-user multi-step flow memory. verificationID
// survives state resets so /confirm keeps working mid-flow.
type conversation struct {
	state    convState
	username string
	password string

	verificationID string
}

const (
	conversationTTL = 30 * time.Minute
	conversationCap = 1024
)

// conversations stores per-user flow state with idle expiry, so an abandoned
// login prompt cannot linger forever.
type conversations struct {
	cache *expirable.LRU[string, *conversation]
}

func newConversations() *conversations {
	return &conversations{
		cache: expirable.NewLRU[string, *conversation](conversationCap, nil, conversationTTL),
	}
}

// get returns the current conversation, creating a blank one on first use.
func (c *conversations) get(userID string) *conversation {
	if conv, ok := c.cache.Get(userID); ok {
		return conv
	}
	conv := &conversation{}
	c.cache.Add(userID, conv)
	return conv
}

// put refreshes the entry so the idle TTL restarts after activity.
func (c *conversations) put(userID string, conv *conversation) {
	c.cache.Add(userID, conv)
}

// resetFlow clears the multi-step state and secrets but keeps the pending
// verification id.
func (c *conversations) resetFlow(userID string) bool {
	conv, ok := c.cache.Get(userID)
	if !ok || conv.state == stateNone {
		return false
	}
	conv.state = stateNone
	conv.username = ""
	conv.password = ""
	c.cache.Add(userID, conv)
	return true
}
