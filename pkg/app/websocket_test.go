package app

import (
	"bytes"
	"testing"

	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
)

func textMessage(payload string) *gws.Message {
	return &gws.Message{Opcode: gws.OpcodeText, Data: bytes.NewBufferString(payload)}
}

// Messages from connections the server does not track are dropped, whatever
// their payload. Bare words like "close" carry no protocol meaning; only
// close frames end a connection.
func TestWebsocketServer_OnMessageUntrackedConn(t *testing.T) {
	wss := NewWebsocketServer(WebsocketServerConfig{})

	assert.NotPanics(t, func() {
		wss.OnMessage(nil, textMessage("close"))
		wss.OnMessage(nil, textMessage("hello"))
		wss.OnMessage(nil, textMessage("Authorization|some-token"))
		wss.OnMessage(nil, &gws.Message{Opcode: gws.OpcodeBinary, Data: bytes.NewBufferString("close")})
	})
}

func TestWebsocketServer_SubscribeBookkeeping(t *testing.T) {
	wss := NewWebsocketServer(WebsocketServerConfig{})
	c := &WebsocketClient{server: wss, subbed: make(map[string]struct{})}

	wss.Subscribe(c, "cs-1")
	assert.Len(t, wss.ChangesetClients("cs-1"), 1)

	wss.Unsubscribe(c, "cs-1")
	assert.Empty(t, wss.ChangesetClients("cs-1"))
}
