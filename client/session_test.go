package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	msg, err := DecodeInbound([]byte(`{"type":"save","content":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeSave, msg.Type)
	require.NotNil(t, msg.Content)
	assert.Equal(t, "hello", *msg.Content)

	msg, err = DecodeInbound([]byte(`{"type":"presence","users":3}`))
	require.NoError(t, err)
	assert.Equal(t, "presence", msg.Type)
	assert.Nil(t, msg.Content)
}

func TestDecodeInbound_Malformed(t *testing.T) {
	for _, frame := range []string{`not json`, `{"content":"x"}`, `null`, `[1,2]`, `{"type":5}`, `{"type":"save"`} {
		_, err := DecodeInbound([]byte(frame))
		assert.ErrorIs(t, err, ErrProtocol, frame)
	}
}

func TestResultMessage_ReasonOmittedWhenEmpty(t *testing.T) {
	b, err := json.Marshal(ResultMessage{Type: MessageTypeSaveResult, Success: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"save_result","success":true}`, string(b))
	assert.NotContains(t, string(b), "null")

	b, err = json.Marshal(ResultMessage{Type: MessageTypeSaveResult, Success: false, Reason: ReasonSaveFailed})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"save_result","success":false,"reason":"Failed to save file"}`, string(b))
}
