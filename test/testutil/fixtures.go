package testutil

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/togglecrypt/internal/crypto"
	"github.com/TheMichaelB/togglecrypt/internal/envelope"
	"github.com/TheMichaelB/togglecrypt/internal/events"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// NewCapturingLogger returns a debug logger recording into a LogOutput.
func NewCapturingLogger() (*events.Logger, *LogOutput) {
	out := NewLogOutput()
	return events.NewTestLogger(events.DebugLevel, "json", out), out
}

// SealContainer builds encoded container bytes for plaintext.
func SealContainer(t *testing.T, password, plaintext []byte, originalPath string) []byte {
	t.Helper()

	sealed, err := crypto.NewProvider().Encrypt(password, plaintext)
	require.NoError(t, err)

	data, err := envelope.Encode(envelope.New(sealed, originalPath))
	require.NoError(t, err)
	return data
}

// ContainerFields decodes container JSON into a generic map for
// per-field manipulation.
func ContainerFields(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	return fields
}

// EncodeFields re-encodes a field map produced by ContainerFields.
func EncodeFields(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(fields)
	require.NoError(t, err)
	return data
}
