package envelope_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/togglecrypt/internal/crypto"
	"github.com/TheMichaelB/togglecrypt/internal/envelope"
	"github.com/TheMichaelB/togglecrypt/internal/models"
)

func sampleEnvelope() *envelope.Envelope {
	return &envelope.Envelope{
		Salt:         crypto.Salt{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0xff},
		Nonce:        crypto.Nonce{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0, 0, 0, 0, 0x01},
		Ciphertext:   []byte("ciphertext-and-tag"),
		OriginalPath: "/home/user/notes & <todo>.txt",
	}
}

func TestEncode(t *testing.T) {
	data, err := envelope.Encode(sampleEnvelope())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"salt": "000102030405060708090a0b0c0d0eff"`)
	assert.Contains(t, text, `"iv": "deadbeef0000000000000001"`)
	assert.Contains(t, text, `"ciphertext": "Y2lwaGVydGV4dC1hbmQtdGFn"`)
	assert.Contains(t, text, `"originalFile": "/home/user/notes & <todo>.txt"`)

	// Keys are written in a fixed order and nothing else is written.
	saltAt := strings.Index(text, `"salt"`)
	ivAt := strings.Index(text, `"iv"`)
	ctAt := strings.Index(text, `"ciphertext"`)
	pathAt := strings.Index(text, `"originalFile"`)
	assert.True(t, saltAt < ivAt && ivAt < ctAt && ctAt < pathAt)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 4)
}

func TestDecodeRoundTrip(t *testing.T) {
	original := sampleEnvelope()

	data, err := envelope.Encode(original)
	require.NoError(t, err)

	decoded, err := envelope.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeToleratesExtraKeysAndUppercaseHex(t *testing.T) {
	data := `{
		"version": 2,
		"salt": "000102030405060708090A0B0C0D0EFF",
		"iv": "DEADBEEF0000000000000001",
		"ciphertext": "Y2lwaGVy\ndGV4dC1hbmQtdGFn",
		"originalFile": "/tmp/a.txt"
	}`

	env, err := envelope.Decode([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), env.Salt[15])
	assert.Equal(t, []byte("ciphertext-and-tag"), env.Ciphertext)
	assert.Equal(t, "/tmp/a.txt", env.OriginalPath)
}

func TestDecodeErrors(t *testing.T) {
	const (
		salt = `"000102030405060708090a0b0c0d0e0f"`
		iv   = `"000102030405060708090a0b"`
		ct   = `"AAAAAAAAAAAAAAAAAAAAAA=="`
		orig = `"/tmp/a.txt"`
	)
	obj := func(s, i, c, o string) string {
		var parts []string
		if s != "" {
			parts = append(parts, `"salt":`+s)
		}
		if i != "" {
			parts = append(parts, `"iv":`+i)
		}
		if c != "" {
			parts = append(parts, `"ciphertext":`+c)
		}
		if o != "" {
			parts = append(parts, `"originalFile":`+o)
		}
		return "{" + strings.Join(parts, ",") + "}"
	}

	tests := []struct {
		name      string
		data      string
		wantKind  envelope.FormatKind
		wantField string
	}{
		{"plain text", "hello world", envelope.NotStructured, ""},
		{"json array", `[1,2,3]`, envelope.NotStructured, ""},
		{"json null", `null`, envelope.NotStructured, ""},
		{"json string", `"salt"`, envelope.NotStructured, ""},
		{"invalid utf8", "{\"salt\":\"\xff\"}", envelope.NotStructured, ""},
		{"missing salt", obj("", iv, ct, orig), envelope.MissingField, "salt"},
		{"missing iv", obj(salt, "", ct, orig), envelope.MissingField, "iv"},
		{"missing ciphertext", obj(salt, iv, "", orig), envelope.MissingField, "ciphertext"},
		{"missing original path", obj(salt, iv, ct, ""), envelope.MissingField, "originalFile"},
		{"salt not hex", obj(`"zz"`, iv, ct, orig), envelope.MalformedField, "salt"},
		{"salt wrong length", obj(`"0001"`, iv, ct, orig), envelope.MalformedField, "salt"},
		{"iv wrong length", obj(salt, salt, ct, orig), envelope.MalformedField, "iv"},
		{"iv not a string", obj(salt, `12`, ct, orig), envelope.MalformedField, "iv"},
		{"ciphertext not base64", obj(salt, iv, `"!!!"`, orig), envelope.MalformedField, "ciphertext"},
		{"original path null", obj(salt, iv, ct, `null`), envelope.MalformedField, "originalFile"},
		{"original path empty", obj(salt, iv, ct, `""`), envelope.MalformedField, "originalFile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := envelope.Decode([]byte(tt.data))
			require.Error(t, err)
			assert.Nil(t, env)

			var formatErr *envelope.FormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Equal(t, tt.wantKind, formatErr.Kind)
			assert.Equal(t, tt.wantField, formatErr.Field)
			assert.ErrorIs(t, err, models.ErrFormat)
		})
	}
}

func TestFormatErrorMessage(t *testing.T) {
	_, err := envelope.Decode([]byte(`{"salt":"00","iv":"00","ciphertext":""}`))
	require.Error(t, err)
	assert.Equal(t, `missing field "originalFile"`, err.Error())
}

func TestEnvelopeSealed(t *testing.T) {
	sealed := &crypto.Sealed{
		Salt:       crypto.Salt{1},
		Nonce:      crypto.Nonce{2},
		Ciphertext: []byte{3},
	}

	env := envelope.New(sealed, "/abs/path")
	assert.Equal(t, "/abs/path", env.OriginalPath)
	assert.Equal(t, sealed, env.Sealed())
}
