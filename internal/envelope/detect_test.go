package envelope_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/togglecrypt/internal/envelope"
)

func TestClassify(t *testing.T) {
	valid, err := envelope.Encode(sampleEnvelope())
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		want envelope.State
	}{
		{"encoded container", valid, envelope.Container},
		{"container with malformed values", []byte(`{"salt":1,"iv":null,"ciphertext":[],"originalFile":{}}`), envelope.Container},
		{"container with extra keys", []byte(`{"salt":"","iv":"","ciphertext":"","originalFile":"","note":"x"}`), envelope.Container},
		{"empty file", []byte{}, envelope.PlaintextCandidate},
		{"arbitrary text", []byte("meeting notes\nsalt iv ciphertext originalFile\n"), envelope.PlaintextCandidate},
		{"json missing key", []byte(`{"salt":"","iv":"","ciphertext":""}`), envelope.PlaintextCandidate},
		{"json array", []byte(`["salt","iv","ciphertext","originalFile"]`), envelope.PlaintextCandidate},
		{"binary", []byte{0x89, 'P', 'N', 'G', 0x00, 0x00, 0x1a}, envelope.PlaintextCandidate},
		{"invalid utf8", []byte{'{', 0xff, 0xfe, '}'}, envelope.PlaintextCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, envelope.Classify(tt.data))
		})
	}
}

type fakeReader map[string][]byte

func (f fakeReader) Read(path string) ([]byte, error) {
	data, ok := f[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func TestClassifyFile(t *testing.T) {
	valid, err := envelope.Encode(sampleEnvelope())
	require.NoError(t, err)

	r := fakeReader{
		"notes.encJson": valid,
		"notes.txt":     []byte("hello"),
	}

	assert.Equal(t, envelope.Container, envelope.ClassifyFile(r, "notes.encJson"))
	assert.Equal(t, envelope.PlaintextCandidate, envelope.ClassifyFile(r, "notes.txt"))
	assert.Equal(t, envelope.PlaintextCandidate, envelope.ClassifyFile(r, "missing"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "container", envelope.Container.String())
	assert.Equal(t, "plaintext", envelope.PlaintextCandidate.String())
}
