// Package envelope reads and writes the JSON container that holds an
// encrypted file, and classifies file content as container or plaintext.
package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TheMichaelB/togglecrypt/internal/crypto"
	"github.com/TheMichaelB/togglecrypt/internal/models"
)

// Container field names. The nonce is stored as "iv".
const (
	FieldSalt         = "salt"
	FieldNonce        = "iv"
	FieldCiphertext   = "ciphertext"
	FieldOriginalPath = "originalFile"
)

// Extension is appended to (or replaces the extension of) encrypted files.
const Extension = ".encJson"

// RequiredFields lists the keys every container must carry.
var RequiredFields = []string{FieldSalt, FieldNonce, FieldCiphertext, FieldOriginalPath}

// Envelope is the decoded container.
type Envelope struct {
	Salt         crypto.Salt
	Nonce        crypto.Nonce
	Ciphertext   []byte
	OriginalPath string
}

// New wraps sealed material and the absolute path it was read from.
func New(sealed *crypto.Sealed, originalPath string) *Envelope {
	return &Envelope{
		Salt:         sealed.Salt,
		Nonce:        sealed.Nonce,
		Ciphertext:   sealed.Ciphertext,
		OriginalPath: originalPath,
	}
}

// Sealed returns the cryptographic part of the envelope.
func (e *Envelope) Sealed() *crypto.Sealed {
	return &crypto.Sealed{
		Salt:       e.Salt,
		Nonce:      e.Nonce,
		Ciphertext: e.Ciphertext,
	}
}

// wireEnvelope fixes the key order of the written JSON.
type wireEnvelope struct {
	Salt         string `json:"salt"`
	IV           string `json:"iv"`
	Ciphertext   string `json:"ciphertext"`
	OriginalFile string `json:"originalFile"`
}

// Encode serializes the envelope as indented JSON.
func Encode(e *Envelope) ([]byte, error) {
	wire := wireEnvelope{
		Salt:         hex.EncodeToString(e.Salt[:]),
		IV:           hex.EncodeToString(e.Nonce[:]),
		Ciphertext:   base64.StdEncoding.EncodeToString(e.Ciphertext),
		OriginalFile: e.OriginalPath,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(&wire); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode parses and validates a container. Errors are *FormatError.
func Decode(data []byte) (*Envelope, error) {
	fields, err := parseFields(data)
	if err != nil {
		return nil, err
	}

	var env Envelope

	salt, err := decodeHexField(fields, FieldSalt, crypto.SaltSize)
	if err != nil {
		return nil, err
	}
	copy(env.Salt[:], salt)

	nonce, err := decodeHexField(fields, FieldNonce, crypto.NonceSize)
	if err != nil {
		return nil, err
	}
	copy(env.Nonce[:], nonce)

	encoded, err := stringField(fields, FieldCiphertext)
	if err != nil {
		return nil, err
	}
	env.Ciphertext, err = base64.StdEncoding.DecodeString(stripWhitespace(encoded))
	if err != nil {
		return nil, malformed(FieldCiphertext, err)
	}

	env.OriginalPath, err = stringField(fields, FieldOriginalPath)
	if err != nil {
		return nil, err
	}
	if env.OriginalPath == "" {
		return nil, malformed(FieldOriginalPath, fmt.Errorf("empty path"))
	}

	return &env, nil
}

// parseFields checks structure and key presence only. Extra keys are
// ignored.
func parseFields(data []byte) (map[string]json.RawMessage, error) {
	if !utf8.Valid(data) {
		return nil, &FormatError{Kind: NotStructured, Err: fmt.Errorf("content is not UTF-8")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &FormatError{Kind: NotStructured, Err: err}
	}
	if fields == nil {
		return nil, &FormatError{Kind: NotStructured, Err: fmt.Errorf("content is not a JSON object")}
	}

	for _, name := range RequiredFields {
		if _, ok := fields[name]; !ok {
			return nil, &FormatError{Kind: MissingField, Field: name}
		}
	}

	return fields, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	var value *string
	if err := json.Unmarshal(fields[name], &value); err != nil || value == nil {
		return "", malformed(name, fmt.Errorf("not a string"))
	}
	return *value, nil
}

func decodeHexField(fields map[string]json.RawMessage, name string, size int) ([]byte, error) {
	value, err := stringField(fields, name)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, malformed(name, err)
	}
	if len(raw) != size {
		return nil, malformed(name, fmt.Errorf("expected %d bytes, got %d", size, len(raw)))
	}

	return raw, nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}

func malformed(field string, err error) *FormatError {
	return &FormatError{Kind: MalformedField, Field: field, Err: err}
}

// FormatKind says why content is not a valid container.
type FormatKind int

const (
	NotStructured FormatKind = iota + 1
	MissingField
	MalformedField
)

func (k FormatKind) String() string {
	switch k {
	case NotStructured:
		return "not structured data"
	case MissingField:
		return "missing field"
	case MalformedField:
		return "malformed field"
	default:
		return "unknown format error"
	}
}

// FormatError reports an unreadable container. It matches models.ErrFormat.
type FormatError struct {
	Kind  FormatKind
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s %q", e.Kind, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{models.ErrFormat}
	}
	return []error{models.ErrFormat, e.Err}
}
