package envelope

import "bytes"

// State is the result of content-based classification.
type State int

const (
	PlaintextCandidate State = iota
	Container
)

func (s State) String() string {
	if s == Container {
		return "container"
	}
	return "plaintext"
}

// sniffLen bounds the binary check.
const sniffLen = 8192

// Classify reports Container when data is a UTF-8 JSON object carrying
// every required key, whether or not the values decode.
//
// This is a heuristic, not a format tag: a plaintext JSON file that
// happens to contain exactly these keys is classified as a container and
// will fail to decrypt. Tagging the format would break existing containers.
func Classify(data []byte) State {
	if looksBinary(data) {
		return PlaintextCandidate
	}

	if _, err := parseFields(data); err != nil {
		return PlaintextCandidate
	}

	return Container
}

// Reader is the storage capability Classify needs.
type Reader interface {
	Read(path string) ([]byte, error)
}

// ClassifyFile classifies the content at path. Unreadable files are
// plaintext candidates; the encrypt path reports the actual error.
func ClassifyFile(r Reader, path string) State {
	data, err := r.Read(path)
	if err != nil {
		return PlaintextCandidate
	}
	return Classify(data)
}

// looksBinary reports a NUL byte in the leading bytes. Valid JSON never
// contains a raw NUL, so this cannot reject a container.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > sniffLen {
		n = sniffLen
	}
	return bytes.IndexByte(data[:n], 0) != -1
}
