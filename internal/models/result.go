package models

import "time"

// Operation identifies which transition ran for a file.
type Operation string

const (
	OpNone    Operation = "process"
	OpEncrypt Operation = "encrypt"
	OpDecrypt Operation = "decrypt"
)

// Cleanup records the removal of the source artifact after a transition.
// A cleanup failure never fails the transition itself.
type Cleanup struct {
	Attempted bool
	Method    string // "shred" or "remove"
	Err       error
}

// Succeeded reports whether the source artifact is gone.
func (c Cleanup) Succeeded() bool {
	return c.Attempted && c.Err == nil
}

// Result is the outcome of processing one input path.
type Result struct {
	Op       Operation
	Source   string
	Target   string
	Size     int64 // plaintext bytes
	Err      error
	Cleanup  Cleanup
	Duration time.Duration
}

// OK reports whether the transition succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary aggregates results of a batch.
type Summary struct {
	Total     int
	Encrypted int
	Decrypted int
	Failed    int
}

// Summarize counts outcomes by kind.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case !r.OK():
			s.Failed++
		case r.Op == OpEncrypt:
			s.Encrypted++
		case r.Op == OpDecrypt:
			s.Decrypted++
		}
	}
	return s
}
