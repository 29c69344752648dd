package toggle

import (
	"os"
	"strconv"
	"strings"

	"github.com/TheMichaelB/togglecrypt/internal/envelope"
)

// ContainerPath derives the container name for src: the extension is
// replaced with .encJson (or appended when there is none). When the name
// is taken, <stem>.1.encJson, <stem>.2.encJson, ... are probed in order.
func ContainerPath(src string, exists func(string) bool) string {
	stem, _ := splitExt(src)

	candidate := stem + envelope.Extension
	for n := 1; exists(candidate); n++ {
		candidate = stem + "." + strconv.Itoa(n) + envelope.Extension
	}
	return candidate
}

// RestorePath returns orig when it is free. Otherwise a counter is
// inserted before the extension: notes.txt becomes notes.1.txt, then
// notes.2.txt; name becomes name.1.
func RestorePath(orig string, exists func(string) bool) string {
	if !exists(orig) {
		return orig
	}

	stem, ext := splitExt(orig)
	for n := 1; ; n++ {
		candidate := stem + "." + strconv.Itoa(n) + ext
		if !exists(candidate) {
			return candidate
		}
	}
}

// splitExt splits path into stem and extension. Leading dots of the base
// name do not start an extension, so ".bashrc" has none.
func splitExt(path string) (stem, ext string) {
	sep := strings.LastIndexByte(path, os.PathSeparator)
	if os.PathSeparator != '/' {
		if i := strings.LastIndexByte(path, '/'); i > sep {
			sep = i
		}
	}

	dot := strings.LastIndexByte(path, '.')
	if dot <= sep {
		return path, ""
	}

	for i := sep + 1; i < dot; i++ {
		if path[i] != '.' {
			return path[:dot], path[dot:]
		}
	}
	return path, ""
}
