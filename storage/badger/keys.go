package badger

import (
	"github.com/poiesic/docvec/core"
)

// Key prefixes for different data types
const (
	manifestPrefix = "manifest"
	keySeparator   = 0x00
)

// makeManifestKey generates a key for a file in a namespace.
// Format: prefix:namespace\x00path
// The NUL separator keeps namespace prefixes from matching each other
// ("social" vs "social2").
func makeManifestKey(namespace, path string) []byte {
	buf := makeNamespacePrefix(namespace)
	return append(buf, path...)
}

// makeNamespacePrefix generates the prefix shared by every entry in a
// namespace.
// Format: prefix:namespace\x00
func makeNamespacePrefix(namespace string) []byte {
	buf := make([]byte, 0, len(manifestPrefix)+1+len(namespace)+1)
	buf = append(buf, manifestPrefix...)
	buf = append(buf, ':')
	buf = append(buf, namespace...)
	return append(buf, keySeparator)
}

// stateKey returns the key under which state is stored.
func stateKey(state *core.FileState) []byte {
	return makeManifestKey(state.Namespace, state.Path)
}
