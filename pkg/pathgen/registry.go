package pathgen

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultKind is the variant used when GenParams.Kind is empty.
const DefaultKind = "branching"

// Variant grows the levels below the root. It returns the last generated level
// and its nodes, which the generator converges when the budget allows.
type Variant func(b *Build) (frontier Frontier)

var (
	registryMu sync.RWMutex
	registry   = map[string]Variant{
		"branching": Branching,
		"linear":    Linear,
	}
)

// Register adds a variant under kind. Registering an existing kind panics.
func Register(kind string, v Variant) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("pathgen: variant %q already registered", kind))
	}
	registry[kind] = v
}

// Lookup returns the variant registered under kind. An empty kind resolves to DefaultKind.
func Lookup(kind string) (Variant, bool) {
	if kind == "" {
		kind = DefaultKind
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	v, ok := registry[kind]
	return v, ok
}

// Kinds lists the registered variants, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
