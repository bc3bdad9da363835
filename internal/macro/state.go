package macro

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/ct-build/ct-cppdeps/internal/common"
)

// Core is the immutable set of compiler built-ins (e.g. __GNUC__,
// __cplusplus), loaded once per variant and shared by every MacroState
// derived from it. It is never mutated after construction.
type Core struct {
	macros map[string]*Macro
}

// NewCore builds a Core from a name->Macro map; callers typically build
// this once from a variant profile (internal/variant).
func NewCore(macros map[string]*Macro) *Core {
	c := &Core{macros: make(map[string]*Macro, len(macros))}
	for name, m := range macros {
		mc := *m
		mc.IsBuiltin = true
		c.macros[name] = &mc
	}
	return c
}

func (c *Core) lookup(name string) (*Macro, bool) {
	if c == nil {
		return nil, false
	}
	m, ok := c.macros[name]
	return m, ok
}

// layer is one frame of the variable partition's structural-sharing
// chain. Snapshot() pushes a fresh, empty layer on top of the current
// one so later mutations on the snapshot never touch the layers an
// earlier snapshot still points at — a cheap, copy-on-write clone
// instead of a full map copy.
type layer struct {
	defines map[string]*Macro
	undefs  map[string]bool // names masked by an explicit #undef in this layer
	parent  *layer
}

// State is a MacroState: variable lookups walk the layer chain from the
// newest layer to the oldest, falling back to Core only if no layer
// mentions the name at all (neither defines nor masks it).
type State struct {
	core *Core
	top  *layer
}

// NewState creates a MacroState over the given Core with an empty
// variable partition.
func NewState(core *Core) *State {
	return &State{core: core, top: &layer{defines: map[string]*Macro{}, undefs: map[string]bool{}}}
}

// Lookup resolves name, preferring the variable partition over core, as
// required by the "total lookup = variable first, else core" invariant.
func (s *State) Lookup(name string) Value {
	for l := s.top; l != nil; l = l.parent {
		if m, ok := l.defines[name]; ok {
			return Defined(m)
		}
		if l.undefs[name] {
			return Undefined
		}
	}
	if m, ok := s.core.lookup(name); ok {
		return Defined(m)
	}
	return Undefined
}

// IsDefined is a convenience wrapper used by `defined(NAME)` evaluation.
func (s *State) IsDefined(name string) bool {
	return s.Lookup(name).IsDefined()
}

// Define records m under name in the current layer's variable partition.
// It must never touch Core (the core/variable separation invariant).
func (s *State) Define(name string, m *Macro) {
	delete(s.top.undefs, name)
	mc := *m
	mc.Name = name
	mc.IsBuiltin = false
	s.top.defines[name] = &mc
}

// Undef removes name from the variable partition if present; if name is
// otherwise only found in Core, it instead records a masked-core marker
// so core lookups return Undefined until a later Define.
func (s *State) Undef(name string) {
	delete(s.top.defines, name)
	s.top.undefs[name] = true
}

// Snapshot returns a cheap clone of s: a new State sharing all existing
// layers, with one fresh empty layer on top so the clone's own mutations
// are invisible to s and vice versa.
func (s *State) Snapshot() *State {
	return &State{core: s.core, top: &layer{defines: map[string]*Macro{}, undefs: map[string]bool{}, parent: s.top}}
}

// ReplaceVariable returns a new State whose entire variable partition is
// exactly base's variable partition with delta applied on top, in order.
// This is the cache's required reconstruction strategy (§4.5): merging a
// delta into a different base is wrong because an #undef in the delta
// must be able to mask a binding the base already had, which a naive
// union would not express.
func ReplaceVariable(base *State, delta []DefinesDeltaOp) *State {
	out := base.Snapshot()
	for _, op := range delta {
		switch op.Op {
		case OpDefine:
			out.Define(op.Name, op.Macro)
		case OpUndef:
			out.Undef(op.Name)
		}
	}
	return out
}

// OpKind distinguishes a define from an undef in a defines delta.
type OpKind int

const (
	OpDefine OpKind = iota
	OpUndef
)

// DefinesDeltaOp is one entry of CacheValue's defines_delta: the ordered
// record of #define/#undef operations executed along a file's active
// path, sufficient (per spec §3) to reconstruct the post-state from any
// input state.
type DefinesDeltaOp struct {
	Op    OpKind
	Name  string
	Macro *Macro // nil for OpUndef
}

// RestrictedFingerprint computes a stable, order-independent 128-bit hash
// over the current values of the macros named in names, each looked up
// through the whole state (variable partition, then core): sorted
// (name, body-or-UNDEF) pairs, hashed with xxhash and XOR-folded so the
// result depends only on the membership and values of names, never on
// insertion order or on any name outside the set (spec §4.4's critical
// cache-correctness invariant).
func (s *State) RestrictedFingerprint(names []string) common.SHA256 {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var out common.SHA256
	for _, name := range sorted {
		v := s.Lookup(name)
		var enc string
		if v.IsDefined() {
			enc = name + "=" + encodeMacroBody(v.Macro)
		} else {
			enc = name + "=\x00UNDEF"
		}
		h := xxhash.Sum64String(enc)
		// Fold each entry's hash independently into the accumulator via
		// XOR so that entry order never affects the final digest.
		out.B0_7 ^= h
		out.B8_15 ^= h>>1 | h<<63
	}
	return out
}

func encodeMacroBody(m *Macro) string {
	var b strings.Builder
	if m.IsFunctionLike() {
		b.WriteByte('(')
		b.WriteString(strings.Join(m.Params, ","))
		if m.Variadic {
			b.WriteString(",...")
		}
		b.WriteByte(')')
	}
	b.Write(m.Body)
	return b.String()
}
