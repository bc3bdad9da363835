// Package analyzer implements the File Analyzer (spec §4.1): a single
// linear scan over a file's bytes producing directive lines, comment
// spans, and magic-flag annotations, without interpreting conditional
// compilation — that is the preprocessor's job, one layer up.
package analyzer

// DirectiveKind classifies a recognized preprocessor directive line.
type DirectiveKind int

const (
	DirUnknown DirectiveKind = iota
	DirInclude
	DirIncludeComputed
	DirDefine
	DirUndef
	DirIf
	DirIfdef
	DirIfndef
	DirElif
	DirElse
	DirEndif
	DirPragmaOnce
	DirPragmaOther
	DirError
	DirWarning
	DirLine
	DirEmpty
)

// Directive is one recognized line beginning with '#' (after whitespace
// and line-continuation joining).
type Directive struct {
	Line    int // physical line number where the '#' appears
	Kind    DirectiveKind
	Payload []byte // directive-specific remainder, see field docs below
	// Name is populated for DirDefine/DirUndef/DirIfdef/DirIfndef: the
	// macro identifier the directive names.
	Name string
	// HeaderName is populated for DirInclude: the literal text between
	// quotes or angle brackets, and Quoted records which (false for angled).
	HeaderName string
	Quoted     bool
}

// MagicKey is one of the fixed annotation keys the spec recognizes.
type MagicKey string

const (
	KeyCXXFLAGS   MagicKey = "CXXFLAGS"
	KeyCPPFLAGS   MagicKey = "CPPFLAGS"
	KeyCFLAGS     MagicKey = "CFLAGS"
	KeyLINKFLAGS  MagicKey = "LINKFLAGS"
	KeyLDFLAGS    MagicKey = "LDFLAGS"
	KeyPkgConfig  MagicKey = "PKG-CONFIG"
	KeySource     MagicKey = "SOURCE"
)

var recognizedMagicKeys = map[string]MagicKey{
	"CXXFLAGS":   KeyCXXFLAGS,
	"CPPFLAGS":   KeyCPPFLAGS,
	"CFLAGS":     KeyCFLAGS,
	"LINKFLAGS":  KeyLINKFLAGS,
	"LDFLAGS":    KeyLDFLAGS,
	"PKG-CONFIG": KeyPkgConfig,
	"SOURCE":     KeySource,
}

// MagicToken is one `//#KEY=value` annotation found inside a single-line
// comment.
type MagicToken struct {
	Line  int
	Key   MagicKey
	Value string
}

// CommentSpan is a byte range [Start, End) to be ignored by later text
// lookups — e.g. so a `#` inside a block comment is never mistaken for a
// directive by a caller re-scanning raw bytes.
type CommentSpan struct {
	Start, End int
}

// AnalysisResult is the File Analyzer's output: everything that can be
// derived from FileContent alone, independent of any macro state, and
// therefore cacheable by content hash alone (spec §3).
type AnalysisResult struct {
	Directives       []Directive
	MagicTokens      []MagicToken
	CommentSpans     []CommentSpan
	ReferencedMacros []string // names appearing in #if/#elif/#ifdef/#ifndef/computed-include expressions
	DefinedMacros    []string // names #define'd or #undef'd

	// Diagnostics accumulated during the scan (unterminated comment/string
	// etc.); analysis continues conservatively per spec §4.1/§7.
	Diagnostics []string
}
