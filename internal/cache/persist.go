package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/common"
	"github.com/ct-build/ct-cppdeps/internal/lockdir"
	"github.com/ct-build/ct-cppdeps/internal/macro"
	"github.com/ct-build/ct-cppdeps/internal/preprocess"
)

// ObjDir persists cache entries under an object directory, one
// self-describing text file per entry named by the hex of its Key, written
// atomically (temp-file + rename) per spec §6. The format follows
// internal/common/own-pch-files.go's KEY=value header-line convention
// rather than a binary encoding, so a corrupted or half-written entry is
// easy to diagnose by hand and a parse failure degrades to a cache miss
// instead of a fatal error.
//
// Store acquires an internal/lockdir lock directory around the write:
// spec §5/§6 require the object/artifact directory to be "protected by
// the external locking collaborator" since two separate ct-cppdeps
// processes (e.g. two build-system invocations racing on a shared,
// possibly NFS-mounted objdir) can target the same cache key. The
// lock-directory protocol is used rather than flock(2) since it is the
// one of the two that stays correct on network filesystems; Load is
// left unlocked because Store's temp-file+rename already guarantees a
// reader only ever observes a complete file or none at all.
type ObjDir struct {
	dir string
}

// NewObjDir creates (if needed) dir and returns an ObjDir rooted there.
func NewObjDir(dir string) (*ObjDir, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return &ObjDir{dir: dir}, nil
}

func (o *ObjDir) pathFor(k Key) string {
	name := k.Hash.ToLongHexString()
	if k.HasVariant {
		name += "." + k.Fingerprint.ToLongHexString()
	} else {
		name += ".invariant"
	}
	return filepath.Join(o.dir, name+".ctcache")
}

// Store writes v under k, atomically. Disk failures (full disk,
// permission) are the caller's responsibility to downgrade to
// in-memory-only per spec §7 — Store just reports the error.
func (o *ObjDir) Store(k Key, v *Value) error {
	dest := o.pathFor(k)
	if err := common.MkdirForFile(dest); err != nil {
		return err
	}

	lock, err := lockdir.AcquireLockDir(dest)
	if err != nil {
		return fmt.Errorf("acquiring lock for %s: %w", dest, err)
	}
	defer lock.Unlock()

	f, err := common.OpenTempFile(dest)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	writeValue(w, v)
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), dest)
}

// Load reads back a previously stored entry, returning ok=false on any
// missing or malformed file (treated as a plain cache miss, never fatal).
func (o *ObjDir) Load(k Key) (*Value, bool) {
	f, err := os.Open(o.pathFor(k))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	v, err := readValue(bufio.NewScanner(f))
	if err != nil {
		return nil, false
	}
	return v, true
}

func writeValue(w *bufio.Writer, v *Value) {
	fmt.Fprintf(w, "CONDITION_INDEPENDENT=%t\n", v.ConditionIndependent)
	fmt.Fprintf(w, "READ_SET=%s\n", strings.Join(v.ReadSet, ","))

	fmt.Fprintf(w, "ACTIVE_LINES=%d\n", len(v.ActiveLines))
	for _, r := range v.ActiveLines {
		fmt.Fprintf(w, "LINE_RANGE=%d,%d\n", r.Start, r.End)
	}

	fmt.Fprintf(w, "ACTIVE_INCLUDES=%d\n", len(v.ActiveIncludes))
	for _, inc := range v.ActiveIncludes {
		fmt.Fprintf(w, "INCLUDE=%d|%t|%t|%s|%s\n", inc.Line, inc.Quoted, inc.Computed, inc.HeaderName, string(inc.Payload))
	}

	fmt.Fprintf(w, "ACTIVE_MAGIC=%d\n", len(v.ActiveMagic))
	for _, m := range v.ActiveMagic {
		fmt.Fprintf(w, "MAGIC=%d|%s|%s\n", m.Line, m.Key, m.Value)
	}

	fmt.Fprintf(w, "DEFINES_DELTA=%d\n", len(v.DefinesDelta))
	for _, op := range v.DefinesDelta {
		if op.Op == macro.OpUndef {
			fmt.Fprintf(w, "UNDEF=%s\n", op.Name)
			continue
		}
		fmt.Fprintf(w, "DEFINE=%s|%t|%s|%t|%s\n", op.Name, op.Macro.IsFunctionLike(), strings.Join(op.Macro.Params, ","), op.Macro.Variadic, string(op.Macro.Body))
	}
}

func readValue(sc *bufio.Scanner) (*Value, error) {
	v := &Value{}
	for sc.Scan() {
		line := sc.Text()
		key, rest, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "CONDITION_INDEPENDENT":
			v.ConditionIndependent = rest == "true"
		case "READ_SET":
			if rest != "" {
				v.ReadSet = strings.Split(rest, ",")
			}
		case "LINE_RANGE":
			parts := strings.SplitN(rest, ",", 2)
			if len(parts) == 2 {
				start, _ := strconv.Atoi(parts[0])
				end, _ := strconv.Atoi(parts[1])
				v.ActiveLines = append(v.ActiveLines, preprocess.LineRange{Start: start, End: end})
			}
		case "INCLUDE":
			if inc, ok := parseIncludeLine(rest); ok {
				v.ActiveIncludes = append(v.ActiveIncludes, inc)
			}
		case "MAGIC":
			if m, ok := parseMagicLine(rest); ok {
				v.ActiveMagic = append(v.ActiveMagic, m)
			}
		case "UNDEF":
			v.DefinesDelta = append(v.DefinesDelta, macro.DefinesDeltaOp{Op: macro.OpUndef, Name: rest})
		case "DEFINE":
			if op, ok := parseDefineLine(rest); ok {
				v.DefinesDelta = append(v.DefinesDelta, op)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

func parseIncludeLine(rest string) (preprocess.IncludeRef, bool) {
	parts := strings.SplitN(rest, "|", 5)
	if len(parts) != 5 {
		return preprocess.IncludeRef{}, false
	}
	line, _ := strconv.Atoi(parts[0])
	inc := preprocess.IncludeRef{
		Line:       line,
		Quoted:     parts[1] == "true",
		Computed:   parts[2] == "true",
		HeaderName: parts[3],
	}
	if parts[4] != "" {
		inc.Payload = []byte(parts[4])
	}
	return inc, true
}

func parseMagicLine(rest string) (analyzer.MagicToken, bool) {
	parts := strings.SplitN(rest, "|", 3)
	if len(parts) != 3 {
		return analyzer.MagicToken{}, false
	}
	line, _ := strconv.Atoi(parts[0])
	return analyzer.MagicToken{Line: line, Key: analyzer.MagicKey(parts[1]), Value: parts[2]}, true
}

func parseDefineLine(rest string) (macro.DefinesDeltaOp, bool) {
	parts := strings.SplitN(rest, "|", 5)
	if len(parts) != 5 {
		return macro.DefinesDeltaOp{}, false
	}
	name := parts[0]
	isFunctionLike := parts[1] == "true"
	var params []string
	if isFunctionLike {
		params = []string{} // function-like with possibly zero params: non-nil distinguishes it from object-like
		if parts[2] != "" {
			params = strings.Split(parts[2], ",")
		}
	}
	m := &macro.Macro{
		Name:     name,
		Params:   params,
		Variadic: parts[3] == "true",
		Body:     []byte(parts[4]),
	}
	return macro.DefinesDeltaOp{Op: macro.OpDefine, Name: name, Macro: m}, true
}
