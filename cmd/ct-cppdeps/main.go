// Command ct-cppdeps is the analysis-engine CLI: it resolves, for each
// positional source file, the header-dependency closure, implied
// sources, and aggregated magic build flags, printing one resolved
// header path per line on stdout and diagnostics on stderr (spec §6).
//
// Flag surface built on spf13/cobra + spf13/pflag, the same CLI toolkit
// raymyers-ralph-cc-go's cmd/ralph-cc uses, in place of the teacher's
// own stdlib flag.FlagSet-based flag+env combinator (only its env-var
// readers, common.EnvDuration/EnvBool, remain, used by internal/lockdir's
// environment-variable tuning, a narrower surface than the CLI proper).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ct-build/ct-cppdeps/internal/analyzer"
	"github.com/ct-build/ct-cppdeps/internal/common"
	"github.com/ct-build/ct-cppdeps/internal/compiledb"
	"github.com/ct-build/ct-cppdeps/internal/cxxrun"
	"github.com/ct-build/ct-cppdeps/internal/diag"
	"github.com/ct-build/ct-cppdeps/internal/engine"
	"github.com/ct-build/ct-cppdeps/internal/pkgconfig"
	"github.com/ct-build/ct-cppdeps/internal/variant"
	"github.com/ct-build/ct-cppdeps/internal/walker"
)

type options struct {
	headerDeps     string
	variantName    string
	variantFile    string
	includeDirs    []string
	cpp            string
	cc             string
	cxx            string
	cppFlags       []string
	cxxFlags       []string
	cFlags         []string
	pkgConfigPkgs  []string
	objDir         string
	compileCommand bool
	verbosity      int
	quiet          bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options

	rootCmd := &cobra.Command{
		Use:     "ct-cppdeps [sources...]",
		Short:   "Resolve C/C++ header dependencies and magic build-flag annotations",
		Version: common.GetVersion(),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, args, &opts)
		},
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.headerDeps, "headerdeps", "direct", "dependency resolution mode: direct|cpp")
	flags.StringVar(&opts.variantName, "variant", "", "named compiler/flag profile to select from --variant-file")
	flags.StringVar(&opts.variantFile, "variant-file", "", "YAML file of named variant profiles (see internal/variant)")
	flags.StringArrayVar(&opts.includeDirs, "include", nil, "additional include search path (repeatable)")
	flags.StringVar(&opts.cpp, "CPP", "cpp", "preprocessor invocation for --headerdeps=cpp")
	flags.StringVar(&opts.cc, "CC", "cc", "C compiler override")
	flags.StringVar(&opts.cxx, "CXX", "c++", "C++ compiler override")
	flags.StringArrayVar(&opts.cppFlags, "CPPFLAGS", nil, "extra preprocessor flags")
	flags.StringArrayVar(&opts.cxxFlags, "CXXFLAGS", nil, "extra C++ compile flags")
	flags.StringArrayVar(&opts.cFlags, "CFLAGS", nil, "extra C compile flags")
	flags.StringArrayVar(&opts.pkgConfigPkgs, "pkg-config", nil, "additional pkg-config package (repeatable)")
	flags.StringVar(&opts.objDir, "objdir", "", "object directory for persisted cache entries")
	flags.BoolVar(&opts.compileCommand, "compile-commands", false, "emit compile_commands.json to stdout instead of a header list")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase verbosity (repeatable)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress informational log output (diagnostics are still printed)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ct-cppdeps:", err)
		return 1
	}
	return exitCode
}

// exitCode is set by runAnalysis since cobra's RunE only reports
// success/failure, not the "succeeded with warnings vs failed" spec §7
// distinction this CLI needs to report via process exit status.
var exitCode int

func runAnalysis(cmd *cobra.Command, sources []string, opts *options) error {
	verbosity := opts.verbosity
	if opts.quiet {
		verbosity = -1
	}
	logger, err := common.MakeLogger("stderr", int64(verbosity), false, false)
	if err != nil {
		return err
	}

	profile, err := resolveVariant(opts)
	if err != nil {
		return err
	}
	profile.CPPFlags = append(profile.CPPFlags, opts.cppFlags...)
	profile.CXXFlags = append(profile.CXXFlags, opts.cxxFlags...)
	profile.CFlags = append(profile.CFlags, opts.cFlags...)

	dirs := walker.IncludeDirs{User: opts.includeDirs, Quote: profile.Includes}
	if opts.headerDeps == "cpp" {
		if def, err := cxxrun.DefaultIncludeDirs(opts.cpp); err == nil {
			dirs.System = append(dirs.System, def.System...)
			dirs.Quote = append(dirs.Quote, def.Quote...)
		}
	}

	eng, err := engine.New(engine.Options{
		Variant:    profile,
		IncludeDir: dirs,
		ObjDir:     opts.objDir,
		Verbosity:  verbosity,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	var db compiledb.Builder
	hasFatal := false
	cwd, _ := os.Getwd()
	cxxArgs := cxxRunArgs(opts, profile)

	for _, src := range sources {
		var closure *walker.Closure
		var diags []*diag.Diagnostic
		if opts.headerDeps == "cpp" {
			c, err := cxxrun.Closure(opts.cpp, cxxArgs, src)
			if err != nil {
				d := diag.Wrap(err, diag.TagExternalTool, src, 0, "cpp -MM headerdeps delegate failed")
				fmt.Fprintln(os.Stderr, d.Error())
				hasFatal = true
				continue
			}
			closure = c
		} else {
			closure, diags = eng.AnalyzeSource(src)
		}

		for _, d := range diags {
			if d.Severity == diag.SeverityFatal {
				hasFatal = true
			}
			fmt.Fprintln(os.Stderr, d.Error())
		}

		var pkgFlags []pkgconfig.Flags
		for _, pkg := range append(append([]string(nil), opts.pkgConfigPkgs...), closure.MagicFlags[analyzer.KeyPkgConfig]...) {
			flags, err := pkgconfig.Resolve(pkg)
			if err != nil {
				fmt.Fprintln(os.Stderr, "ct-cppdeps: pkg-config failed for", pkg, ":", err)
				continue
			}
			pkgFlags = append(pkgFlags, flags)
		}

		if opts.compileCommand {
			db.Add(cwd, compileCommandFor(opts, profile, closure, src, pkgFlags), src)
			continue
		}

		for _, f := range closure.Files {
			if f != src {
				fmt.Println(f)
			}
		}
		for _, f := range closure.ImpliedSources {
			fmt.Println(f)
		}
		for _, pf := range pkgFlags {
			if len(pf.CXXFlags) == 0 && len(pf.LinkFlags) == 0 {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: pkg-config %s: %s\n", src, pf.Package, strings.Join(append(append([]string(nil), pf.CXXFlags...), pf.LinkFlags...), " "))
		}
		for _, u := range closure.Unresolved {
			fmt.Fprintf(os.Stderr, "%s:%d: unresolved include %q\n", u.FromFile, u.Line, u.HeaderName)
		}
	}

	if opts.compileCommand {
		raw, err := db.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
	}

	if hasFatal {
		exitCode = 1
	}
	return nil
}

// compileCommandFor assembles the compiler invocation recorded in
// compile_commands.json: the C compiler for .c sources, the C++
// compiler otherwise, the variant/CLI flags, and any magic CXXFLAGS/
// CFLAGS discovered in the source's own closure (spec §4.7).
func compileCommandFor(opts *options, profile variant.Profile, closure *walker.Closure, src string, pkgFlags []pkgconfig.Flags) string {
	compiler := opts.cxx
	langFlags := profile.CXXFlags
	magicKey := analyzer.KeyCXXFLAGS
	if strings.HasSuffix(src, ".c") {
		compiler = opts.cc
		langFlags = profile.CFlags
		magicKey = analyzer.KeyCFLAGS
	}

	parts := []string{compiler}
	parts = append(parts, profile.CPPFlags...)
	parts = append(parts, langFlags...)
	parts = append(parts, closure.MagicFlags[magicKey]...)
	for _, dir := range opts.includeDirs {
		parts = append(parts, "-I"+dir)
	}
	// pkg-config's --cflags output (spec §4.7: "fed back as CXX/LINK
	// flags") belongs on the compile side, its --libs output on the link
	// side; compile_commands.json models one invocation, so both are
	// appended to the same command line.
	for _, pf := range pkgFlags {
		parts = append(parts, pf.CXXFlags...)
	}
	parts = append(parts, "-c", src)
	for _, pf := range pkgFlags {
		parts = append(parts, pf.LinkFlags...)
	}
	return strings.Join(parts, " ")
}

// cxxRunArgs builds the argv prefix cxxrun.Closure passes to $CPP ahead of
// its own "-MM -MF <tmp> -c <src>" suffix: include search paths and
// preprocessor-visible defines, the subset of the variant profile that
// actually affects which headers -MM reports.
func cxxRunArgs(opts *options, profile variant.Profile) []string {
	var args []string
	for _, dir := range opts.includeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, profile.CPPFlags...)
	for name, body := range profile.Defines {
		if body == "" {
			args = append(args, "-D"+name)
		} else {
			args = append(args, "-D"+name+"="+body)
		}
	}
	return args
}

func resolveVariant(opts *options) (variant.Profile, error) {
	if opts.variantFile == "" || opts.variantName == "" {
		return variant.Profile{}, nil
	}
	profiles, err := variant.Load(opts.variantFile)
	if err != nil {
		return variant.Profile{}, err
	}
	p, ok := profiles[opts.variantName]
	if !ok {
		return variant.Profile{}, fmt.Errorf("unknown variant %q in %s", opts.variantName, opts.variantFile)
	}
	return p, nil
}
