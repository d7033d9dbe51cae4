// Command scriptgen generates a host-binding façade from a YAML
// manifest, grounded on the `ext check`/build flow inside funxy's own
// CLI entry point.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vantage-games/scriptvm/internal/scriptgen"
)

func main() {
	manifestPath := flag.String("manifest", "scriptgen.yaml", "path to the binding manifest")
	outPath := flag.String("out", "", "output Go source file (default: stdout)")
	checkOnly := flag.Bool("check", false, "only validate the manifest against the target package; do not generate")
	flag.Parse()

	m, err := scriptgen.LoadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	resolved, err := scriptgen.Inspect(m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *checkOnly {
		fmt.Printf("ok: %d type(s) resolved against %s\n", len(resolved), m.Package)
		return
	}

	source, err := scriptgen.Generate(m, resolved)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *outPath == "" {
		os.Stdout.Write(source)
		return
	}
	if err := os.WriteFile(*outPath, source, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
