// Command toyulc is the thin CLI wrapper around toyul.Transpile. Grounded
// on cmd/tolang/tolang.go's flag.StringVar/BoolVar option parsing and its
// mode-selection-then-single-write shape (compile modes write one artifact
// and return, rather than falling through into a REPL as the plain
// interpreter path does).
package main

import (
	"context"
	"fmt"
	"os"

	"flag"

	"github.com/tos-network/toyul"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		optOut      string
		optABI      string
		optPick     string
		optHardFork string
		optBuiltins string
		optDebug    bool
		optMetadata bool
	)
	flag.StringVar(&optOut, "o", "", "write rewritten Yul source to file (default: stdout)")
	flag.StringVar(&optABI, "abi", "", "also write ABI output: json, sig, or interface")
	flag.StringVar(&optPick, "pick", "", "extract a single object block by name after rewriting")
	flag.StringVar(&optHardFork, "evm", "", "target hard-fork name (default: cancun)")
	flag.StringVar(&optBuiltins, "builtins", "none", "preloaded builtin level: none, support-only, full")
	flag.BoolVar(&optDebug, "debug", false, "embed file:line in synthesized revert messages")
	flag.BoolVar(&optMetadata, "metadata", false, "append a .metadata digest data block")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: toyulc [options] input.yul

Options:
  -o file        write rewritten Yul source to file (default: stdout)
  -abi kind      also write ABI output: json, sig, or interface
  -pick name     extract a single object block by name after rewriting
  -evm name      target hard-fork name (default: cancun)
  -builtins lvl  preloaded builtin level: none, support-only, full
  -debug         embed file:line in synthesized revert messages
  -metadata      append a .metadata digest data block`)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	input := flag.Arg(0)
	src, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	res, err := toyul.Transpile(context.Background(), src, toyul.Options{
		Filename:       input,
		Debug:          optDebug,
		HardFork:       optHardFork,
		BuiltinLevel:   optBuiltins,
		Pick:           optPick,
		MetadataDigest: optMetadata,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if res.Diags.HasErrors() {
		fmt.Fprintln(os.Stderr, res.Diags)
		return 1
	}

	if err := writeOutput(optOut, res.Source); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if optABI != "" {
		if err := writeABI(optABI, res); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

func writeOutput(path, text string) error {
	if path == "" {
		_, err := fmt.Print(text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func writeABI(kind string, res *toyul.Result) error {
	for name, c := range res.Collectors {
		switch kind {
		case "json":
			b, err := c.JSON()
			if err != nil {
				return fmt.Errorf("abi json for %s: %w", name, err)
			}
			fmt.Printf("// %s\n%s\n", name, b)
		case "sig":
			for _, sig := range c.Signatures() {
				fmt.Println(sig)
			}
		case "interface":
			fmt.Print(c.InterfaceSource())
		default:
			return fmt.Errorf("unknown -abi kind %q (want json, sig, or interface)", kind)
		}
	}
	return nil
}
