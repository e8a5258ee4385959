package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"github.com/cminus-lang/cminusc/pkg/codegen"
	"github.com/cminus-lang/cminusc/pkg/diag"
	"github.com/cminus-lang/cminusc/pkg/lexer"
	"github.com/cminus-lang/cminusc/pkg/parser"
	"github.com/cminus-lang/cminusc/pkg/regalloc"
	"github.com/cminus-lang/cminusc/pkg/riscv"
	"github.com/cminus-lang/cminusc/pkg/sema"
	"github.com/cminus-lang/cminusc/pkg/symtab"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

var Description = strings.ReplaceAll(`
The C-minus Compiler takes a single C-minus translation unit and translates it into
RISC-V (rv32i with the M extension) assembly, suitable for assembling and running on
a standard RARS/Spike simulator. The process goes through scanning, parsing, two-pass
semantic analysis, IR code generation, and Chaitin-Briggs register allocation.
`, "\n", " ")

var CminusCompiler = cli.New(Description).
	WithArg(cli.NewArg("source", "The C-minus (.cm) source file to be compiled")).
	WithOption(cli.NewOption("o", "The compiled assembly output (default: asm/<basename>.asm)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("ts", "Traces the scanner: prints the token stream").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("tp", "Traces the parser: prints the syntax tree").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("ta", "Traces the analyzer: prints the final symbol table").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("tc", "Traces the code generator: includes comments in the emitted assembly").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return 1
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return 1
	}

	if _, enabled := options["ts"]; enabled {
		for _, tok := range lexer.Scan(string(content)) {
			fmt.Printf("%d\t%s\t%q\n", tok.Line, tok.Kind, tok.Lexeme)
		}
	}

	outputPath := options["o"]
	if outputPath == "" {
		base := strings.TrimSuffix(path.Base(args[0]), path.Ext(args[0]))
		outputPath = filepath.Join("asm", base+".asm")
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Printf("ERROR: Unable to create output directory: %s\n", err)
			return 1
		}
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return 1
	}
	defer output.Close()

	// Any failure from this point on leaves a partial output file behind;
	// fail cleans it up before returning (spec.md §6's "partial file is
	// removed" requirement).
	fail := func(format string, args ...any) int {
		fmt.Printf("ERROR: "+format+"\n", args...)
		output.Close()
		os.Remove(outputPath)
		return 1
	}

	p := parser.NewParser(bytes.NewReader(content))
	a, root, err := p.Parse()
	if err != nil {
		return fail("Unable to complete 'parsing' pass: %s", err)
	}

	if _, enabled := options["tp"]; enabled {
		printTree(a, root, 0)
	}

	sink := diag.NewSink(os.Stdout)
	table := symtab.New()

	sema.Analyze(a, table, sink, root)
	if sink.Failed() {
		return fail("compilation failed during semantic analysis")
	}

	if _, enabled := options["ta"]; enabled {
		table.Dump(os.Stdout)
	}

	module := codegen.Generate(a, table, root)

	result := regalloc.Allocate(module, sink)
	if sink.Failed() {
		return fail("compilation failed during register allocation")
	}

	_, showComments := options["tc"]
	compiled, err := riscv.Emit(module, result, showComments)
	if err != nil {
		return fail("Unable to complete 'codegen' pass: %s", err)
	}

	if _, err := output.WriteString(compiled); err != nil {
		return fail("Unable to write output file: %s", err)
	}

	return 0
}

// printTree renders the syntax tree for the `--tp` trace: one indented line
// per node, recursing into Children[0..2] before following Next, so a
// sibling list prints as a flat run at its own depth rather than a deepening
// staircase.
func printTree(a *tree.Arena, id tree.NodeID, depth int) {
	for ; id != tree.NilNode; id = a.Get(id).Next {
		n := a.Get(id)
		indent := strings.Repeat("  ", depth)

		switch {
		case n.Name != "":
			fmt.Printf("%s%s '%s' (line %d)\n", indent, n.Kind, n.Name, n.Line)
		case n.Kind == tree.NConst:
			fmt.Printf("%s%s %d (line %d)\n", indent, n.Kind, n.Value, n.Line)
		case n.Kind == tree.NOp:
			fmt.Printf("%s%s '%s' (line %d)\n", indent, n.Kind, n.Op, n.Line)
		default:
			fmt.Printf("%s%s (line %d)\n", indent, n.Kind, n.Line)
		}

		for _, child := range n.Children {
			printTree(a, child, depth+1)
		}
	}
}

func main() { os.Exit(CminusCompiler.Run(os.Args, os.Stdout)) }
