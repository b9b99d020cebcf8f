/*
Parsekit starts an interactive parsekit session.

It reads lines of source text from stdin and, for each one, prints the
concrete syntax tree produced by parsing it against the bundled sum
grammar, the abstract syntax tree produced by running the configured
transform table over that CST, and any errors collected along the way. To
exit the interpreter, type "QUIT" or send EOF (Ctrl+D).

Usage:

	parsekit [flags]

The flags are:

	-v, --version
		Give the current version of parsekit and then exit.

	-d, --direct
		Force reading directly from stdin instead of using GNU readline
		based routines for reading input, even when stdin is a tty.
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dekarrin/parsekit/internal/demogrammar"
	"github.com/dekarrin/parsekit/parse"
	"github.com/dekarrin/parsekit/parser"
	"github.com/dekarrin/parsekit/rpcserver"
	"github.com/dekarrin/parsekit/transform"
	"github.com/spf13/pflag"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of parsekit and then exit.")
	forceDirect = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("parsekit (parsekit v%s)\n", rpcserver.Version)
		return
	}

	reader, err := newCommandReader(*forceDirect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	g, table := demogrammar.Build()

	fmt.Printf("parsekit REPL - grammar %q loaded. Type QUIT to exit.\n", demogrammar.Name)

	for {
		line, err := reader.ReadCommand()
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return
			}
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			return
		}

		if line == "QUIT" || line == "quit" {
			return
		}

		runOne(g, table, line)
	}
}

func runOne(g *parser.Grammar, table transform.Table, line string) {
	root, err := parse.Parse(g, line)
	if root == nil {
		fmt.Printf("parse error: %s\n", err)
		return
	}

	fmt.Println("CST:")
	fmt.Println(root.AsSxpr(2, 80))

	ast := transform.Transform(root, table)
	fmt.Println("AST:")
	fmt.Println(ast.AsSxpr(2, 80))

	for _, e := range ast.Errors.All() {
		fmt.Printf("%s: %s\n", e.Severity, e.FullMessage())
	}
}
