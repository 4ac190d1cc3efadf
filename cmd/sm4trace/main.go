// Command sm4trace encrypts or decrypts one message with SM4 and prints the
// result, optionally followed by the key schedule and the per-round trace.
//
//	sm4trace -key 0123456789abcdeffedcba9876543210 "hello"
//	echo 681edf34d206965e86b3e94f536e4246 | sm4trace -d -padding None -key ...
//	sm4trace -gen key
package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/paul-lee-attorney/sm4trace/codec"
	"github.com/paul-lee-attorney/sm4trace/pipeline"
	"github.com/paul-lee-attorney/sm4trace/sm4"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sm4trace: ")
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	def := pipeline.DefaultConfig()
	fs := flag.NewFlagSet("sm4trace", flag.ContinueOnError)
	var (
		decrypt = fs.Bool("d", false, "decrypt instead of encrypt")
		key     = fs.String("key", "", "128-bit key as 32 hex digits")
		iv      = fs.String("iv", "", "128-bit IV as 32 hex digits (CBC only)")
		mode    = fs.String("mode", def.Mode, "block mode: ECB or CBC")
		pad     = fs.String("padding", def.Padding, "padding: PKCS7 or None")
		format  = fs.String("format", def.OutputFormat, "ciphertext format: hex or base64")
		enc     = fs.String("encoding", def.Encoding, "plaintext encoding: utf8 or ascii")
		trace   = fs.String("trace", "none", "trace output: none, summary, rounds or json")
		gen     = fs.String("gen", "", "print a random key or iv and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *gen != "" {
		return generate(stdout, *gen)
	}
	if *key == "" {
		return errors.New("-key is required")
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("expected at most one text argument, got %d", fs.NArg())
	}

	text, err := readText(fs, stdin)
	if err != nil {
		return err
	}

	cfg := pipeline.Config{Mode: *mode, Padding: *pad, OutputFormat: *format, Encoding: *enc}
	fn := pipeline.Encrypt
	if *decrypt {
		fn = pipeline.Decrypt
	}
	res, err := fn(text, *key, cfg, *iv)
	if err != nil {
		return err
	}

	switch *trace {
	case "none":
		fmt.Fprintln(stdout, res.Output)
	case "summary":
		fmt.Fprintln(stdout, res.Output)
		printSummary(stdout, res)
	case "rounds":
		fmt.Fprintln(stdout, res.Output)
		printSummary(stdout, res)
		printRounds(stdout, res)
	case "json":
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(b))
	default:
		return fmt.Errorf("unknown -trace value %q", *trace)
	}
	return nil
}

func generate(w io.Writer, what string) error {
	if what != "key" && what != "iv" {
		return fmt.Errorf("-gen must be key or iv, got %q", what)
	}
	b := make([]byte, sm4.KeySize)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	fmt.Fprintln(w, codec.BytesToHex(b))
	return nil
}

// readText returns the positional argument, or all of stdin without its
// trailing line break.
func readText(fs *flag.FlagSet, stdin io.Reader) (string, error) {
	if fs.NArg() == 1 {
		return fs.Arg(0), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	s := strings.TrimSuffix(string(b), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

func printSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "\n%s %s, %d block(s), %d rounds\n", res.Mode, res.Direction, len(res.Blocks), res.TotalSteps)
	for _, s := range res.Steps {
		fmt.Fprintf(w, "  %d. %-20s %s\n", s.ID, s.Title, s.Description)
	}
	fmt.Fprintln(w, "\nround keys:")
	for i, k := range res.RoundKeys.Hex() {
		fmt.Fprintf(w, "  rk[%02d] = %s\n", i, k)
	}
	fmt.Fprintln(w, "\nblocks:")
	for _, b := range res.Blocks {
		fmt.Fprintf(w, "  #%d %s -> %s\n", b.Index, b.Input, b.Output)
	}
}

func printRounds(w io.Writer, res *pipeline.Result) {
	for _, b := range res.Blocks {
		fmt.Fprintf(w, "\nblock #%d engine input %s\n", b.Index, b.EngineInput)
		fmt.Fprintln(w, "  rnd  rk        sbox      L         X0       X1       X2       X3")
		for _, r := range b.Rounds {
			fmt.Fprintf(w, "  %3d  %08x  %08x  %08x  %08x %08x %08x %08x\n",
				r.Round, r.RoundKey, r.SBoxOut, r.LinearOut,
				r.Output[0], r.Output[1], r.Output[2], r.Output[3])
		}
		fmt.Fprintf(w, "  engine output %s\n", b.EngineOutput)
	}
}
