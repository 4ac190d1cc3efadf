package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/paul-lee-attorney/sm4trace/codec"
)

const stdKey = "0123456789abcdeffedcba9876543210"

func TestRunDecryptArgument(t *testing.T) {
	var out bytes.Buffer
	args := []string{"-d", "-key", stdKey, "-padding", "None", "-encoding", "ascii", "681edf34d206965e86b3e94f536e4246"}
	if err := run(args, strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}
	var want []rune
	for _, b := range mustHex(stdKey) {
		want = append(want, rune(b))
	}
	if got := out.String(); got != string(want)+"\n" {
		t.Errorf("output = %q", got)
	}
}

func mustHex(s string) []byte {
	b, err := codec.HexToBytes(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestRunDecryptStdin(t *testing.T) {
	var out bytes.Buffer
	args := []string{"-d", "-key", stdKey, "-mode", "CBC", "-iv", "000102030405060708090a0b0c0d0e0f", "-format", "base64"}
	in := strings.NewReader("WTp8kyo7UEH6vNync0/u+LBqMM+nPlQqgmjWGrR+8oo=\n")
	if err := run(args, in, &out); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Hello, SM4 trace!\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRunTraceModes(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-key", stdKey, "-trace", "rounds", "abc"}, nil, &out); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{"rk[00] = f12186f9", "rk[31] = 9124a012", "block #0", " 31  "} {
		if !strings.Contains(s, want) {
			t.Errorf("rounds output lacks %q", want)
		}
	}

	out.Reset()
	if err := run([]string{"-key", stdKey, "-trace", "json", "abc"}, nil, &out); err != nil {
		t.Fatal(err)
	}
	var res struct {
		Output     string `json:"output"`
		TotalSteps int    `json:"totalSteps"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Output) != 32 || res.TotalSteps != 32 {
		t.Errorf("json result = %+v", res)
	}
}

func TestRunGenerate(t *testing.T) {
	for _, what := range []string{"key", "iv"} {
		var out bytes.Buffer
		if err := run([]string{"-gen", what}, nil, &out); err != nil {
			t.Fatal(err)
		}
		s := strings.TrimSpace(out.String())
		if b, err := codec.HexToBytes(s); err != nil || len(b) != 16 || len(s) != 32 {
			t.Errorf("-gen %s printed %q", what, s)
		}
	}
	if err := run([]string{"-gen", "salt"}, nil, &bytes.Buffer{}); err == nil {
		t.Error("-gen salt accepted")
	}
}

func TestRunErrors(t *testing.T) {
	for _, args := range [][]string{
		{"text"},
		{"-key", "00", "text"},
		{"-key", stdKey, "-trace", "all", "text"},
		{"-key", stdKey, "a", "b"},
		{"-key", stdKey, "-mode", "CTR", "text"},
	} {
		if err := run(args, strings.NewReader(""), &bytes.Buffer{}); err == nil {
			t.Errorf("run(%q) succeeded", args)
		}
	}
}
