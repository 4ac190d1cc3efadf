/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pipeline is the entry point of the module: it turns text, a hex key and a
// Config into SM4 ciphertext (or back) and returns the complete round trace together
// with a six-step log meant for display.
//
// Every call allocates its own buffers, round keys and trace, so concurrent calls need
// no locking. Nothing here logs; key, IV and message values never appear in the step
// log or in error messages.
package pipeline

import (
	"fmt"
	"time"

	"github.com/paul-lee-attorney/sm4trace/codec"
	"github.com/paul-lee-attorney/sm4trace/modes"
	"github.com/paul-lee-attorney/sm4trace/padding"
	"github.com/paul-lee-attorney/sm4trace/sm4"
)

// Step is one entry of the presentation log.
type Step struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Time        time.Time      `json:"time"`
	Data        map[string]any `json:"data,omitempty"`
}

// Result is everything one Encrypt or Decrypt call produced.
type Result struct {
	Direction modes.Direction `json:"direction"`
	Mode      modes.Mode      `json:"mode"`
	// Output is the ciphertext in the configured format after Encrypt, or the
	// plaintext in the configured encoding after Decrypt.
	Output     string         `json:"output"`
	FinalBytes codec.HexBytes `json:"finalBytes"`
	// ProcessedInput is what entered the mode layer: the padded plaintext after
	// Encrypt, the decoded ciphertext after Decrypt.
	ProcessedInput codec.HexBytes      `json:"processedInput"`
	IV             codec.HexBytes      `json:"iv,omitempty"`
	RoundKeys      sm4.RoundKeys       `json:"roundKeys"`
	Blocks         []modes.BlockResult `json:"blocks"`
	Steps          []Step              `json:"steps"`
	// TotalSteps counts the round states across all blocks.
	TotalSteps int `json:"totalSteps"`
}

// Option customizes a single call.
type Option func(*run)

// WithClock sets the clock used to timestamp steps.
func WithClock(now func() time.Time) Option {
	return func(r *run) {
		r.now = now
	}
}

type run struct {
	now   func() time.Time
	steps []Step
}

func (r *run) step(title, description string, data map[string]any) {
	r.steps = append(r.steps, Step{
		ID:          len(r.steps) + 1,
		Title:       title,
		Description: description,
		Time:        r.now(),
		Data:        data,
	})
}

// Encrypt encrypts plaintext. ivHex is only read in CBC mode.
func Encrypt(plaintext, keyHex string, cfg Config, ivHex string, opts ...Option) (*Result, error) {
	return process(modes.Encrypt, plaintext, keyHex, cfg, ivHex, opts)
}

// Decrypt decrypts ciphertext given in cfg.OutputFormat and decodes the recovered
// bytes with cfg.Encoding. ivHex is only read in CBC mode.
func Decrypt(ciphertext, keyHex string, cfg Config, ivHex string, opts ...Option) (*Result, error) {
	return process(modes.Decrypt, ciphertext, keyHex, cfg, ivHex, opts)
}

// parseBlockHex accepts exactly 32 hex digits once non-hex characters are removed.
func parseBlockHex(s string) ([]byte, int, error) {
	clean := codec.CleanHex(s)
	if len(clean) != 2*sm4.BlockSize {
		return nil, len(clean), nil
	}
	b, err := codec.HexToBytes(clean)
	return b, len(clean), err
}

func parseKey(keyHex string) ([]byte, error) {
	key, n, err := parseBlockHex(keyHex)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, KeyLengthError(n)
	}
	return key, nil
}

func parseIV(ivHex string) ([]byte, error) {
	iv, n, err := parseBlockHex(ivHex)
	if err != nil {
		return nil, err
	}
	if iv == nil {
		return nil, IVLengthError(n)
	}
	return iv, nil
}

func process(dir modes.Direction, text, keyHex string, cfg Config, ivHex string, opts []Option) (*Result, error) {
	r := &run{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	s, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	key, err := parseKey(keyHex)
	if err != nil {
		return nil, err
	}
	var iv []byte
	if s.mode == modes.CBC {
		if iv, err = parseIV(ivHex); err != nil {
			return nil, err
		}
	}
	r.step("Configuration Check",
		fmt.Sprintf("Validated %v mode, %v padding, %v output and %v text", s.mode, s.scheme, s.format, s.encoding),
		map[string]any{"mode": s.mode.String(), "padding": s.scheme.String(),
			"outputFormat": s.format.String(), "encoding": s.encoding.String(), "iv": iv != nil})

	var input []byte
	if dir == modes.Encrypt {
		raw := codec.TextToBytes(text, s.encoding)
		r.step("Input Processing",
			fmt.Sprintf("Converted plaintext to %d bytes using %v encoding", len(raw), s.encoding),
			map[string]any{"encoding": s.encoding.String(), "byteLength": len(raw)})

		if input, err = padding.Pad(raw, sm4.BlockSize, s.scheme); err != nil {
			return nil, fmt.Errorf("pipeline: padding application: %w", err)
		}
		r.step("Padding Application",
			fmt.Sprintf("Applied %v padding to make the data a multiple of %d bytes", s.scheme, sm4.BlockSize),
			map[string]any{"padding": s.scheme.String(), "originalLength": len(raw), "paddedLength": len(input)})
	} else {
		if input, err = codec.Decode(text, s.format); err != nil {
			return nil, fmt.Errorf("pipeline: input processing: %w", err)
		}
		r.step("Input Processing",
			fmt.Sprintf("Decoded %v ciphertext to %d bytes", s.format, len(input)),
			map[string]any{"format": s.format.String(), "byteLength": len(input)})
	}

	rk, err := sm4.ExpandKey(key)
	if err != nil {
		return nil, fmt.Errorf("pipeline: key expansion: %w", err)
	}
	r.step("Key Expansion",
		fmt.Sprintf("Generated %d round keys from the master key using the SM4 key schedule", sm4.Rounds),
		map[string]any{"roundKeys": sm4.Rounds})

	var out *modes.Output
	if len(input) == 0 && s.scheme == padding.None {
		// Zero bytes is block-aligned; there is nothing for the mode layer to do.
		out = &modes.Output{Bytes: []byte{}}
	} else if out, err = modes.Process(s.mode, input, rk, iv, dir); err != nil {
		return nil, fmt.Errorf("pipeline: block processing: %w", err)
	}
	r.step("Block Processing",
		fmt.Sprintf("Processed %d blocks using %v mode (%v)", len(out.Blocks), s.mode, dir),
		map[string]any{"blockCount": len(out.Blocks), "mode": s.mode.String(), "direction": dir.String()})

	res := &Result{
		Direction:      dir,
		Mode:           s.mode,
		ProcessedInput: input,
		IV:             iv,
		RoundKeys:      *rk,
		Blocks:         out.Blocks,
	}
	for _, b := range out.Blocks {
		res.TotalSteps += len(b.Rounds)
	}

	if dir == modes.Encrypt {
		res.FinalBytes = out.Bytes
		res.Output = codec.Encode(out.Bytes, s.format)
		r.step("Output Formatting",
			fmt.Sprintf("Converted %d encrypted bytes to %v", len(out.Bytes), s.format),
			map[string]any{"format": s.format.String(), "byteLength": len(out.Bytes)})
	} else {
		plain, err := padding.Unpad(out.Bytes, sm4.BlockSize, s.scheme)
		if err != nil {
			return nil, fmt.Errorf("pipeline: padding removal: %w", err)
		}
		r.step("Padding Removal",
			fmt.Sprintf("Removed %v padding: %d bytes remain", s.scheme, len(plain)),
			map[string]any{"padding": s.scheme.String(), "paddedLength": len(out.Bytes), "length": len(plain)})

		res.FinalBytes = plain
		res.Output = codec.BytesToText(plain, s.encoding)
		r.step("Output Formatting",
			fmt.Sprintf("Converted %d decrypted bytes to %v text", len(plain), s.encoding),
			map[string]any{"encoding": s.encoding.String(), "byteLength": len(plain)})
	}

	res.Steps = r.steps
	return res, nil
}
