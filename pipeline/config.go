/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"github.com/paul-lee-attorney/sm4trace/codec"
	"github.com/paul-lee-attorney/sm4trace/modes"
	"github.com/paul-lee-attorney/sm4trace/padding"
)

// Config is the cipher configuration as supplied by a caller, usually straight from a
// form or a JSON body. Values are matched case-insensitively.
type Config struct {
	Mode         string `json:"mode"`         // ECB | CBC
	Padding      string `json:"padding"`      // PKCS7 | None
	OutputFormat string `json:"outputFormat"` // hex | base64
	Encoding     string `json:"encoding"`     // utf8 | ascii
}

// DefaultConfig returns ECB, PKCS7, hex output and UTF-8 text.
func DefaultConfig() Config {
	return Config{
		Mode:         modes.ECB.String(),
		Padding:      padding.PKCS7.String(),
		OutputFormat: codec.Hex.String(),
		Encoding:     codec.UTF8.String(),
	}
}

// WithDefaults fills empty fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.Padding == "" {
		c.Padding = d.Padding
	}
	if c.OutputFormat == "" {
		c.OutputFormat = d.OutputFormat
	}
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	return c
}

// settings is a Config resolved into typed values.
type settings struct {
	mode     modes.Mode
	scheme   padding.Scheme
	format   codec.Format
	encoding codec.Encoding
}

// Validate reports the first unrecognized field as an *UnsupportedConfigError.
func (c Config) Validate() error {
	_, err := c.resolve()
	return err
}

func (c Config) resolve() (settings, error) {
	var s settings
	var ok bool
	if s.mode, ok = modes.ParseMode(c.Mode); !ok {
		return s, &UnsupportedConfigError{Field: "mode", Value: c.Mode}
	}
	if s.scheme, ok = padding.ParseScheme(c.Padding); !ok {
		return s, &UnsupportedConfigError{Field: "padding", Value: c.Padding}
	}
	if s.format, ok = codec.ParseFormat(c.OutputFormat); !ok {
		return s, &UnsupportedConfigError{Field: "outputFormat", Value: c.OutputFormat}
	}
	if s.encoding, ok = codec.ParseEncoding(c.Encoding); !ok {
		return s, &UnsupportedConfigError{Field: "encoding", Value: c.Encoding}
	}
	return s, nil
}
