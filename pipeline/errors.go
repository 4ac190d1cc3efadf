/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"errors"
	"strconv"

	"github.com/paul-lee-attorney/sm4trace/codec"
	"github.com/paul-lee-attorney/sm4trace/modes"
	"github.com/paul-lee-attorney/sm4trace/padding"
)

// UnsupportedConfigError reports an unrecognized configuration value.
type UnsupportedConfigError struct {
	Field string
	Value string
}

func (e *UnsupportedConfigError) Error() string {
	return "pipeline: unsupported " + e.Field + " " + strconv.Quote(e.Value)
}

// KeyLengthError is the number of hex digits found where 32 were expected.
type KeyLengthError int

func (e KeyLengthError) Error() string {
	return "pipeline: key must be 32 hex digits, got " + strconv.Itoa(int(e))
}

// IVLengthError is the number of hex digits found where 32 were expected.
type IVLengthError int

func (e IVLengthError) Error() string {
	return "pipeline: IV must be 32 hex digits, got " + strconv.Itoa(int(e))
}

// Kind classifies err into one of the error kinds a caller needs to tell apart:
// "format", "key-length", "iv-length", "padding", "invalid-length",
// "unsupported-config", or "" for anything else.
func Kind(err error) string {
	var (
		fe *codec.FormatError
		ke KeyLengthError
		ie IVLengthError
		pe *padding.Error
		le modes.InvalidLengthError
		ce *UnsupportedConfigError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return "unsupported-config"
	case errors.As(err, &ke):
		return "key-length"
	case errors.As(err, &ie):
		return "iv-length"
	case errors.As(err, &fe):
		return "format"
	case errors.As(err, &pe):
		return "padding"
	case errors.As(err, &le):
		return "invalid-length"
	}
	return ""
}
