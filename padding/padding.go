/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package padding 实现分组加密前后的填充与去填充，支持PKCS7与不填充(None)两种方式。
package padding

import (
	"bytes"
	"strconv"
	"strings"
)

// Scheme 为填充方式。
type Scheme int

const (
	PKCS7 Scheme = iota
	None
)

func (s Scheme) String() string {
	switch s {
	case PKCS7:
		return "PKCS7"
	case None:
		return "None"
	}
	return "Scheme(" + strconv.Itoa(int(s)) + ")"
}

// ParseScheme 不区分大小写地解析"PKCS7"与"None"。
func ParseScheme(s string) (Scheme, bool) {
	switch strings.ToLower(s) {
	case "pkcs7":
		return PKCS7, true
	case "none":
		return None, true
	}
	return 0, false
}

// Error 代表填充校验失败，包括None方式下长度不对齐、PKCS7填充值越界或填充字节不一致。
type Error struct {
	Scheme Scheme
	Msg    string
}

func (e *Error) Error() string {
	return "padding: " + e.Scheme.String() + ": " + e.Msg
}

func checkBlockSize(blockSize int, s Scheme) error {
	if blockSize < 1 || blockSize > 255 {
		return &Error{Scheme: s, Msg: "block size " + strconv.Itoa(blockSize) + " out of range [1, 255]"}
	}
	return nil
}

func misaligned(n, blockSize int, s Scheme) error {
	return &Error{Scheme: s, Msg: "length " + strconv.Itoa(n) + " is not a multiple of block size " + strconv.Itoa(blockSize)}
}

// Pad 按所选方式填充data，返回新的切片，不修改输入。
// PKCS7在尾部追加n个值为n的字节，n = blockSize - len%blockSize；
// 若长度已对齐，仍追加一个完整分组。None要求长度已对齐。
func Pad(data []byte, blockSize int, s Scheme) ([]byte, error) {
	if err := checkBlockSize(blockSize, s); err != nil {
		return nil, err
	}
	switch s {
	case PKCS7:
		n := blockSize - len(data)%blockSize
		out := make([]byte, len(data), len(data)+n)
		copy(out, data)
		return append(out, bytes.Repeat([]byte{byte(n)}, n)...), nil
	case None:
		if len(data)%blockSize != 0 {
			return nil, misaligned(len(data), blockSize, s)
		}
		return append([]byte{}, data...), nil
	}
	return nil, &Error{Scheme: s, Msg: "unsupported scheme"}
}

// Unpad 去除填充。PKCS7读取末字节n，n不在[1, blockSize]内，
// 或末尾n个字节中任一不等于n，均视为填充错误，不做静默截断。
func Unpad(data []byte, blockSize int, s Scheme) ([]byte, error) {
	if err := checkBlockSize(blockSize, s); err != nil {
		return nil, err
	}
	switch s {
	case PKCS7:
		length := len(data)
		if length == 0 || length%blockSize != 0 {
			return nil, misaligned(length, blockSize, s)
		}
		n := int(data[length-1])
		if n < 1 || n > blockSize {
			return nil, &Error{Scheme: s, Msg: "padding value " + strconv.Itoa(n) + " out of range"}
		}
		for _, b := range data[length-n:] {
			if int(b) != n {
				return nil, &Error{Scheme: s, Msg: "padding bytes do not match padding value"}
			}
		}
		return append([]byte{}, data[:length-n]...), nil
	case None:
		if len(data)%blockSize != 0 {
			return nil, misaligned(len(data), blockSize, s)
		}
		return append([]byte{}, data...), nil
	}
	return nil, &Error{Scheme: s, Msg: "unsupported scheme"}
}

// PaddedLen 返回长度为n的数据填充后的长度。
func PaddedLen(n, blockSize int, s Scheme) (int, error) {
	if err := checkBlockSize(blockSize, s); err != nil {
		return 0, err
	}
	switch s {
	case PKCS7:
		return n + blockSize - n%blockSize, nil
	case None:
		if n%blockSize != 0 {
			return 0, misaligned(n, blockSize, s)
		}
		return n, nil
	}
	return 0, &Error{Scheme: s, Msg: "unsupported scheme"}
}
