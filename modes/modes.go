/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package modes 实现SM4的ECB与CBC分组链接模式，并保留每个分组的逐轮记录。
// 调用方始终传入加密顺序的轮秘钥，解密时由本包负责逆序。
package modes

import (
	"strconv"
	"strings"

	"github.com/paul-lee-attorney/sm4trace/codec"
	"github.com/paul-lee-attorney/sm4trace/sm4"
)

// Mode 为分组链接模式。
type Mode int

const (
	ECB Mode = iota
	CBC
)

func (m Mode) String() string {
	switch m {
	case ECB:
		return "ECB"
	case CBC:
		return "CBC"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode 不区分大小写地解析"ECB"与"CBC"。
func ParseMode(s string) (Mode, bool) {
	switch strings.ToUpper(s) {
	case "ECB":
		return ECB, true
	case "CBC":
		return CBC, true
	}
	return 0, false
}

// Direction 为加密或解密方向。
type Direction int

const (
	Encrypt Direction = iota
	Decrypt
)

func (d Direction) String() string {
	if d == Decrypt {
		return "decrypt"
	}
	return "encrypt"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// InvalidLengthError 代表数据长度不是16的正整数倍。
type InvalidLengthError int

func (e InvalidLengthError) Error() string {
	return "modes: data length " + strconv.Itoa(int(e)) + " is not a positive multiple of the block size"
}

// IVSizeError 代表初始向量长度不等于16字节。
type IVSizeError int

func (e IVSizeError) Error() string {
	return "modes: invalid IV size " + strconv.Itoa(int(e))
}

// BlockResult 为单个分组的处理记录。
// Input 为调用方给出的原始分组（明文或密文）；
// EngineInput/EngineOutput 为进出轮函数的16字节；
// Output 为最终结果分组，CBC解密时为与链接值异或之后的明文。
type BlockResult struct {
	Index        int              `json:"index"`
	Input        codec.HexBytes   `json:"input"`
	EngineInput  codec.HexBytes   `json:"engineInput"`
	EngineOutput codec.HexBytes   `json:"engineOutput"`
	Output       codec.HexBytes   `json:"output"`
	Rounds       []sm4.RoundState `json:"rounds"`
}

// Output 为整段数据的处理结果。
type Output struct {
	Bytes  []byte
	Blocks []BlockResult
}

func checkLength(data []byte) error {
	if len(data) == 0 || len(data)%sm4.BlockSize != 0 {
		return InvalidLengthError(len(data))
	}
	return nil
}

func keysFor(rk *sm4.RoundKeys, dir Direction) *sm4.RoundKeys {
	if dir == Decrypt {
		return rk.Reversed()
	}
	return rk
}

func xorBlock(a, b []byte) []byte {
	out := make([]byte, sm4.BlockSize)
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func runBlock(index int, in, engineIn []byte, rk *sm4.RoundKeys) (BlockResult, error) {
	bt, err := sm4.EncryptBlockTrace(engineIn, rk)
	if err != nil {
		return BlockResult{}, err
	}
	return BlockResult{
		Index:        index,
		Input:        append(codec.HexBytes{}, in...),
		EngineInput:  append(codec.HexBytes{}, engineIn...),
		EngineOutput: append(codec.HexBytes{}, bt.Output[:]...),
		Rounds:       bt.Rounds,
	}, nil
}

// ProcessECB 对每个分组独立执行轮函数，分组之间没有链接。
func ProcessECB(data []byte, rk *sm4.RoundKeys, dir Direction) (*Output, error) {
	if err := checkLength(data); err != nil {
		return nil, err
	}
	keys := keysFor(rk, dir)

	out := &Output{Bytes: make([]byte, 0, len(data))}
	for i := 0; i < len(data)/sm4.BlockSize; i++ {
		block := data[i*sm4.BlockSize : (i+1)*sm4.BlockSize]
		br, err := runBlock(i, block, block, keys)
		if err != nil {
			return nil, err
		}
		br.Output = br.EngineOutput
		out.Bytes = append(out.Bytes, br.Output...)
		out.Blocks = append(out.Blocks, br)
	}
	return out, nil
}

// ProcessCBC 执行CBC链接：
// 加密时 C[i] = E(P[i] ^ chain)，chain 依次取 IV、C[i]；
// 解密时 P[i] = E'(C[i]) ^ chain，chain 依次取 IV、原始密文 C[i]，而不是刚恢复的明文。
func ProcessCBC(data []byte, rk *sm4.RoundKeys, iv []byte, dir Direction) (*Output, error) {
	if len(iv) != sm4.BlockSize {
		return nil, IVSizeError(len(iv))
	}
	if err := checkLength(data); err != nil {
		return nil, err
	}
	keys := keysFor(rk, dir)

	chain := append([]byte{}, iv...)
	out := &Output{Bytes: make([]byte, 0, len(data))}
	for i := 0; i < len(data)/sm4.BlockSize; i++ {
		block := data[i*sm4.BlockSize : (i+1)*sm4.BlockSize]

		var br BlockResult
		var err error
		if dir == Encrypt {
			br, err = runBlock(i, block, xorBlock(block, chain), keys)
			if err != nil {
				return nil, err
			}
			br.Output = br.EngineOutput
			chain = append(chain[:0], br.Output...)
		} else {
			br, err = runBlock(i, block, block, keys)
			if err != nil {
				return nil, err
			}
			br.Output = xorBlock(br.EngineOutput, chain)
			// 下一分组的链接值为本分组的原始密文。
			chain = append(chain[:0], block...)
		}
		out.Bytes = append(out.Bytes, br.Output...)
		out.Blocks = append(out.Blocks, br)
	}
	return out, nil
}

// Process 按模式分派，ECB忽略iv。
func Process(m Mode, data []byte, rk *sm4.RoundKeys, iv []byte, dir Direction) (*Output, error) {
	switch m {
	case ECB:
		return ProcessECB(data, rk, dir)
	case CBC:
		return ProcessCBC(data, rk, iv, dir)
	}
	return nil, UnsupportedModeError(m)
}

// UnsupportedModeError 代表未知的模式取值。
type UnsupportedModeError Mode

func (e UnsupportedModeError) Error() string {
	return "modes: unsupported mode " + Mode(e).String()
}
