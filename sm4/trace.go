/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sm4

import (
	"encoding/binary"
	"fmt"
)

// RoundState 记录单个分组在某一轮迭代中的全部中间值，生成后不再修改。
type RoundState struct {
	Round       int       `json:"round"`        // 轮序号，0-31
	Input       [4]uint32 `json:"input"`        // 本轮输入状态(X0,X1,X2,X3)
	RoundKey    uint32    `json:"roundKey"`     // 本轮使用的轮秘钥
	SBoxOut     uint32    `json:"sboxOutput"`   // τ(.)的输出“字”
	SBoxBytes   [4]byte   `json:"sboxBytes"`    // τ(.)输出的4个字节，高位在前
	LinearOut   uint32    `json:"linearOutput"` // L(.)的输出“字”
	Output      [4]uint32 `json:"output"`       // 移位后的状态(X1,X2,X3,X4)
	Description string    `json:"description"`
}

// BlockTrace 为单个分组经过32轮迭代和反序变换后的结果。
type BlockTrace struct {
	Output [BlockSize]byte
	Rounds []RoundState
}

// EncryptBlockTrace 对一个16字节分组执行32轮轮函数F和反序变换R，
// 并逐轮记录中间状态。解密同样调用本函数，只需传入 rk.Reversed()。
func EncryptBlockTrace(block []byte, rk *RoundKeys) (*BlockTrace, error) {
	if len(block) != BlockSize {
		return nil, BlockSizeError(len(block))
	}

	var x [4]uint32
	for i := range x {
		x[i] = binary.BigEndian.Uint32(block[4*i : 4*i+4])
	}

	bt := &BlockTrace{Rounds: make([]RoundState, 0, Rounds)}
	for i := 0; i < Rounds; i++ {
		in := x
		sOut := tau(x[1] ^ x[2] ^ x[3] ^ rk[i])
		lOut := l(sOut)
		x = [4]uint32{x[1], x[2], x[3], x[0] ^ lOut}

		st := RoundState{
			Round:     i,
			Input:     in,
			RoundKey:  rk[i],
			SBoxOut:   sOut,
			LinearOut: lOut,
			Output:    x,
			Description: fmt.Sprintf("Round %d: T-transformation with round key %08x gives %08x",
				i, rk[i], lOut),
		}
		binary.BigEndian.PutUint32(st.SBoxBytes[:], sOut)
		bt.Rounds = append(bt.Rounds, st)
	}

	r(x[:])
	for i, w := range x {
		binary.BigEndian.PutUint32(bt.Output[4*i:4*i+4], w)
	}
	return bt, nil
}
