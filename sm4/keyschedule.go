/*
Copyright Paul Lee. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sm4

import (
	"encoding/binary"
	"fmt"
)

// RoundKeys 为由128位加密秘钥扩展得到的32个轮秘钥，按加密顺序排列。
// 解密时使用 Reversed() 得到逆序的轮秘钥。
type RoundKeys [Rounds]uint32

// ExpandKey 为SM4国标(7.3)定义的秘钥扩展算法函数。
// (1) 将加密秘钥key拆分成mK[i], (i=0,1,2,3) (详见国密7.3公式(6))
// (2) 将mK[i]与系统参数fK[i]进行异或运算获得k[i], (i=0, 1, 2, 3)
// (3) 以k[]为4个“字”的循环寄存器，迭代生成轮秘钥rk[i], (i=0, 1, ... 31)
func ExpandKey(key []byte) (*RoundKeys, error) {
	if len(key) != KeySize {
		return nil, KeySizeError(len(key))
	}

	var k [4]uint32
	for i := range k {
		k[i] = binary.BigEndian.Uint32(key[4*i:4*i+4]) ^ fK[i]
	}

	rk := new(RoundKeys)
	for i := 0; i < Rounds; i++ {
		// 寄存器第i%4位始终存放最旧的k(i)，用新生成的k(i+4)覆盖即完成移位。
		next := k[i%4] ^ tAp(k[(i+1)%4]^k[(i+2)%4]^k[(i+3)%4]^cK[i])
		k[i%4] = next
		rk[i] = next
	}
	return rk, nil
}

// Reversed 返回首尾颠倒的轮秘钥副本，用于解密。
func (rk *RoundKeys) Reversed() *RoundKeys {
	out := new(RoundKeys)
	for i, v := range rk {
		out[Rounds-1-i] = v
	}
	return out
}

// Hex 以8位小写十六进制字符串的形式返回各轮秘钥。
func (rk *RoundKeys) Hex() []string {
	out := make([]string, Rounds)
	for i, v := range rk {
		out[i] = fmt.Sprintf("%08x", v)
	}
	return out
}
