package service

import "math/rand/v2"

// CodeAlphabet 短码字符集：小写字母 + 数字，共 36 个
const CodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generator 生成定长短码
type Generator interface {
	Generate(length int) string
}

// RandomGenerator 每一位独立、均匀、有放回地从 CodeAlphabet 抽取。
// 不是密码学安全的，短码只是标识符而非凭证。
type RandomGenerator struct{}

func (RandomGenerator) Generate(length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = CodeAlphabet[rand.IntN(len(CodeAlphabet))]
	}
	return string(b)
}
