package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const wordSize = 32

// selector returns the 4-byte ABI selector for a function signature,
// e.g. "balanceOf(address)".
func selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// encodeCall builds the hex-encoded calldata for a selector plus
// 32-byte argument words.
func encodeCall(sel []byte, words ...[]byte) string {
	data := make([]byte, 0, len(sel)+len(words)*wordSize)
	data = append(data, sel...)
	for _, w := range words {
		data = append(data, w...)
	}
	return "0x" + hex.EncodeToString(data)
}

// encodeUint256 left-pads a big integer into a 32-byte ABI word.
func encodeUint256(v *big.Int) []byte {
	word := make([]byte, wordSize)
	v.FillBytes(word)
	return word
}

// encodeAddress left-pads a 20-byte address into a 32-byte ABI word.
func encodeAddress(addr string) ([]byte, error) {
	raw, err := decodeHexBytes(addr)
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 20 {
		return nil, fmt.Errorf("address %s: expected 20 bytes, got %d", addr, len(raw))
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-20:], raw)
	return word, nil
}

// decodeWord extracts the n-th 32-byte word of an ABI-encoded return
// value as an unsigned integer.
func decodeWord(data []byte, n int) (*big.Int, error) {
	start := n * wordSize
	if len(data) < start+wordSize {
		return nil, fmt.Errorf("return data too short: want word %d, have %d bytes", n, len(data))
	}
	return new(big.Int).SetBytes(data[start : start+wordSize]), nil
}

// decodeWordAddress extracts the n-th return word as a checksummed-free
// lowercase hex address.
func decodeWordAddress(data []byte, n int) (string, error) {
	word, err := decodeWord(data, n)
	if err != nil {
		return "", err
	}
	raw := make([]byte, 20)
	word.FillBytes(raw)
	return "0x" + hex.EncodeToString(raw), nil
}

// decodeHexBytes decodes a 0x-prefixed hex string.
func decodeHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

// encodeQuantity formats a big integer as a 0x-prefixed quantity for
// JSON-RPC value fields.
func encodeQuantity(v *big.Int) string {
	return "0x" + v.Text(16)
}
