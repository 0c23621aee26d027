package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

const (
	// AddressPrefix TRON 主网地址前缀字节
	AddressPrefix byte = 0x41

	// AddressHexLength hex 地址长度（前缀 + 20 字节）
	AddressHexLength = 42
)

// AddressBytesToBase58 将 20 字节地址转换为 TRON Base58Check 地址
//
// **格式**：
// - 前缀字节 0x41 + 地址哈希（20字节）+ 校验和（4字节，双重 SHA256）
func AddressBytesToBase58(addressBytes []byte) (string, error) {
	if len(addressBytes) != 20 {
		return "", fmt.Errorf("invalid address length: expected 20 bytes, got %d", len(addressBytes))
	}

	versioned := make([]byte, 0, 25)
	versioned = append(versioned, AddressPrefix)
	versioned = append(versioned, addressBytes...)
	versioned = append(versioned, checksum(versioned)...)

	return base58.Encode(versioned), nil
}

// AddressBase58ToBytes 将 TRON Base58Check 地址解码为 20 字节地址哈希
func AddressBase58ToBytes(base58Addr string) ([]byte, error) {
	decoded := base58.Decode(base58Addr)

	// 前缀（1）+ 地址哈希（20）+ 校验和（4）= 25 字节
	if len(decoded) != 25 {
		return nil, fmt.Errorf("invalid address length: expected 25 bytes after Base58 decode, got %d", len(decoded))
	}
	if decoded[0] != AddressPrefix {
		return nil, fmt.Errorf("invalid address prefix: 0x%02x", decoded[0])
	}
	if !equalBytes(decoded[21:], checksum(decoded[:21])) {
		return nil, fmt.Errorf("invalid checksum")
	}

	return decoded[1:21], nil
}

// AddressHexToBase58 将 hex 地址（41 开头，可带 0x）转换为 Base58Check 地址
func AddressHexToBase58(hexAddr string) (string, error) {
	addressBytes, err := hexAddressBytes(hexAddr)
	if err != nil {
		return "", err
	}
	return AddressBytesToBase58(addressBytes)
}

// AddressBase58ToHex 将 Base58Check 地址转换为节点 API 使用的 hex 格式（41 开头，小写，无 0x）
func AddressBase58ToHex(base58Addr string) (string, error) {
	addressBytes, err := AddressBase58ToBytes(base58Addr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02x%x", AddressPrefix, addressBytes), nil
}

// IsAddress 判断字符串是否为合法的 TRON 地址（Base58Check 或 hex）
func IsAddress(addr string) bool {
	if addr == "" {
		return false
	}
	if isHexForm(addr) {
		_, err := hexAddressBytes(addr)
		return err == nil
	}
	_, err := AddressBase58ToBytes(addr)
	return err == nil
}

// ToHex 将任意合法形式的地址规范化为 hex 格式
func ToHex(addr string) (string, error) {
	if isHexForm(addr) {
		addressBytes, err := hexAddressBytes(addr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%02x%x", AddressPrefix, addressBytes), nil
	}
	return AddressBase58ToHex(addr)
}

// isHexForm Base58 字母表不含 0，hex 地址总是以 41 或 0x41 开头且长度固定
func isHexForm(addr string) bool {
	s := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	return len(s) == AddressHexLength && strings.HasPrefix(s, "41")
}

func hexAddressBytes(hexAddr string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(hexAddr, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex address: %w", err)
	}
	if len(raw) != 21 {
		return nil, fmt.Errorf("invalid hex address length: expected 42 hex characters (21 bytes), got %d bytes", len(raw))
	}
	if raw[0] != AddressPrefix {
		return nil, fmt.Errorf("invalid address prefix: 0x%02x", raw[0])
	}
	return raw[1:], nil
}

func checksum(versioned []byte) []byte {
	hash1 := sha256.Sum256(versioned)
	hash2 := sha256.Sum256(hash1[:])
	return hash2[:4]
}

// equalBytes 比较两个字节数组是否相等
func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
