package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/Khanviph/tron1/types"
	"github.com/Khanviph/tron1/utils"
)

// Wallet 钱包接口
type Wallet interface {
	// Address 获取 Base58 地址
	Address() string

	// HexAddress 获取 hex 地址（41 开头）
	HexAddress() string

	// SignTransaction 对交易签名，返回追加了签名的新交易
	SignTransaction(tx *types.Transaction) (*types.Transaction, error)

	// SignHash 签名给定哈希（供高级调用方使用）
	SignHash(hash []byte) ([]byte, error)

	// PrivateKey 获取私钥（谨慎使用）
	PrivateKey() *ecdsa.PrivateKey
}

// SimpleWallet 简单钱包实现（用于命令行和测试）
type SimpleWallet struct {
	privateKey *ecdsa.PrivateKey
	address    string
	hexAddress string
	createdAt  time.Time
}

// NewWallet 创建新钱包
func NewWallet() (Wallet, error) {
	privateKey, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	return newSimpleWallet(privateKey)
}

// NewWalletFromPrivateKey 从 hex 私钥创建钱包
func NewWalletFromPrivateKey(privateKeyHex string) (Wallet, error) {
	privateKeyBytes, err := hex.DecodeString(hexRemovePrefix(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	// secp256k1 私钥应为 32 字节
	if len(privateKeyBytes) != 32 {
		return nil, fmt.Errorf("invalid private key length: expected 32 bytes, got %d", len(privateKeyBytes))
	}

	privateKey, err := parsePrivateKey(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return newSimpleWallet(privateKey)
}

func newSimpleWallet(privateKey *ecdsa.PrivateKey) (*SimpleWallet, error) {
	addressBytes := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Bytes()
	address, err := utils.AddressBytesToBase58(addressBytes)
	if err != nil {
		return nil, fmt.Errorf("derive address: %w", err)
	}
	return &SimpleWallet{
		privateKey: privateKey,
		address:    address,
		hexAddress: fmt.Sprintf("%02x%x", utils.AddressPrefix, addressBytes),
		createdAt:  time.Now(),
	}, nil
}

// Address 获取 Base58 地址
func (w *SimpleWallet) Address() string {
	return w.address
}

// HexAddress 获取 hex 地址
func (w *SimpleWallet) HexAddress() string {
	return w.hexAddress
}

// SignTransaction 签名交易
//
// TRON 交易签名对象为 txID（= SHA256(raw_data 的 protobuf 字节)）。
// 若节点返回了 raw_data_hex，先校验 txID 与其一致，防止签到被篡改的交易。
func (w *SimpleWallet) SignTransaction(tx *types.Transaction) (*types.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}

	txHash, err := hex.DecodeString(tx.TxID)
	if err != nil {
		return nil, fmt.Errorf("decode txID: %w", err)
	}
	if len(txHash) != 32 {
		return nil, fmt.Errorf("invalid txID length: expected 32 bytes, got %d", len(txHash))
	}

	if tx.RawDataHex != "" {
		rawBytes, err := hex.DecodeString(tx.RawDataHex)
		if err != nil {
			return nil, fmt.Errorf("decode raw_data_hex: %w", err)
		}
		sum := sha256.Sum256(rawBytes)
		if !strings.EqualFold(hex.EncodeToString(sum[:]), tx.TxID) {
			return nil, fmt.Errorf("txID does not match raw_data_hex")
		}
	}

	sig, err := w.SignHash(txHash)
	if err != nil {
		return nil, err
	}

	signed := tx.Clone()
	signed.Signature = append(signed.Signature, hex.EncodeToString(sig))
	return signed, nil
}

// SignHash 签名哈希值，返回 65 字节 r || s || v
func (w *SimpleWallet) SignHash(hash []byte) ([]byte, error) {
	sig, err := ethcrypto.Sign(hash, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("secp256k1 sign: %w", err)
	}
	return sig, nil
}

// PrivateKey 获取私钥
func (w *SimpleWallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// parsePrivateKey 使用 go-ethereum/crypto 解析 secp256k1 私钥
func parsePrivateKey(privateKeyBytes []byte) (*ecdsa.PrivateKey, error) {
	privateKey, err := ethcrypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse secp256k1 private key failed: %w", err)
	}
	return privateKey, nil
}

// hexRemovePrefix 移除十六进制字符串的0x前缀
func hexRemovePrefix(hexStr string) string {
	if len(hexStr) >= 2 && (hexStr[:2] == "0x" || hexStr[:2] == "0X") {
		return hexStr[2:]
	}
	return hexStr
}
