package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 262144
	pbkdf2KeyLen     = 32
)

// Keystore Keystore文件结构
type Keystore struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Address string `json:"address"`
	Crypto  Crypto `json:"crypto"`
}

// Crypto 加密信息
type Crypto struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams CipherParams           `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
}

// CipherParams 加密参数
type CipherParams struct {
	IV string `json:"iv"`
}

// KeystoreManager Keystore管理器
type KeystoreManager struct {
	keystoreDir string
	iterations  int
}

// NewKeystoreManager 创建Keystore管理器
func NewKeystoreManager(keystoreDir string) (*KeystoreManager, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}

	return &KeystoreManager{
		keystoreDir: keystoreDir,
		iterations:  pbkdf2Iterations,
	}, nil
}

// Save 保存私钥到Keystore，返回文件路径
func (km *KeystoreManager) Save(address string, privateKey []byte, password string) (string, error) {
	salt := make([]byte, 32)
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	derived := deriveKey(password, salt, km.iterations)
	encKey, macKey := derived[:16], derived[16:]

	ciphertext, err := encryptAES(encKey, privateKey, iv)
	if err != nil {
		return "", fmt.Errorf("encrypt private key: %w", err)
	}

	keystore := &Keystore{
		Version: 1,
		ID:      uuid.New().String(),
		Address: address,
		Crypto: Crypto{
			Cipher:     "aes-128-ctr",
			CipherText: hex.EncodeToString(ciphertext),
			CipherParams: CipherParams{
				IV: hex.EncodeToString(iv),
			},
			KDF: "pbkdf2",
			KDFParams: map[string]interface{}{
				"c":     km.iterations,
				"dklen": pbkdf2KeyLen,
				"prf":   "hmac-sha256",
				"salt":  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(computeMAC(macKey, ciphertext)),
		},
	}

	keystorePath := km.path(address)
	file, err := os.OpenFile(keystorePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("create keystore file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(keystore); err != nil {
		return "", fmt.Errorf("encode keystore: %w", err)
	}

	return keystorePath, nil
}

// Load 从Keystore加载私钥
func (km *KeystoreManager) Load(address string, password string) ([]byte, error) {
	data, err := os.ReadFile(km.path(address))
	if err != nil {
		return nil, fmt.Errorf("read keystore file: %w", err)
	}

	var keystore Keystore
	if err := json.Unmarshal(data, &keystore); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if keystore.Crypto.KDF != "pbkdf2" {
		return nil, fmt.Errorf("unsupported kdf: %s", keystore.Crypto.KDF)
	}

	saltHex, ok := keystore.Crypto.KDFParams["salt"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid salt")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}

	iterations := km.iterations
	if c, ok := keystore.Crypto.KDFParams["c"].(float64); ok && c > 0 {
		iterations = int(c)
	}

	iv, err := hex.DecodeString(keystore.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}

	ciphertext, err := hex.DecodeString(keystore.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	derived := deriveKey(password, salt, iterations)
	encKey, macKey := derived[:16], derived[16:]

	actualMAC, err := hex.DecodeString(keystore.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}
	if !hmac.Equal(computeMAC(macKey, ciphertext), actualMAC) {
		return nil, fmt.Errorf("invalid password")
	}

	privateKey, err := decryptAES(encKey, ciphertext, iv)
	if err != nil {
		return nil, fmt.Errorf("decrypt private key: %w", err)
	}

	return privateKey, nil
}

// LoadWallet 从Keystore加载钱包
func (km *KeystoreManager) LoadWallet(address string, password string) (Wallet, error) {
	privateKey, err := km.Load(address, password)
	if err != nil {
		return nil, err
	}
	return NewWalletFromPrivateKey(hex.EncodeToString(privateKey))
}

func (km *KeystoreManager) path(address string) string {
	return filepath.Join(km.keystoreDir, fmt.Sprintf("%s.json", address))
}

// deriveKey 派生密钥（PBKDF2-HMAC-SHA256）
func deriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, pbkdf2KeyLen, sha256.New)
}

// encryptAES AES-CTR 加密
func encryptAES(key, plaintext, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	stream := cipher.NewCTR(block, iv)
	ciphertext := make([]byte, len(plaintext))
	stream.XORKeyStream(ciphertext, plaintext)

	return ciphertext, nil
}

// decryptAES AES-CTR 解密
func decryptAES(key, ciphertext, iv []byte) ([]byte, error) {
	return encryptAES(key, ciphertext, iv)
}

// computeMAC 计算MAC
func computeMAC(key, ciphertext []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}
