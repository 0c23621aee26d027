package types

import "encoding/json"

// Transaction 节点返回的交易信封
//
// RawData 原样保留节点返回的内容，签名与广播时不做任何改写。
// Expiration/Timestamp 为签名前在本地写入的时间字段（毫秒）。
type Transaction struct {
	TxID       string          `json:"txID"`
	RawData    json.RawMessage `json:"raw_data,omitempty"`
	RawDataHex string          `json:"raw_data_hex,omitempty"`
	Visible    bool            `json:"visible"`
	Signature  []string        `json:"signature,omitempty"`
	Expiration int64           `json:"expiration,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// Clone 返回交易的深拷贝
func (tx *Transaction) Clone() *Transaction {
	if tx == nil {
		return nil
	}
	cp := *tx
	if tx.RawData != nil {
		cp.RawData = append(json.RawMessage(nil), tx.RawData...)
	}
	if tx.Signature != nil {
		cp.Signature = append([]string(nil), tx.Signature...)
	}
	return &cp
}

// BroadcastResult /wallet/broadcasttransaction 响应
type BroadcastResult struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"` // 节点返回时为 hex 编码，解析后为明文
}
