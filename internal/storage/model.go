// internal/storage/model.go
//
// 定義合約產物 (contract artifact) 在檔案中的格式。
// 支援三種來源：
//   - Hardhat：{"contractName": "...", "abi": [...], "bytecode": "0x..."}
//   - Foundry：{"abi": [...], "bytecode": {"object": "0x..."}}
//   - 純 ABI 陣列：[{"type": "function", ...}, ...]
//
// 本層只處理序列化，不解析 ABI 內容；解析交給 bank 套件。
package storage

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Meta 為本程式匯出產物時附上的中繼資料；讀取外部產物時通常為 nil。
type Meta struct {
	Storage   string    `json:"storage"`        // 固定為 "contract_artifact"
	Version   int       `json:"version"`        // 結構版本號
	Timestamp time.Time `json:"timestamp"`      // 匯出時間
	Note      string    `json:"note,omitempty"` // 備註欄
}

// Artifact 為合約產物。ABI 與 Bytecode 保留原始 JSON，避免在此層綁定格式。
type Artifact struct {
	Meta         *Meta               `json:"_meta,omitempty"`
	ContractName string              `json:"contractName,omitempty"`
	Address      string              `json:"address,omitempty"`
	ABI          jsoniter.RawMessage `json:"abi"`
	Bytecode     jsoniter.RawMessage `json:"bytecode,omitempty"`
}
