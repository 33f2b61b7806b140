// internal/storage/jsonstore.go
//
// 提供合約產物 (artifact) 的讀取與匯出。
// 匯出採「原子寫入」策略：先寫入 .tmp 檔，再以 rename() 取代原檔，
// 寫入中途失敗時原檔不會損壞。
package storage

import (
	"bytes"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoABI 代表檔案可解析但不含 ABI。
var ErrNoABI = errors.New("artifact has no abi")

// LoadArtifact 讀取 path 的產物檔；純 ABI 陣列會被包成只有 ABI 的 Artifact。
func LoadArtifact(path string) (Artifact, error) {
	var art Artifact
	data, err := os.ReadFile(path)
	if err != nil {
		return art, errors.Wrapf(err, "read artifact %s", path)
	}
	return ParseArtifact(data)
}

// ParseArtifact 解析記憶體中的產物內容。
func ParseArtifact(data []byte) (Artifact, error) {
	var art Artifact
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if !json.Valid(trimmed) {
			return art, errors.New("artifact: invalid abi array")
		}
		art.ABI = append(jsoniter.RawMessage(nil), trimmed...)
		return art, nil
	}
	if err := json.Unmarshal(trimmed, &art); err != nil {
		return art, errors.Wrap(err, "decode artifact")
	}
	if len(art.ABI) == 0 || string(art.ABI) == "null" {
		return art, ErrNoABI
	}
	return art, nil
}

// SaveArtifact 將 Artifact 以縮排 JSON 原子寫入 path。
// 流程：
//  1. 設定 Meta.Storage 與當前時間戳。
//  2. 寫入 path+".tmp" 暫存檔。
//  3. 寫入完成後使用 os.Rename() 取代正式檔案。
func SaveArtifact(path string, art Artifact) error {
	if art.Meta == nil {
		art.Meta = &Meta{Version: 1}
	}
	art.Meta.Storage = "contract_artifact"
	art.Meta.Timestamp = time.Now()
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "create artifact tmp")
	}

	// 使用縮排格式輸出，方便人類閱讀
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(art); err != nil {
		f.Close()
		return errors.Wrap(err, "encode artifact")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close artifact tmp")
	}

	// 原子替換
	return errors.Wrap(os.Rename(tmp, path), "rename artifact")
}
