// Package cache は変換成果物のダウンロードストアを提供します。
// コアはこのストアを get/put/evict を持つ注入された協調オブジェクトとして
// 扱い、グローバルな可変テーブルには依存しません。
package cache

import (
	"context"
	"errors"
)

// ErrNotFound はトークンに対応する成果物が存在しない（または期限切れで
// 破棄された）場合に返されます。
var ErrNotFound = errors.New("cache: artifact not found")

// Artifact はトークンに紐付けて保存される成果物です。
type Artifact struct {
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Data     []byte `json:"data"`
}

// Store は成果物ストアの抽象です。実装は容量または時間で保持を
// 打ち切り、明示的な破棄手段を提供します。
type Store interface {
	Put(ctx context.Context, token string, artifact *Artifact) error
	Get(ctx context.Context, token string) (*Artifact, error)
	Evict(ctx context.Context, token string) error
}
