package repositories

import (
	"context"

	"google.golang.org/genai"
)

type GenAIBackend string

const (
	BackendGemini GenAIBackend = "gemini"
	BackendVertex GenAIBackend = "vertex"
)

// AIクライアント共通設定
type AIClientConfig struct {
	Backend   GenAIBackend
	APIKey    string
	ProjectID string
	Location  string
	// BaseURL overrides the API endpoint; empty means the SDK default.
	BaseURL string
}

// GenAI Client Pool
// 画像編集で使用する共有GenAIクライアント
type GenAIClientPool interface {
	// GetGenAIClient returns the shared client, creating it on first use.
	GetGenAIClient(ctx context.Context) (*genai.Client, error)

	Config() *AIClientConfig

	// リソースのクリーンアップ
	Close() error
}
