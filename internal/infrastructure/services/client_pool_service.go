package services

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/errs"
	"github.com/lakarijeprvovencani/tl-tryon/internal/domain/repositories"
)

// GenAI Client Pool実装
type genAIClientPool struct {
	config *repositories.AIClientConfig
	client *genai.Client
	mutex  sync.RWMutex
}

// 新しいGenAIクライアントプールを作成
// クライアントは初回利用時に生成する。認証情報の不足もその時点で ConfigurationError になる。
func NewGenAIClientPool(config *repositories.AIClientConfig) repositories.GenAIClientPool {
	if config.Backend == "" {
		config.Backend = repositories.BackendGemini
	}
	return &genAIClientPool{
		config: config,
	}
}

func (p *genAIClientPool) GetGenAIClient(ctx context.Context) (*genai.Client, error) {
	p.mutex.RLock()
	if p.client != nil {
		defer p.mutex.RUnlock()
		return p.client, nil
	}
	p.mutex.RUnlock()

	p.mutex.Lock()
	defer p.mutex.Unlock()

	// ダブルチェックロッキング
	if p.client != nil {
		return p.client, nil
	}

	clientConfig, err := p.clientConfig()
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	p.client = client
	return p.client, nil
}

func (p *genAIClientPool) clientConfig() (*genai.ClientConfig, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: p.config.BaseURL},
	}

	switch p.config.Backend {
	case repositories.BackendGemini:
		if p.config.APIKey == "" {
			return nil, errs.Configuration("GEMINI_API_KEY is not set")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = p.config.APIKey
	case repositories.BackendVertex:
		if p.config.ProjectID == "" || p.config.Location == "" {
			return nil, errs.Configuration("PROJECT_ID and LOCATION are required for the vertex backend")
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = p.config.ProjectID
		cc.Location = p.config.Location
	default:
		return nil, errs.Configuration("unsupported GenAI backend: %s", p.config.Backend)
	}

	return cc, nil
}

func (p *genAIClientPool) Config() *repositories.AIClientConfig {
	return p.config
}

func (p *genAIClientPool) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// GenAI Clientはリソースクリーンアップ不要
	p.client = nil
	return nil
}
