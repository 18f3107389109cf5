// Package agent exposes the consultation core as a single facade:
// run a turn, manage tools, rebuild the retrieval index.
//
// Information Hiding:
// - Graph wiring and checkpoint plumbing hidden
// - Turn-level error conversion hidden
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mink555/covergate/config"
	"github.com/mink555/covergate/embedding"
	"github.com/mink555/covergate/graph"
	"github.com/mink555/covergate/guardrail"
	"github.com/mink555/covergate/llm"
	"github.com/mink555/covergate/storage"
	"github.com/mink555/covergate/toolcard"
	"github.com/mink555/covergate/toolindex"
	"github.com/mink555/covergate/tools"
	"github.com/mink555/covergate/vectorstore"
)

// apologyResponse replaces the answer when a turn fails on an
// unrecovered provider or store error.
const apologyResponse = "죄송합니다. 일시적인 오류로 답변을 생성하지 못했습니다. " +
	"잠시 후 다시 시도해 주세요."

// TurnResult is what one conversation turn produced.
type TurnResult struct {
	Answer    string
	ToolsUsed []string
	Trace     []graph.TraceEntry
}

// Service runs guardrail-gated consultation turns over a persistent
// per-session state.
type Service struct {
	graph       *graph.Graph
	registry    *tools.Registry
	index       *toolindex.Index
	checkpoints storage.CheckpointStore
	logger      *zap.Logger
}

// NewService wires the turn graph over the given collaborators. The
// registry starts empty; callers register tools and then ReindexTools.
func NewService(
	provider llm.Provider,
	embedder embedding.Embedder,
	vectors vectorstore.VectorStore,
	checkpoints storage.CheckpointStore,
	catalog *toolcard.Catalog,
	cfg config.Settings,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := tools.NewRegistry()
	index := toolindex.New(vectors, embedder, catalog, cfg.Search.TopK, logger)
	classifier := guardrail.NewDomainClassifier(
		embedder, cfg.Guardrail.InThreshold, cfg.Guardrail.MarginThreshold, logger)

	return &Service{
		graph:       graph.New(provider, index, registry, classifier, cfg, logger),
		registry:    registry,
		index:       index,
		checkpoints: checkpoints,
		logger:      logger,
	}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// RunTurn executes one conversation turn for a session. Guardrail
// blocks flow through as normal answers; unrecovered errors become a
// fixed apologetic answer so callers always get something to show.
func (s *Service) RunTurn(ctx context.Context, sessionID, text string) (TurnResult, error) {
	state, _, err := s.checkpoints.Load(ctx, sessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	state.BeginTurn(text)
	if runErr := s.graph.Run(ctx, &state); runErr != nil {
		s.logger.Error("turn failed",
			zap.String("session_id", sessionID),
			zap.Error(runErr))
		state.Apply(graph.Update{
			Messages: []llm.ChatMessage{llm.AssistantMessage(apologyResponse)},
		})
	}

	if err := s.checkpoints.Save(ctx, sessionID, state); err != nil {
		return TurnResult{}, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	return TurnResult{
		Answer:    lastAssistantContent(state.Messages),
		ToolsUsed: graph.ToolsUsed(state.Messages),
		Trace:     state.Trace,
	}, nil
}

// RegisterTool adds a tool to the live registry and reindexes so the
// retrieval index can route to it.
func (s *Service) RegisterTool(ctx context.Context, tool tools.Tool) error {
	if err := s.registry.Register(tool); err != nil {
		return err
	}
	return s.index.Reindex(ctx, s.registry.All())
}

// UnregisterTool removes a tool and drops its index documents in the
// same call, so the router can never select a tool that is gone.
func (s *Service) UnregisterTool(ctx context.Context, name string) error {
	if err := s.registry.Unregister(name); err != nil {
		return err
	}
	return s.index.Remove(ctx, name)
}

// ReindexTools rebuilds the retrieval index over the current registry.
// A no-op when the tool corpus is unchanged.
func (s *Service) ReindexTools(ctx context.Context) error {
	return s.index.Reindex(ctx, s.registry.All())
}

// Registry exposes the live tool registry for registration at startup.
func (s *Service) Registry() *tools.Registry {
	return s.registry
}

func lastAssistantContent(messages []llm.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleAssistant && messages[i].Content != "" {
			return messages[i].Content
		}
	}
	return ""
}
