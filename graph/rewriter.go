package graph

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mink555/covergate/llm"
)

const rewriteSystemPrompt = `당신은 보험 상담 챗봇의 질문 명확화 도우미입니다.
사용자의 짧거나 문맥 의존적인 후속 질문을, 이전 대화를 참고하여 완전하고 독립적인 질문으로 재작성하세요.
규칙:
- 재작성된 질문 한 줄만 출력하세요.
- 설명·따옴표·번호는 포함하지 마세요.
- 원래 의도를 바꾸지 마세요.
- 재작성이 불필요하면 원문 그대로 출력하세요.
- 챗봇이 추가 정보(성별, 나이, 상품명 등)를 물었고 사용자가 단답으로 응답한 경우, 그 정보를 이전 요청에 합쳐서 완전한 질문으로 만드세요.
  예: 챗봇이 '성별을 알려주세요' → 사용자 '아버지' → '70세 남성 기준 두 상품 합산 보험료를 알려줘'
  예: 챗봇이 '어떤 상품인가요?' → 사용자 '종신보험' → '종신보험 상품 정보를 알려줘'`

// Single tokens that carry a complete answer to a clarifying question.
// Anything else of one rune is treated as meaningless input.
var meaningfulSingles = map[string]bool{
	"네": true, "예": true, "응": true,
	"M": true, "F": true, "남": true, "여": true,
}

// contextWindow is how many prior messages the rewriter sees, roughly
// the last two turns.
const contextWindow = 4

// rewriteQuery expands a short followup question into a standalone one
// so tool retrieval matches on full context. It fires only when the
// query is under the configured rune threshold and prior conversation
// exists; the rewritten text goes to RewrittenQuery and the original
// user message stays in the history untouched.
func (g *Graph) rewriteQuery(ctx context.Context, state *TurnState) Update {
	start := time.Now()
	query := LastUserQuery(state.Messages)
	stripped := strings.TrimSpace(query)

	prior := priorConversation(state.Messages)
	if utf8.RuneCountInString(stripped) >= g.cfg.Turn.RewriteThreshold || len(prior) == 0 {
		return rewriteSkip("long query or no history", start)
	}

	if utf8.RuneCountInString(stripped) <= 1 && !meaningfulSingles[stripped] {
		g.logger.Info("meaningless short input", zap.String("input", stripped))
		u := rewriteSkip(fmt.Sprintf("too_short (%d runes)", utf8.RuneCountInString(stripped)), start)
		u.RewrittenQuery = stringPtr(stripped)
		return u
	}

	if len(prior) > contextWindow {
		prior = prior[len(prior)-contextWindow:]
	}

	prompt := make([]llm.ChatMessage, 0, len(prior)+2)
	prompt = append(prompt, llm.SystemMessage(rewriteSystemPrompt))
	prompt = append(prompt, prior...)
	prompt = append(prompt, llm.UserMessage(
		fmt.Sprintf("위 대화를 참고하여 이 후속 질문을 완전한 독립 질문으로 재작성: 「%s」", query)))

	response, err := llm.ChatWithRetry(ctx, g.provider, prompt, g.retry)
	if err != nil {
		g.logger.Warn("query rewrite failed", zap.Error(err))
		return rewriteSkip("rewrite not needed or failed", start)
	}

	rewritten := strings.Trim(strings.TrimSpace(response.Content), `"'「」`)
	if rewritten == "" || rewritten == query {
		return rewriteSkip("rewrite not needed or failed", start)
	}

	g.logger.Info("query rewritten",
		zap.String("original", query),
		zap.String("rewritten", rewritten))
	return Update{
		RewrittenQuery: stringPtr(rewritten),
		Trace: []TraceEntry{{
			Node:       "query_rewriter",
			Action:     "rewrite",
			Original:   query,
			Rewritten:  rewritten,
			DurationMS: time.Since(start).Milliseconds(),
		}},
	}
}

// priorConversation returns the user and assistant messages before the
// current query. Tool results and system hints are excluded.
func priorConversation(messages []llm.ChatMessage) []llm.ChatMessage {
	if len(messages) == 0 {
		return nil
	}
	var prior []llm.ChatMessage
	for _, msg := range messages[:len(messages)-1] {
		if msg.Role == llm.RoleUser || msg.Role == llm.RoleAssistant {
			prior = append(prior, msg)
		}
	}
	return prior
}

func rewriteSkip(reason string, start time.Time) Update {
	return Update{
		Trace: []TraceEntry{{
			Node:       "query_rewriter",
			Action:     "skip",
			Reason:     reason,
			DurationMS: time.Since(start).Milliseconds(),
		}},
	}
}
