// Package chat 编排一次问答的完整流程：检索、专家咨询或回答组装、历史落库
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	"sop-assistant-api/internal/application/answer"
	"sop-assistant-api/internal/application/experts"
	"sop-assistant-api/internal/application/retrieval"
	"sop-assistant-api/internal/domain/entity"
	"sop-assistant-api/internal/domain/repository"
	"sop-assistant-api/pkg/errors"
	"sop-assistant-api/pkg/logger"
)

var tracer = otel.Tracer("application/chat")

// Retriever 检索端口
type Retriever interface {
	Retrieve(ctx context.Context, question string, budget int) (*retrieval.Result, error)
}

// ExpertConsultant 多专家咨询端口
type ExpertConsultant interface {
	Consult(ctx context.Context, query string, contextPassages []string) (*experts.Consultation, error)
}

// AnswerComposer 回答组装端口
type AnswerComposer interface {
	Compose(ctx context.Context, question string, result *retrieval.Result) (*answer.Answer, error)
}

type AskInput struct {
	SessionID  string
	UserID     string
	Question   string
	Budget     int
	UseExperts bool
}

type AskOutput struct {
	SessionID    string                `json:"session_id"`
	Answer       *answer.Answer        `json:"answer"`
	Consultation *experts.Consultation `json:"consultation,omitempty"`
	Retrieval    *retrieval.Result     `json:"retrieval,omitempty"`
}

// Service 问答应用服务
type Service struct {
	retriever  Retriever
	consultant ExpertConsultant
	composer   AnswerComposer
	router     *experts.Router

	sessions repository.ChatSessionRepository
	turns    repository.ChatTurnRepository
	txMgr    repository.Transactor
}

func NewService(
	retriever Retriever,
	consultant ExpertConsultant,
	composer AnswerComposer,
	router *experts.Router,
	sessions repository.ChatSessionRepository,
	turns repository.ChatTurnRepository,
	txMgr repository.Transactor,
) *Service {
	if router == nil {
		router = experts.NewRouter(nil, 0, "")
	}
	return &Service{
		retriever:  retriever,
		consultant: consultant,
		composer:   composer,
		router:     router,
		sessions:   sessions,
		turns:      turns,
		txMgr:      txMgr,
	}
}

// withTx 在事务中执行 fn，未配置事务管理器时直接执行
func (s *Service) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txMgr == nil {
		return fn(ctx)
	}
	return s.txMgr.WithTransaction(ctx, fn)
}

// Ask 执行一次问答
// 历史落库是尽力而为的：存储故障只记日志，不影响回答返回
func (s *Service) Ask(ctx context.Context, in AskInput) (*AskOutput, error) {
	ctx, span := tracer.Start(ctx, "chat.Ask")
	defer span.End()

	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, errors.New(errors.CodeValidationFailed, "question must not be empty")
	}

	session, err := s.ensureSession(ctx, in.SessionID, in.UserID, question)
	if err != nil {
		return nil, err
	}

	result, err := s.retriever.Retrieve(ctx, question, in.Budget)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := &AskOutput{Retrieval: result}
	if session != nil {
		out.SessionID = session.ID
	}

	useExperts := in.UseExperts || len(s.router.ParseMentions(question)) > 0
	if useExperts && s.consultant != nil {
		consultation, err := s.consultant.Consult(ctx, question, passageContents(result))
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out.Consultation = consultation
		out.Answer = consultationAnswer(consultation, result)
	} else {
		ans, err := s.composer.Compose(ctx, question, result)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out.Answer = ans
	}

	s.saveTurn(ctx, session, question, out)
	return out, nil
}

// ensureSession 取已有会话或按首问创建新会话
// 创建/更新失败时降级为无会话模式
func (s *Service) ensureSession(ctx context.Context, sessionID, userID, question string) (*entity.ChatSession, error) {
	if s.sessions == nil {
		return nil, nil
	}
	if sessionID != "" {
		session, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if userID != "" && session.UserID != userID {
			return nil, errors.New(errors.CodeSessionNotFound, "session not found")
		}
		return session, nil
	}

	session := entity.NewChatSession(userID, question)
	if err := s.sessions.Create(ctx, session); err != nil {
		logger.Warn(ctx, "create chat session failed, answering without history",
			"user_id", userID,
			"error", err.Error(),
		)
		return nil, nil
	}
	return session, nil
}

func (s *Service) saveTurn(ctx context.Context, session *entity.ChatSession, question string, out *AskOutput) {
	if s.turns == nil || session == nil || out.Answer == nil {
		return
	}

	var expertIDs []string
	if out.Consultation != nil {
		expertIDs = out.Consultation.ExpertIDs
	}
	turn := entity.NewChatTurn(session.ID, question, out.Answer.Text, expertIDs, out.Answer.Sources, out.Answer.Grounded)
	if err := s.turns.Create(ctx, turn); err != nil {
		logger.Warn(ctx, "save chat turn failed",
			"session_id", session.ID,
			"error", err.Error(),
		)
		return
	}
	if s.sessions != nil {
		if err := s.sessions.Update(ctx, session); err != nil {
			logger.Warn(ctx, "touch chat session failed",
				"session_id", session.ID,
				"error", err.Error(),
			)
		}
	}
}

// passageContents 返回检索片段的正文，供专家咨询做上下文
func passageContents(result *retrieval.Result) []string {
	if result == nil {
		return nil
	}
	contents := make([]string, 0, len(result.Passages))
	for _, p := range result.Passages {
		contents = append(contents, fmt.Sprintf("From %s:\n%s", p.DisplayName, p.Content))
	}
	return contents
}

// consultationAnswer 将各专家回复拼装为最终回答文本
func consultationAnswer(c *experts.Consultation, result *retrieval.Result) *answer.Answer {
	var b strings.Builder
	for i, resp := range c.Responses {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		b.WriteString(fmt.Sprintf("**%s:**\n%s", resp.ExpertTitle, resp.Response))
	}

	var sources []string
	grounded := false
	if result != nil {
		sources = retrieval.SourceNames(result.Passages)
		grounded = len(result.Passages) > 0
	}
	if sources == nil {
		sources = []string{}
	}
	return &answer.Answer{
		Text:     answer.FormatSOPReferences(b.String()),
		Sources:  sources,
		Grounded: grounded,
	}
}

// ListSessions 按用户分页列出会话
func (s *Service) ListSessions(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ChatSession], error) {
	if s.sessions == nil {
		return nil, errors.New(errors.CodeDatabaseError, "chat history not configured")
	}
	return s.sessions.ListByUser(ctx, userID, pagination)
}

// RecentSessions 最近会话，limit<=0 时取 10
func (s *Service) RecentSessions(ctx context.Context, userID string, limit int) ([]*entity.ChatSession, error) {
	if s.sessions == nil {
		return nil, errors.New(errors.CodeDatabaseError, "chat history not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	return s.sessions.ListRecentByUser(ctx, userID, limit)
}

// History 按会话分页列出问答轮次
func (s *Service) History(ctx context.Context, sessionID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ChatTurn], error) {
	if s.turns == nil {
		return nil, errors.New(errors.CodeDatabaseError, "chat history not configured")
	}
	return s.turns.ListBySession(ctx, sessionID, pagination)
}

// DeleteSession 删除会话及其全部轮次
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if s.sessions == nil || s.turns == nil {
		return errors.New(errors.CodeDatabaseError, "chat history not configured")
	}
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return err
	}
	return s.withTx(ctx, func(txCtx context.Context) error {
		if err := s.turns.DeleteBySession(txCtx, sessionID); err != nil {
			return err
		}
		return s.sessions.Delete(txCtx, sessionID)
	})
}

// ClearUser 清空用户的全部会话
func (s *Service) ClearUser(ctx context.Context, userID string) error {
	if s.sessions == nil {
		return errors.New(errors.CodeDatabaseError, "chat history not configured")
	}
	return s.withTx(ctx, func(txCtx context.Context) error {
		return s.sessions.DeleteByUser(txCtx, userID)
	})
}
