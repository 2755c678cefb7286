package insight

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/finsite/backend/internal/domain/insight"
	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/genai"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OfflineReply is returned in place of an answer when the AI is unavailable
const OfflineReply = "System offline. Our advisors are unavailable right now, please try again shortly or use the contact form."

// MaxChatMessageLength bounds a single user message
const MaxChatMessageLength = 2000

// maxTranscript bounds the stored transcript and so the history sent with
// each turn. It is even so user and model turns stay paired.
const maxTranscript = 40

const chatPersona = "You are Fin, the virtual assistant of a Nigerian financial-services firm that offers SME loans " +
	"(commercial real estate, working capital, equipment financing, trade finance) and business support " +
	"(advisory, market expansion, regulatory compliance, digital transformation). " +
	"Answer briefly and politely. Never promise approval or quote binding rates; " +
	"invite the user to apply or contact the team for specifics."

var (
	ErrChatNotFound = shared.NewDomainError("CHAT_NOT_FOUND", "Chat session not found")
	ErrEmptyMessage = shared.NewDomainError("CHAT_EMPTY_MESSAGE", "Message cannot be empty")
	ErrMessageLong  = shared.NewDomainError("CHAT_MESSAGE_TOO_LONG", "Message is too long")
)

type chatSession struct {
	mu         sync.Mutex // serializes turns
	transcript []insight.ChatMessage
	lastSeen   time.Time // guarded by ChatService.mu
}

// ChatService keeps in-memory chat transcripts keyed by session ID
type ChatService struct {
	ai     TextGenerator
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*chatSession
}

// NewChatService creates a chat service. Sessions idle longer than ttl are
// dropped by Sweep; a zero ttl keeps them until Close.
func NewChatService(ai TextGenerator, ttl time.Duration, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		ai:       ai,
		ttl:      ttl,
		logger:   logger.Named("chat"),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*chatSession),
	}
}

// Open starts a new empty transcript
func (s *ChatService) Open() uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = &chatSession{lastSeen: s.now()}
	s.mu.Unlock()
	return id
}

// Close discards a transcript
func (s *ChatService) Close(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Transcript returns a copy of the session's messages
func (s *ChatService) Transcript(id uuid.UUID) ([]insight.ChatMessage, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]insight.ChatMessage, len(sess.transcript))
	copy(out, sess.transcript)
	return out, nil
}

// Send appends the user's message, asks the AI and appends the reply. AI
// failures produce OfflineReply instead of an error.
func (s *ChatService) Send(ctx context.Context, id uuid.UUID, text string) (insight.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return insight.ChatMessage{}, ErrEmptyMessage
	}
	if len([]rune(text)) > MaxChatMessageLength {
		return insight.ChatMessage{}, ErrMessageLong
	}
	sess, err := s.session(id)
	if err != nil {
		return insight.ChatMessage{}, err
	}

	// One turn at a time per transcript
	sess.mu.Lock()
	defer sess.mu.Unlock()

	replyText := OfflineReply
	result, err := s.ai.GenerateText(ctx, genai.TextRequest{
		System:  chatPersona,
		History: sess.transcript,
		Prompt:  text,
	})
	if err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Chat reply unavailable", logger.ErrorFields(err)...)
	} else {
		replyText = result.Text
	}

	reply := insight.ChatMessage{Role: insight.RoleModel, Text: replyText}
	sess.transcript = append(sess.transcript,
		insight.ChatMessage{Role: insight.RoleUser, Text: text},
		reply,
	)
	if n := len(sess.transcript); n > maxTranscript {
		sess.transcript = append([]insight.ChatMessage(nil), sess.transcript[n-maxTranscript:]...)
	}
	s.touch(sess)
	return reply, nil
}

// Sweep drops sessions idle longer than the ttl and returns how many were removed
func (s *ChatService) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *ChatService) session(id uuid.UUID) (*chatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrChatNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *ChatService) touch(sess *chatSession) {
	s.mu.Lock()
	sess.lastSeen = s.now()
	s.mu.Unlock()
}
