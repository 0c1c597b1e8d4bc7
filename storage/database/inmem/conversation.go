package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/conversation"
)

type conversationRepository struct {
	db       *table[conversation.Conversation]
	messages *table[conversation.Message]
}

var _ conversation.Repository = (*conversationRepository)(nil) // interface compliance check

func NewConversationRepository(db *DB) *conversationRepository {
	return &conversationRepository{db: db.conversation, messages: db.message}
}

func (repo *conversationRepository) FindConversation(_ context.Context, userA, userB string) (conversation.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.rows {
		if (c.SenderID == userA && c.ReceiverID == userB) || (c.SenderID == userB && c.ReceiverID == userA) {
			return c, nil
		}
	}
	return conversation.Conversation{}, conversation.ErrNotFound
}

func (repo *conversationRepository) CreateConversation(_ context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = uuid.New().String()
	repo.db.rows[c.ID] = c
	return c, nil
}

func (repo *conversationRepository) GetConversation(_ context.Context, id string) (conversation.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.rows[id]; ok {
		return c, nil
	}
	return conversation.Conversation{}, conversation.ErrNotFound
}

func (repo *conversationRepository) UpdateConversation(_ context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[c.ID]; !ok {
		return conversation.Conversation{}, conversation.ErrNotFound
	}
	repo.db.rows[c.ID] = c
	return c, nil
}

func (repo *conversationRepository) ListConversations(_ context.Context, userID string, page core.Page) ([]conversation.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	list := repo.db.all(
		func(c conversation.Conversation) bool { return c.HasParticipant(userID) },
		func(a, b conversation.Conversation) bool { return a.UpdatedAt.After(b.UpdatedAt) },
	)
	lo, hi := page.Slice(len(list))
	return list[lo:hi], nil
}

func (repo *conversationRepository) CreateMessage(_ context.Context, m conversation.Message) (conversation.Message, error) {
	repo.messages.Lock()
	defer repo.messages.Unlock()

	m.ID = uuid.New().String()
	repo.messages.rows[m.ID] = m
	return m, nil
}

func (repo *conversationRepository) GetMessage(_ context.Context, id string) (conversation.Message, error) {
	repo.messages.RLock()
	defer repo.messages.RUnlock()

	if m, ok := repo.messages.rows[id]; ok {
		return m, nil
	}
	return conversation.Message{}, conversation.ErrMessageNotFound
}

func (repo *conversationRepository) UpdateMessage(_ context.Context, m conversation.Message) (conversation.Message, error) {
	repo.messages.Lock()
	defer repo.messages.Unlock()

	if _, ok := repo.messages.rows[m.ID]; !ok {
		return conversation.Message{}, conversation.ErrMessageNotFound
	}
	repo.messages.rows[m.ID] = m
	return m, nil
}

func (repo *conversationRepository) DeleteMessage(_ context.Context, id string) error {
	repo.messages.Lock()
	defer repo.messages.Unlock()

	if _, ok := repo.messages.rows[id]; !ok {
		return conversation.ErrMessageNotFound
	}
	delete(repo.messages.rows, id)
	return nil
}

func (repo *conversationRepository) ListMessages(_ context.Context, conversationID string, page core.Page) ([]conversation.Message, error) {
	repo.messages.RLock()
	defer repo.messages.RUnlock()

	list := repo.messages.all(
		func(m conversation.Message) bool { return m.ConversationID == conversationID },
		func(a, b conversation.Message) bool { return a.CreatedAt.Before(b.CreatedAt) },
	)
	lo, hi := page.Slice(len(list))
	return list[lo:hi], nil
}

func (repo *conversationRepository) MarkRead(_ context.Context, conversationID, readerID string) (int, error) {
	repo.messages.Lock()
	defer repo.messages.Unlock()

	var n int
	for id, m := range repo.messages.rows {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			repo.messages.rows[id] = m
			n++
		}
	}
	return n, nil
}
