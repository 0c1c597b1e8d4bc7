package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/conversation"
)

const (
	conversationColumns = `id, sender_id, receiver_id, sender_blocked, receiver_blocked, created_at, updated_at`
	messageColumns      = `id, conversation_id, sender_id, content, file_url, is_read, is_edited, created_at, updated_at`
)

type conversationRepository struct {
	db *sqlx.DB
}

var _ conversation.Repository = (*conversationRepository)(nil) // interface compliance check

func NewConversationRepository(db *sqlx.DB) *conversationRepository {
	return &conversationRepository{db: db}
}

func (repo conversationRepository) FindConversation(ctx context.Context, userA, userB string) (conversation.Conversation, error) {
	var c conversation.Conversation
	q := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		LIMIT 1`
	if err := repo.db.GetContext(ctx, &c, q, userA, userB); err != nil {
		return conversation.Conversation{}, trapNoRowsErr(err, conversation.ErrNotFound, "selecting conversation")
	}
	return c, nil
}

func (repo conversationRepository) CreateConversation(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	c.ID = uuid.New().String()
	q := `INSERT INTO conversations (` + conversationColumns + `) VALUES
		(:id, :sender_id, :receiver_id, :sender_blocked, :receiver_blocked, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, c); err != nil {
		return conversation.Conversation{}, errors.Wrap(err, "inserting conversation")
	}
	return c, nil
}

func (repo conversationRepository) GetConversation(ctx context.Context, id string) (conversation.Conversation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return conversation.Conversation{}, conversation.ErrNotFound
	}
	var c conversation.Conversation
	if err := repo.db.GetContext(ctx, &c, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id); err != nil {
		return conversation.Conversation{}, trapNoRowsErr(err, conversation.ErrNotFound, "selecting conversation")
	}
	return c, nil
}

func (repo conversationRepository) UpdateConversation(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	q := `UPDATE conversations SET sender_blocked = :sender_blocked, receiver_blocked = :receiver_blocked,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return conversation.Conversation{}, errors.Wrap(err, "updating conversation")
	}
	if err = expectOne(res, conversation.ErrNotFound); err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (repo conversationRepository) ListConversations(ctx context.Context, userID string, page core.Page) ([]conversation.Conversation, error) {
	q := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY updated_at DESC LIMIT $2 OFFSET $3`
	list := make([]conversation.Conversation, 0)
	if err := repo.db.SelectContext(ctx, &list, q, userID, page.Limit(), page.Index); err != nil {
		return nil, errors.Wrap(err, "selecting conversations")
	}
	return list, nil
}

func (repo conversationRepository) CreateMessage(ctx context.Context, m conversation.Message) (conversation.Message, error) {
	m.ID = uuid.New().String()
	q := `INSERT INTO messages (` + messageColumns + `) VALUES
		(:id, :conversation_id, :sender_id, :content, :file_url, :is_read, :is_edited, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, m); err != nil {
		return conversation.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo conversationRepository) GetMessage(ctx context.Context, id string) (conversation.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return conversation.Message{}, conversation.ErrMessageNotFound
	}
	var m conversation.Message
	if err := repo.db.GetContext(ctx, &m, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id); err != nil {
		return conversation.Message{}, trapNoRowsErr(err, conversation.ErrMessageNotFound, "selecting message")
	}
	return m, nil
}

func (repo conversationRepository) UpdateMessage(ctx context.Context, m conversation.Message) (conversation.Message, error) {
	q := `UPDATE messages SET content = :content, file_url = :file_url, is_read = :is_read, is_edited = :is_edited,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, m)
	if err != nil {
		return conversation.Message{}, errors.Wrap(err, "updating message")
	}
	if err = expectOne(res, conversation.ErrMessageNotFound); err != nil {
		return conversation.Message{}, err
	}
	return m, nil
}

func (repo conversationRepository) DeleteMessage(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting message")
	}
	return expectOne(res, conversation.ErrMessageNotFound)
}

func (repo conversationRepository) ListMessages(ctx context.Context, conversationID string, page core.Page) ([]conversation.Message, error) {
	q := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1
		ORDER BY created_at LIMIT $2 OFFSET $3`
	list := make([]conversation.Message, 0)
	if err := repo.db.SelectContext(ctx, &list, q, conversationID, page.Limit(), page.Index); err != nil {
		return nil, errors.Wrap(err, "selecting messages")
	}
	return list, nil
}

func (repo conversationRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	q := `UPDATE messages SET is_read = TRUE WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read`
	res, err := repo.db.ExecContext(ctx, q, conversationID, readerID)
	if err != nil {
		return 0, errors.Wrap(err, "marking messages as read")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting messages marked as read")
	}
	return int(n), nil
}
