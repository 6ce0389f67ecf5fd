package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"orai-chat/domain"
)

// MessageIndex maintains a Bluge full-text index next to the Badger store.
// Indexing is best-effort and asynchronous relative to persistence: a
// missed index entry costs a search miss, never a lost message.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// SearchHit is one search result, rebuilt from stored fields.
type SearchHit struct {
	MessageID  string    `json:"messageId"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

// Index upserts the message document; EDIT replaces the previous content.
func (m *MessageIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("room", message.RoomID).StoreValue()).
		AddField(bluge.NewKeywordField("sender", message.SenderID).StoreValue()).
		AddField(bluge.NewKeywordField("sender_name", message.SenderName).StoreValue()).
		AddField(bluge.NewDateTimeField("created_at", message.CreatedAt).StoreValue())
	return m.writer.Update(doc.ID(), doc)
}

// Remove drops a deleted message from the index.
func (m *MessageIndex) Remove(messageID uuid.UUID) error {
	return m.writer.Delete(bluge.Identifier(messageID.String()))
}

// Search matches terms against message content within a single room.
func (m *MessageIndex) Search(ctx context.Context, roomID, terms string, limit int) ([]SearchHit, error) {
	reader, err := m.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(roomID).SetField("room"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit SearchHit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "room":
				hit.RoomID = string(value)
			case "sender":
				hit.SenderID = string(value)
			case "sender_name":
				hit.SenderName = string(value)
			case "content":
				hit.Content = string(value)
			case "created_at":
				if at, err := bluge.DecodeDateTime(value); err == nil {
					hit.CreatedAt = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
