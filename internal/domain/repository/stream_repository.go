package repository

import (
	"context"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

// StreamRepository - очередь запросов на разрешение координат и их результатов
type StreamRepository interface {
	// ConsumeStream отдаёт запросы из stream в рамках group; канал закрывается при отмене ctx
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	// AckMessage снимает запрос из списка ожидающих у group
	AckMessage(ctx context.Context, stream, group, messageID string) error

	// CreateConsumerGroup создаёт group вместе со стримом; существующая группа не ошибка
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream кладёт data в stream как JSON
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
