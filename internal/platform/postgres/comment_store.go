package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/corkboard/internal/domain"
	"github.com/phrazzld/corkboard/internal/platform/logger"
	"github.com/phrazzld/corkboard/internal/store"
)

// PostgresCommentStore implements store.CommentStore.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a comment store over db.
// If logger is nil, a default logger will be used.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

var _ store.CommentStore = (*PostgresCommentStore)(nil)

// Create implements store.CommentStore.Create.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, card_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, comment.ID, comment.CardID, comment.AuthorID, comment.Content, comment.CreatedAt)
	if err != nil {
		log.Error("failed to create comment",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()),
			slog.String("card_id", comment.CardID.String()))
		return MapForeignKeyViolation(err, map[string]error{
			"comments_card_id_fkey": store.ErrCardNotFound,
		})
	}

	log.Debug("comment created",
		slog.String("comment_id", comment.ID.String()),
		slog.String("card_id", comment.CardID.String()))
	return nil
}
