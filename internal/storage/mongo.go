package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kstarpick/crawler/internal/classify"
	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/types"
)

var knownCategories = classify.Taxonomy()

var _ Store = (*MongoStore)(nil)

// MongoStore persists articles and image hash mappings in MongoDB.
type MongoStore struct {
	client   *mongo.Client
	articles *mongo.Collection
	hashes   *mongo.Collection
	logger   *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(cfg *config.StorageConfig, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return &MongoStore{
		client:   client,
		articles: db.Collection(cfg.ArticlesCollection),
		hashes:   db.Collection(cfg.ImageHashCollection),
		logger:   logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) ExistingSourceURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return existing, nil
	}

	cursor, err := s.articles.Find(ctx,
		bson.M{"articleUrl": bson.M{"$in": urls}},
		options.Find().SetProjection(bson.M{"articleUrl": 1}))
	if err != nil {
		return nil, &types.StorageError{Op: "existing_source_urls", Err: err}
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			SourceURL string `bson:"articleUrl"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, &types.StorageError{Op: "existing_source_urls", Err: err}
		}
		existing[row.SourceURL] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, &types.StorageError{Op: "existing_source_urls", Err: err}
	}

	s.logger.Debug("source url dedup lookup", "checked", len(urls), "existing", len(existing))
	return existing, nil
}

func (s *MongoStore) InsertArticles(ctx context.Context, articles []types.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	docs := make([]any, len(articles))
	for i := range articles {
		docs[i] = articles[i]
	}

	res, err := s.articles.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if res != nil && len(res.InsertedIDs) > 0 {
		// Partial writes count: unordered inserts keep going past duplicates.
		s.logger.Debug("articles inserted", "count", len(res.InsertedIDs))
		if err != nil {
			s.logger.Warn("partial article insert", "inserted", len(res.InsertedIDs), "error", err)
		}
		return len(res.InsertedIDs), nil
	}
	if err != nil {
		return 0, &types.StorageError{Op: "insert_articles", Err: err}
	}
	return 0, nil
}

func (s *MongoStore) FindMisclassified(ctx context.Context, limit int) ([]types.Article, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"detailCategory": bson.M{"$exists": false}},
		bson.M{"detailCategory": ""},
		bson.M{"category": bson.M{"$nin": knownCategories}},
	}}

	cursor, err := s.articles.Find(ctx, filter,
		options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(int64(limit)))
	if err != nil {
		return nil, &types.StorageError{Op: "find_misclassified", Err: err}
	}
	defer cursor.Close(ctx)

	var articles []types.Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, &types.StorageError{Op: "find_misclassified", Err: err}
	}
	return articles, nil
}

func (s *MongoStore) FindByIDOrURL(ctx context.Context, id, sourceURL string) (*types.Article, error) {
	if id != "" {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			var article types.Article
			err := s.articles.FindOne(ctx, bson.M{"_id": oid}).Decode(&article)
			if err == nil {
				return &article, nil
			}
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, &types.StorageError{Op: "find_by_id", Err: err}
			}
		}
	}

	if sourceURL != "" {
		var article types.Article
		err := s.articles.FindOne(ctx, bson.M{"articleUrl": sourceURL}).Decode(&article)
		if err == nil {
			return &article, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &types.StorageError{Op: "find_by_url", Err: err}
		}
	}

	return nil, types.ErrNotFound
}

func (s *MongoStore) UpdateArticleCategory(ctx context.Context, id string, detailCategory string, category types.Category, tags []string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return &types.StorageError{Op: "update_category", Err: fmt.Errorf("bad id %q: %w", id, err)}
	}

	update := bson.M{"$set": bson.M{
		"detailCategory": detailCategory,
		"category":       category,
		"updatedAt":      time.Now(),
	}}
	if tags != nil {
		update["$set"].(bson.M)["tags"] = tags
	}

	res, err := s.articles.UpdateByID(ctx, oid, update)
	if err != nil {
		return &types.StorageError{Op: "update_category", Err: err}
	}
	if res.MatchedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

// UpsertImageHash records a hash to origin URL mapping. The hash is
// derived from the URL, so repeated upserts of the same URL are no-ops.
func (s *MongoStore) UpsertImageHash(ctx context.Context, hash, originURL string) error {
	_, err := s.hashes.UpdateOne(ctx,
		bson.M{"hash": hash},
		bson.M{"$setOnInsert": types.ImageMapping{
			Hash:      hash,
			URL:       originURL,
			CreatedAt: time.Now(),
		}},
		options.Update().SetUpsert(true))
	if err != nil {
		return &types.StorageError{Op: "upsert_image_hash", Err: err}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
