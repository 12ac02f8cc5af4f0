package vectorstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongodb "StudyMind/internal/database/mongo"
	"StudyMind/internal/models"
	"StudyMind/internal/rag/interfaces"
	"StudyMind/internal/rag/schema"
	"StudyMind/pkg/logger"
	"StudyMind/pkg/retry"
)

// chunkDoc is the persisted shape of a chunk. Metadata is stored as a nested
// document so search filters can address keys as "metadata.file_id".
type chunkDoc struct {
	ID        string                 `bson:"_id"`
	Text      string                 `bson:"text"`
	Embedding []float32              `bson:"embedding"`
	Metadata  map[string]interface{} `bson:"metadata"`
	Score     float64                `bson:"score,omitempty"`
}

// MongoStore implements CorpusStore on a MongoDB collection with an Atlas
// Vector Search index over the embedding field. Embedding happens inside the
// store: callers hand over text, the store produces and consumes vectors.
type MongoStore struct {
	log        *logger.Logger
	collection *mongo.Collection
	embedder   interfaces.EmbeddingModel
	index      string
	retry      retry.Policy
}

// NewMongoStore creates a MongoStore over the named collection and vector
// index.
func NewMongoStore(client *mongodb.Client, collectionName, indexName string, embedder interfaces.EmbeddingModel, policy retry.Policy, log *logger.Logger) (interfaces.CorpusStore, error) {
	if client == nil {
		return nil, fmt.Errorf("mongo client is not initialized")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding model is not initialized")
	}
	return &MongoStore{
		log:        log,
		collection: client.Collection(collectionName),
		embedder:   embedder,
		index:      indexName,
		retry:      policy,
	}, nil
}

// Add embeds every chunk that does not yet carry a vector and inserts the
// batch in one write.
func (s *MongoStore) Add(ctx context.Context, chunks []*schema.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var missing []int
	var texts []string
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			missing = append(missing, i)
			texts = append(texts, c.Text)
		}
	}
	if len(texts) > 0 {
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunk batch: %w", err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding batch returned %d vectors for %d texts", len(vectors), len(texts))
		}
		for j, i := range missing {
			chunks[i].Embedding = vectors[j]
		}
	}

	docs := make([]interface{}, len(chunks))
	for i, c := range chunks {
		docs[i] = chunkDoc{
			ID:        c.ID,
			Text:      c.Text,
			Embedding: c.Embedding,
			Metadata:  c.Metadata,
		}
	}

	s.log.Info(fmt.Sprintf("Inserting %d chunks into collection %s", len(docs), s.collection.Name()))
	return s.retry.Do(ctx, "mongo insert", func(ctx context.Context) error {
		_, err := s.collection.InsertMany(ctx, docs)
		return err
	})
}

// Search embeds the query text and runs a $vectorSearch aggregation,
// restricted by filter. Results come back best first with their similarity
// score under schema.KeyScore.
func (s *MongoStore) Search(ctx context.Context, query string, k int, filter interfaces.Filter) ([]*schema.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchStage := bson.M{
		"index":         s.index,
		"path":          "embedding",
		"queryVector":   vector,
		"numCandidates": k * 10,
		"limit":         k,
	}
	if f := buildSearchFilter(filter); len(f) > 0 {
		searchStage["filter"] = f
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: searchStage}},
		bson.D{{Key: "$addFields", Value: bson.M{"score": bson.M{"$meta": "vectorSearchScore"}}}},
	}

	var docs []chunkDoc
	err = s.retry.Do(ctx, "mongo vector search", func(ctx context.Context) error {
		cursor, err := s.collection.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		docs = docs[:0]
		return cursor.All(ctx, &docs)
	})
	if err != nil {
		s.log.WithErr(err).Error("Vector search failed")
		return nil, fmt.Errorf("failed to search corpus: %w", err)
	}

	chunks := make([]*schema.Chunk, 0, len(docs))
	for _, d := range docs {
		c := d.toChunk()
		c.Metadata[schema.KeyScore] = d.Score
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// ChunksByFileID returns every chunk of one document in chunk_index order.
func (s *MongoStore) ChunksByFileID(ctx context.Context, fileID, owner string) ([]*schema.Chunk, error) {
	match := bson.M{"metadata." + schema.KeyFileID: fileID}
	if owner != "" {
		match["metadata."+schema.KeyOwnerUserID] = owner
	}
	opts := options.Find().SetSort(bson.D{{Key: "metadata." + schema.KeyChunkIndex, Value: 1}})

	var docs []chunkDoc
	err := s.retry.Do(ctx, "mongo find by file", func(ctx context.Context) error {
		cursor, err := s.collection.Find(ctx, match, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		docs = docs[:0]
		return cursor.All(ctx, &docs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for file %s: %w", fileID, err)
	}

	chunks := make([]*schema.Chunk, 0, len(docs))
	for _, d := range docs {
		chunks = append(chunks, d.toChunk())
	}
	return chunks, nil
}

// ListFiles groups stored chunks by file identity and summarizes each file,
// newest upload first.
func (s *MongoStore) ListFiles(ctx context.Context, owner string) ([]models.FileInfo, error) {
	match := bson.M{"metadata." + schema.KeyFileID: bson.M{"$exists": true}}
	if owner != "" {
		match["metadata."+schema.KeyOwnerUserID] = owner
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":              "$metadata." + schema.KeyFileID,
			"filename":         bson.M{"$first": "$metadata." + schema.KeyFilename},
			"file_type":        bson.M{"$first": "$metadata." + schema.KeyFileType},
			"upload_timestamp": bson.M{"$first": "$metadata." + schema.KeyUploadTimestamp},
			"chunk_count":      bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"upload_timestamp": -1}}},
	}

	var rows []struct {
		FileID          string    `bson:"_id"`
		Filename        string    `bson:"filename"`
		FileType        string    `bson:"file_type"`
		UploadTimestamp time.Time `bson:"upload_timestamp"`
		ChunkCount      int       `bson:"chunk_count"`
	}
	err := s.retry.Do(ctx, "mongo list files", func(ctx context.Context) error {
		cursor, err := s.collection.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		rows = rows[:0]
		return cursor.All(ctx, &rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]models.FileInfo, 0, len(rows))
	for _, r := range rows {
		files = append(files, models.FileInfo{
			FileID:          r.FileID,
			Filename:        r.Filename,
			FileType:        r.FileType,
			UploadTimestamp: r.UploadTimestamp,
			ChunkCount:      r.ChunkCount,
		})
	}
	return files, nil
}

// CountAll returns the total number of stored chunks.
func (s *MongoStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.retry.Do(ctx, "mongo count", func(ctx context.Context) error {
		var err error
		n, err = s.collection.CountDocuments(ctx, bson.M{})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// DeleteAll clears the corpus and reports how many chunks were removed.
func (s *MongoStore) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.retry.Do(ctx, "mongo delete all", func(ctx context.Context) error {
		res, err := s.collection.DeleteMany(ctx, bson.M{})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear corpus: %w", err)
	}
	s.log.Info(fmt.Sprintf("Cleared corpus, %d chunks removed", deleted))
	return deleted, nil
}

// DeleteByFileIDs removes every chunk of the given files, restricted to the
// owner when non-empty.
func (s *MongoStore) DeleteByFileIDs(ctx context.Context, fileIDs []string, owner string) (int64, error) {
	if len(fileIDs) == 0 {
		return 0, nil
	}
	match := bson.M{"metadata." + schema.KeyFileID: bson.M{"$in": fileIDs}}
	if owner != "" {
		match["metadata."+schema.KeyOwnerUserID] = owner
	}

	var deleted int64
	err := s.retry.Do(ctx, "mongo delete by file", func(ctx context.Context) error {
		res, err := s.collection.DeleteMany(ctx, match)
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete file chunks: %w", err)
	}
	return deleted, nil
}

// buildSearchFilter translates a Filter into the $vectorSearch filter
// document. Empty fields place no restriction.
func buildSearchFilter(f interfaces.Filter) bson.M {
	filter := bson.M{}
	if f.FileID != "" {
		filter["metadata."+schema.KeyFileID] = f.FileID
	}
	if f.OwnerUserID != "" {
		filter["metadata."+schema.KeyOwnerUserID] = f.OwnerUserID
	}
	return filter
}

func (d chunkDoc) toChunk() *schema.Chunk {
	meta := d.Metadata
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return &schema.Chunk{
		ID:        d.ID,
		Text:      d.Text,
		Embedding: d.Embedding,
		Metadata:  meta,
	}
}

var _ interfaces.CorpusStore = (*MongoStore)(nil)
