package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"StudyMind/internal/config"
)

// Client wraps a connected MongoDB client together with the database it was
// configured for. It is built once at startup and passed to the components
// that need it.
type Client struct {
	*mongo.Client
	database string
}

// NewClient connects to MongoDB with the configured URI and verifies the
// connection with a ping before returning.
func NewClient(ctx context.Context, cfg *config.MongoConfig) (*Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err = c.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{Client: c, database: cfg.Database}, nil
}

// Collection returns a handle to the named collection in the configured
// database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.Database(c.database).Collection(name)
}

// HealthCheck verifies the connection is still alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("MongoDB client is not initialized")
	}
	return c.Ping(ctx, nil)
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Disconnect(ctx)
}
