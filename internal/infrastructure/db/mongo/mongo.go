// Package mongo keeps client state in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "tablebook-web"
)

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Conn is an open client bound to the state database.
type Conn struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and fails unless the primary answers a ping within
// cfg.Timeout.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	conn := &Conn{client: client, db: client.Database(cfg.Database)}
	if err := conn.Ping(connectCtx); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, err
	}
	return conn, nil
}

// Store opens the key/value store on the given collection.
func (c *Conn) Store(collection string) *Store {
	return NewStore(c.db, collection)
}

// Ping doubles as the readiness probe.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func (c *Conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
