package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// OpenMongo creates a client for uri and pings the primary.  Like Open, the
// client is returned even when the ping fails: the driver reconnects on its
// own once the server becomes reachable.
func OpenMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return client, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoHosts returns the host list of uri without credentials or options,
// for logging.  An unparsable uri yields nil.
func MongoHosts(uri string) []string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil
	}
	return cs.Hosts
}
