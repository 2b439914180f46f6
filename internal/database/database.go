package database

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/logging"
)

var Client *mongo.Client
var DB *mongo.Database

// Connect opens the MongoDB client holding household buckets. The database name
// is taken from the URI path when present, otherwise defaultDB.
func Connect(mongoURI, defaultDB string) error {
	// Use longer timeout for Atlas connections
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	logging.L().Info("connecting to MongoDB", zap.String("uri", MaskURI(mongoURI)))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return err
	}

	Client = client
	DB = client.Database(DatabaseName(mongoURI, defaultDB))

	logging.L().Info("connected to MongoDB", zap.String("database", DB.Name()))
	return nil
}

func Disconnect() error {
	if Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}

// DatabaseName extracts the database from a mongodb:// or mongodb+srv:// URI.
func DatabaseName(mongoURI, defaultDB string) string {
	rest := mongoURI
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return defaultDB
	}
	name := strings.Split(rest[idx+1:], "?")[0]
	if name == "" {
		return defaultDB
	}
	return name
}

// MaskURI hides the password of a connection string for logging.
func MaskURI(uri string) string {
	scheme := ""
	rest := uri
	if idx := strings.Index(rest, "://"); idx != -1 {
		scheme, rest = rest[:idx+3], rest[idx+3:]
	}
	at := strings.LastIndex(rest, "@")
	if at == -1 {
		return uri
	}
	userInfo := rest[:at]
	if colon := strings.Index(userInfo, ":"); colon != -1 {
		userInfo = userInfo[:colon] + ":***"
	}
	return scheme + userInfo + rest[at:]
}
