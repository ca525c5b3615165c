package futurecash

import (
	"context"
	"fmt"
	"os"
	"time"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Журнал входящих колбэков провайдеров (разбор споров)
type CallbackLogDB struct {
	mgo  *mongo.Client
	coll *mongo.Collection
}

func NewCallbackLogDB() (*CallbackLogDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mng := os.Getenv("FUTURECASH_MONGO")
	if mng == "" {
		return nil, fmt.Errorf("env FUTURECASH_MONGO is not set")
	}

	options := options.Client().ApplyURI("mongodb://" + mng)
	client, err := mongo.Connect(ctx, options)
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}
	db := client.Database("futurecashDB")
	coll := db.Collection("callbacks")

	return &CallbackLogDB{client, coll}, nil
}

func (c *CallbackLogDB) SaveCallback(ctx context.Context, record model.CallbackRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := c.coll.InsertOne(ctx, record)
	return err
}

func (c *CallbackLogDB) Close(ctx context.Context) error {
	return c.mgo.Disconnect(ctx)
}
