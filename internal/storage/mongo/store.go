package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"formbase/internal/storage"
	"formbase/pkg/model"
)

// Store is the MongoDB-backed response store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, dbName, collName string) (*Store, error) {
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	s := &Store{
		client: client,
		coll:   client.Database(dbName).Collection(collName),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Kind() storage.Kind {
	return storage.KindDocument
}

// List executes the compiled filter with sort and pagination options. The
// count query carries no data dependency on the page query, so the two
// run concurrently.
func (s *Store) List(ctx context.Context, q storage.ListQuery) ([]*model.Response, int64, error) {
	query := Compile(q.FormID, q.Filters)

	type countResult struct {
		total int64
		err   error
	}
	countCh := make(chan countResult, 1)
	go func() {
		total, err := s.coll.CountDocuments(ctx, query)
		countCh <- countResult{total, err}
	}()

	findOpts := options.Find().
		SetSort(bson.D{{Key: sortField(q.SortBy), Value: sortDirection(q.SortOrder)}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))

	cursor, err := s.coll.Find(ctx, query, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var docs []*model.Response
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	count := <-countCh
	if count.err != nil {
		return nil, 0, count.err
	}

	return docs, count.total, nil
}

func (s *Store) Create(ctx context.Context, resp *model.Response) error {
	_, err := s.coll.InsertOne(ctx, resp)
	if mongo.IsDuplicateKeyError(err) {
		return model.ErrExists
	}
	return err
}

func (s *Store) Get(ctx context.Context, formID, id string) (*model.Response, error) {
	var resp model.Response
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "formId": formID}).Decode(&resp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &resp, nil
}

// EnsureIndexes creates necessary indexes
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "formId", Value: 1}}},
		{Keys: bson.D{{Key: "formId", Value: 1}, {Key: "submittedAt", Value: -1}}},
	})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// sortField maps the caller's sort key to a BSON field path. Dynamic
// "data.<fieldId>" references sort on the raw stored value.
func sortField(sortBy string) string {
	if sortBy == "id" {
		return "_id"
	}
	return sortBy
}

func sortDirection(order string) int {
	if order == "asc" {
		return 1
	}
	return -1
}
