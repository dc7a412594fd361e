package storage

import (
	"context"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/records"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

type recordDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId"`
	Title       string             `bson:"title"`
	Amount      float64            `bson:"amount"`
	Category    string             `bson:"category,omitempty"`
	Date        time.Time          `bson:"date"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (d *recordDoc) model(kind models.Kind) models.Record {
	return models.Record{
		ID:          d.ID.Hex(),
		UserID:      d.UserID.Hex(),
		Kind:        kind,
		Title:       d.Title,
		Amount:      d.Amount,
		Category:    d.Category,
		Date:        d.Date.UTC(),
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// Mongo is the MongoDB Store.
type Mongo struct {
	cli    *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

// ConnectMongo dials uri, pings the server and prepares the collections.
func ConnectMongo(ctx context.Context, uri, database string, logger *zap.Logger) (*Mongo, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}

	m := NewMongo(cli, database, logger)
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

// NewMongo wraps an already connected client.
func NewMongo(cli *mongo.Client, database string, logger *zap.Logger) *Mongo {
	return &Mongo{
		cli:    cli,
		db:     cli.Database(database),
		logger: logger,
		now:    time.Now,
	}
}

func (m *Mongo) users() *mongo.Collection {
	return m.db.Collection("users")
}

func (m *Mongo) collection(kind models.Kind) *mongo.Collection {
	if kind == models.KindExpense {
		return m.db.Collection("expenses")
	}
	return m.db.Collection("incomes")
}

// EnsureIndexes creates the indexes the queries rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "users index")
	}

	byDate := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}}
	if _, err := m.collection(models.KindIncome).Indexes().CreateOne(ctx, byDate); err != nil {
		return errors.Wrap(err, "incomes index")
	}
	_, err = m.collection(models.KindExpense).Indexes().CreateMany(ctx, []mongo.IndexModel{
		byDate,
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "category", Value: 1}}},
	})
	return errors.Wrap(err, "expenses index")
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.cli.Disconnect(ctx)
}

func (m *Mongo) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    m.now().UTC(),
	}
	if _, err := m.users().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, errors.Wrap(err, "mongo couldn't InsertOne in CreateUser")
	}
	return doc.model(), nil
}

func (m *Mongo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.findUser(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (m *Mongo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.D{{Key: "username", Value: username}})
}

func (m *Mongo) findUser(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDoc
	err := m.users().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongo couldn't FindOne user")
	}
	return doc.model(), nil
}

func (m *Mongo) UserCount(ctx context.Context) (int, error) {
	n, err := m.users().CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, errors.Wrap(err, "mongo couldn't CountDocuments users")
	}
	return int(n), nil
}

func (m *Mongo) CreateRecord(ctx context.Context, r *models.Record) error {
	owner, err := primitive.ObjectIDFromHex(r.UserID)
	if err != nil {
		return errors.Wrap(err, "record owner")
	}
	now := m.now().UTC().Truncate(time.Millisecond)
	doc := recordDoc{
		ID:          primitive.NewObjectID(),
		UserID:      owner,
		Title:       r.Title,
		Amount:      r.Amount,
		Category:    r.Category,
		Date:        r.Date,
		Description: r.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := m.collection(r.Kind).InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "mongo couldn't InsertOne record")
	}
	r.ID = doc.ID.Hex()
	r.CreatedAt, r.UpdatedAt = now, now
	return nil
}

// ownedFilter matches the record id only when it belongs to owner. Ids that
// are not valid ObjectIDs cannot match anything.
func ownedFilter(owner, id string) (bson.D, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	uid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "userId", Value: uid}}, true
}

func (m *Mongo) GetRecord(ctx context.Context, owner string, kind models.Kind, id string) (*models.Record, error) {
	filter, ok := ownedFilter(owner, id)
	if !ok {
		return nil, ErrNotFound
	}
	var doc recordDoc
	err := m.collection(kind).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "mongo couldn't FindOne record")
	}
	r := doc.model(kind)
	return &r, nil
}

func (m *Mongo) UpdateRecord(ctx context.Context, owner string, r *models.Record) error {
	filter, ok := ownedFilter(owner, r.ID)
	if !ok {
		return ErrNotFound
	}
	r.UpdatedAt = m.now().UTC().Truncate(time.Millisecond)

	set := bson.D{
		{Key: "title", Value: r.Title},
		{Key: "amount", Value: r.Amount},
		{Key: "date", Value: r.Date},
		{Key: "description", Value: r.Description},
		{Key: "updatedAt", Value: r.UpdatedAt},
	}
	if r.Kind == models.KindExpense {
		set = append(set, bson.E{Key: "category", Value: r.Category})
	}

	res, err := m.collection(r.Kind).UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return errors.Wrap(err, "mongo couldn't UpdateOne record")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteRecord(ctx context.Context, owner string, kind models.Kind, id string) error {
	filter, ok := ownedFilter(owner, id)
	if !ok {
		return ErrNotFound
	}
	res, err := m.collection(kind).DeleteOne(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "mongo couldn't DeleteOne record")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// recordFilter translates q into a MongoDB filter. The owner predicate
// always comes first.
func recordFilter(q records.Query) (bson.D, error) {
	owner, err := primitive.ObjectIDFromHex(q.Owner())
	if err != nil {
		return nil, errors.Wrap(err, "query owner")
	}
	filter := bson.D{{Key: "userId", Value: owner}}

	if q.Start() != nil || q.End() != nil {
		var date bson.D
		if s := q.Start(); s != nil {
			date = append(date, bson.E{Key: "$gte", Value: *s})
		}
		if e := q.End(); e != nil {
			date = append(date, bson.E{Key: "$lte", Value: *e})
		}
		filter = append(filter, bson.E{Key: "date", Value: date})
	}
	if c := q.Category(); c != "" {
		filter = append(filter, bson.E{Key: "category", Value: c})
	}
	return filter, nil
}

func (m *Mongo) FindRecords(ctx context.Context, q records.Query) ([]models.Record, error) {
	filter, err := recordFilter(q)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if l := q.Limit(); l > 0 {
		opts.SetLimit(int64(l))
	}

	cursor, err := m.collection(q.Kind()).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo couldn't Find records")
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			m.logger.Error("mongo couldn't close cursor", zap.Error(err))
		}
	}()

	result := make([]models.Record, 0)
	for cursor.Next(ctx) {
		var doc recordDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "mongo couldn't Decode record")
		}
		result = append(result, doc.model(q.Kind()))
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "cursor err in FindRecords")
	}
	return result, nil
}
