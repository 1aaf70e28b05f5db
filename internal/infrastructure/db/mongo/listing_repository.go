package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/phonely/marketplace/internal/core/domain"
	"github.com/phonely/marketplace/internal/core/ports"
)

const collectionListings = "listings"

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

// Create inserts a new listing document. The id is assigned by the service
// layer (uuid) so listings keep string ids end to end.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if l.ID == "" {
		l.ID = newDocumentID()
	}
	_, err := r.col.InsertOne(ctx, l)
	return err
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.Listing
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": l.ID}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// List runs a filtered, paged query sorted by newest first.
func (r *ListingRepository) List(ctx context.Context, f ports.ListingFilter) ([]domain.Listing, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.SellerID != "" {
		filter["seller_id"] = f.SellerID
	}
	if f.Brand != "" {
		filter["brand"] = f.Brand
	}
	if f.Condition != "" {
		filter["condition"] = f.Condition
	}
	if f.MinPricePKR > 0 || f.MaxPricePKR > 0 {
		price := bson.M{}
		if f.MinPricePKR > 0 {
			price["$gte"] = f.MinPricePKR
		}
		if f.MaxPricePKR > 0 {
			price["$lte"] = f.MaxPricePKR
		}
		filter["price_pkr"] = price
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"brand": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"model": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	if !f.CreatedFrom.IsZero() || !f.CreatedTo.IsZero() {
		created := bson.M{}
		if !f.CreatedFrom.IsZero() {
			created["$gte"] = f.CreatedFrom
		}
		if !f.CreatedTo.IsZero() {
			created["$lte"] = f.CreatedTo
		}
		filter["created_at"] = created
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var items []domain.Listing
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// EnsureIndexes creates the indexes backing browse queries.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seller_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "brand", Value: 1}, {Key: "price_pkr", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
