package store

import (
	"context"
	"fmt"

	"agriconnect_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ProductsCollection = "products"

// MongoProductReader lit les produits historiques, référencés par ObjectID
// dans les commandes antérieures au catalogue ScyllaDB.
type MongoProductReader struct {
	products *mongo.Collection
}

func NewMongoProductReader(db *mongo.Database) *MongoProductReader {
	return &MongoProductReader{products: db.Collection(ProductsCollection)}
}

type productDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Image string             `bson:"image"`
}

// ProductsByIDs ignore les identifiants qui ne sont pas des ObjectID.
func (r *MongoProductReader) ProductsByIDs(ctx context.Context, ids []string) (map[string]models.ProductSummary, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	result := make(map[string]models.ProductSummary, len(oids))
	if len(oids) == 0 {
		return result, nil
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "image": 1})
	cursor, err := r.products.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("lecture des produits: %w", err)
	}

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("décodage des produits: %w", err)
	}
	for _, d := range docs {
		id := d.ID.Hex()
		result[id] = models.ProductSummary{ID: id, Name: d.Name, Image: d.Image}
	}
	return result, nil
}
