package catalog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mardix/equiptest/internal/document"
	"github.com/mardix/equiptest/internal/errs"
)

// MongoRepo implements Repository over a set of reference-data collections.
// Reference data is written by back-office tooling; this repo only reads it.
type MongoRepo struct {
	equipment    *mongo.Collection
	sessionTypes *mongo.Collection
	docTypes     *mongo.Collection
	testTypes    *mongo.Collection
	associations *mongo.Collection
	templates    *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	r := &MongoRepo{
		equipment:    db.Collection("equipment"),
		sessionTypes: db.Collection("session_types"),
		docTypes:     db.Collection("document_types"),
		testTypes:    db.Collection("test_types"),
		associations: db.Collection("document_associations"),
		templates:    db.Collection("document_templates"),
	}
	// lookup indexes (id is expected unique; associations and templates are
	// queried by their natural keys)
	ctx := context.Background()
	for _, col := range []*mongo.Collection{r.equipment, r.sessionTypes, r.docTypes, r.testTypes} {
		idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
		col.Indexes().CreateOne(ctx, idx)
	}
	r.associations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sessionTypeId", Value: 1}, {Key: "testTypeId", Value: 1}},
	})
	r.templates.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "woNumber", Value: 1}, {Key: "m0", Value: 1}, {Key: "documentTypeId", Value: 1}},
	})
	return r
}

func (r *MongoRepo) GetEquipment(ctx context.Context, id string) (*Equipment, error) {
	var e Equipment
	if err := r.equipment.FindOne(ctx, bson.M{"id": id}).Decode(&e); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("equipment %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	return &e, nil
}

func (r *MongoRepo) GetSessionType(ctx context.Context, id string) (*SessionType, error) {
	var st SessionType
	if err := r.sessionTypes.FindOne(ctx, bson.M{"id": id}).Decode(&st); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("session type %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	return &st, nil
}

func (r *MongoRepo) GetDocumentType(ctx context.Context, id string) (*DocumentType, error) {
	var dt DocumentType
	if err := r.docTypes.FindOne(ctx, bson.M{"id": id}).Decode(&dt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("document type %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	return &dt, nil
}

func (r *MongoRepo) ListTestTypes(ctx context.Context) ([]TestType, error) {
	cur, err := r.testTypes.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "ordinal", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []TestType{}
	for cur.Next(ctx) {
		var tt TestType
		if err := cur.Decode(&tt); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, cur.Err()
}

func (r *MongoRepo) ListAssociations(ctx context.Context, sessionTypeID string) ([]Association, error) {
	cur, err := r.associations.Find(ctx, bson.M{"sessionTypeId": sessionTypeID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Association{}
	for cur.Next(ctx) {
		var a Association
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, cur.Err()
}

func (r *MongoRepo) LoadTemplate(ctx context.Context, woNumber, m0, documentTypeID string) (*document.Document, error) {
	var t Template
	filter := bson.M{"woNumber": woNumber, "m0": m0, "documentTypeId": documentTypeID}
	if err := r.templates.FindOne(ctx, filter).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &t.Document, nil
}
