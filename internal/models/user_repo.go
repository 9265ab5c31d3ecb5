package models

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetUserSummaries reads profile rows from Supabase.
func (su *SupabaseRepo) GetUserSummaries(ctx context.Context, ids []string) (map[string]*UserSummary, error) {
	out := make(map[string]*UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, _, err := su.supabaseClient.From(ProfileTable).
		Select("id,fullname,email,avatar_url,profile_complete", "", false).
		In("id", ids).
		Execute()
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch profiles")
	}

	var rows []UserSummary
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode profiles")
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

type userDocument struct {
	ID              primitive.ObjectID `bson:"_id"`
	FullName        string             `bson:"fullname"`
	Email           string             `bson:"email"`
	AvatarURL       string             `bson:"avatar_url"`
	ProfileComplete bool               `bson:"profile_complete"`
}

// GetUserSummaries reads the users collection. Ids that are not ObjectIDs cannot be stored
// there and are skipped.
func (mdb *MongodbRepo) GetUserSummaries(ctx context.Context, ids []string) (map[string]*UserSummary, error) {
	out := make(map[string]*UserSummary, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}

	col, err := mdb.GetCollection(ctx, UserColName)
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find users")
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode users")
	}
	for _, d := range docs {
		out[d.ID.Hex()] = &UserSummary{
			ID:              d.ID.Hex(),
			FullName:        d.FullName,
			Email:           d.Email,
			AvatarURL:       d.AvatarURL,
			ProfileComplete: d.ProfileComplete,
		}
	}
	return out, nil
}
