package models

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DefaultDbName          = "handyhub"
	BookingColName         = "bookings"
	MessageColName         = "messages"
	NotificationColName    = "notifications"
	ProviderColName        = "providers"
	UserColName            = "users"
	ProfileTable           = "profiles"
	MaxPageSize            = 100
	MaxPage                = 1_000_000
	DefaultBookingPageSize = 10
	DefaultMessagePageSize = 30
	DefaultNotifyPageSize  = 20
)

var Validate = newValidator()

// validation errors report the json name of a field rather than the Go one
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type SupabaseRepo struct {
	supabaseClient *supabase.Client
}

func SupabaseNewRepo(supabaseClient *supabase.Client) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
	}
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	if dbName == "" {
		dbName = DefaultDbName
	}
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, errors.New("mongodb client is not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context done before collection lookup")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page int
	Size int
}

func (p Pagination) Validate() error {
	fields := map[string]string{}
	if p.Page < 1 {
		fields["page"] = "must be at least 1"
	} else if p.Page > MaxPage {
		fields["page"] = "must be at most 1000000"
	}
	if p.Size < 1 {
		fields["size"] = "must be greater than 0"
	} else if p.Size > MaxPageSize {
		fields["size"] = "must be at most 100"
	}
	if len(fields) > 0 {
		return ValidationFailed(fields)
	}
	return nil
}

func (p Pagination) Skip() int64 {
	return int64(p.Page-1) * int64(p.Size)
}
