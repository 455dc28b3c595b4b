package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoAccount is a player document from the legacy MongoDB deployment.
type MongoAccount struct {
	ID          primitive.ObjectID `bson:"_id"`
	LineID      string             `bson:"line_id"`
	DisplayName string             `bson:"display_name"`
	Picture     string             `bson:"picture"`
	// The legacy app stored balances as doubles.
	JDH    float64   `bson:"jdh"`
	Joined time.Time `bson:"joined"`
}

// MongoOwnedCard is one owned card copy from the legacy "ownedcards"
// collection. Listed copies carried on_market=true instead of a separate
// listings collection.
type MongoOwnedCard struct {
	ID       primitive.ObjectID `bson:"_id"`
	UserID   string             `bson:"user_id"`
	CardID   string             `bson:"card_id"`
	Serial   string             `bson:"serial"`
	Variant  string             `bson:"variant"`
	OnMarket bool               `bson:"on_market"`
	Price    float64            `bson:"price"`
	Obtained time.Time          `bson:"obtained"`
}

// MongoTopUp is a verified slip credit from the legacy "topups" collection.
type MongoTopUp struct {
	ID       primitive.ObjectID `bson:"_id"`
	UserID   string             `bson:"user_id"`
	TransRef string             `bson:"trans_ref"`
	Amount   float64            `bson:"amount"`
	Package  float64            `bson:"package"`
	Credited float64            `bson:"credited"`
	Date     time.Time          `bson:"date"`
}
