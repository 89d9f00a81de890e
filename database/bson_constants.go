package database

// Collections MongoDB
const (
	SubscriptionsCollection = "push_subscriptions"
)

// Opérateurs MongoDB (évite les littéraux dupliqués)
const (
	BSONIn          = "$in"
	BSONSet         = "$set"
	BSONSetOnInsert = "$setOnInsert"
)
