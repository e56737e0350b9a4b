package db

import (
	"context"
	"log"
	_ "net/http/pprof"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection          *mongo.Collection
	WorkshopsCollection     *mongo.Collection
	ExperiencesCollection   *mongo.Collection
	SlotsCollection         *mongo.Collection
	BookingsCollection      *mongo.Collection
	ProductsCollection      *mongo.Collection
	OrdersCollection        *mongo.Collection
	CouponsCollection       *mongo.Collection
	CustomOrdersCollection  *mongo.Collection
	NotificationsCollection *mongo.Collection
	SettingsCollection      *mongo.Collection
	TestimonialsCollection  *mongo.Collection
	PaymentsCollection      *mongo.Collection
	CountersCollection      *mongo.Collection
	IdempotencyCollection   *mongo.Collection
	Client                  *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("db: no .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	ClientOptions := options.Client().ApplyURI(uri)
	Client, err = mongo.Connect(context.TODO(), ClientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	UserCollection = Client.Database("kilndb").Collection("users")
	WorkshopsCollection = Client.Database("kilndb").Collection("workshops")
	ExperiencesCollection = Client.Database("kilndb").Collection("experiences")
	SlotsCollection = Client.Database("kilndb").Collection("slots")
	BookingsCollection = Client.Database("kilndb").Collection("bookings")
	ProductsCollection = Client.Database("kilndb").Collection("products")
	OrdersCollection = Client.Database("kilndb").Collection("orders")
	CouponsCollection = Client.Database("kilndb").Collection("coupons")
	CustomOrdersCollection = Client.Database("kilndb").Collection("customorders")
	NotificationsCollection = Client.Database("kilndb").Collection("notifications")
	SettingsCollection = Client.Database("kilndb").Collection("settings")
	TestimonialsCollection = Client.Database("kilndb").Collection("testimonials")
	PaymentsCollection = Client.Database("kilndb").Collection("payments")
	CountersCollection = Client.Database("kilndb").Collection("counters")
	IdempotencyCollection = Client.Database("kilndb").Collection("idempotency")
}
