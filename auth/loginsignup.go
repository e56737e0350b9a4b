package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"kilnhouse/db"
	"kilnhouse/globals"
	"kilnhouse/middleware"
	"kilnhouse/models"
	"kilnhouse/mq"
	"kilnhouse/rdx"
	"kilnhouse/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshTokenTTL = 7 * 24 * time.Hour
	accessTokenTTL  = 12 * time.Hour
)

func loginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if input.Username == "" || input.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	var storedUser models.User
	err := db.UserCollection.FindOne(context.TODO(), bson.M{"username": input.Username}).Decode(&storedUser)
	if err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedUser.Password), []byte(input.Password)); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	tokenString, err := generateAccessToken(storedUser)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		http.Error(w, "Error generating refresh token", http.StatusInternalServerError)
		return
	}
	hashedRefresh := hashToken(refreshToken)

	_, err = db.UserCollection.UpdateOne(
		context.TODO(),
		bson.M{"userid": storedUser.UserID},
		bson.M{"$set": bson.M{
			"refreshtoken": hashedRefresh,
			"refreshexp":   time.Now().Add(refreshTokenTTL),
			"last_login":   time.Now(),
		}},
	)
	if err != nil {
		http.Error(w, "Failed to store refresh token", http.StatusInternalServerError)
		return
	}

	if err := rdx.RdxHset("tokki", storedUser.UserID, tokenString); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":        tokenString,
		"refreshToken": refreshToken,
		"userid":       storedUser.UserID,
	}, "Login successful", nil)
}

func registerHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if input.Username == "" || input.Password == "" || input.Email == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	// username and email are both login identities
	err := db.UserCollection.FindOne(context.TODO(), bson.M{
		"$or": []bson.M{{"username": input.Username}, {"email": input.Email}},
	}).Err()
	if err == nil {
		http.Error(w, "User already exists", http.StatusConflict)
		return
	} else if err != mongo.ErrNoDocuments {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password for user %s: %v", input.Username, err)
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		UserID:        "u" + utils.GenerateRandomString(10),
		Username:      input.Username,
		Email:         input.Email,
		Password:      string(hashedPassword),
		EmailVerified: true,
		Role:          []string{"user"},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := rdx.RdxSet(fmt.Sprintf("users:%s", user.UserID), user.Username); err != nil {
		log.Printf("Failed to cache username: %v", err)
	}

	if _, err := db.UserCollection.InsertOne(context.TODO(), user); err != nil {
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	utils.SendResponse(w, http.StatusCreated, map[string]string{"userid": user.UserID}, "Registration successful", nil)
}

func logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ValidateJWT(r.Header.Get("Authorization"))
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := rdx.RdxHdel("tokki", claims.UserID); err != nil {
		log.Printf("Error removing token from Redis: %v", err)
	}

	// drop the refresh token so the session cannot be renewed
	_, err = db.UserCollection.UpdateOne(
		context.TODO(),
		bson.M{"userid": claims.UserID},
		bson.M{"$unset": bson.M{"refreshtoken": "", "refreshexp": ""}},
	)
	if err != nil {
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}

	mq.Notify("user-loggedout", models.Event{Kind: "auth", EntityID: claims.UserID})
	utils.SendResponse(w, http.StatusOK, nil, "User logged out successfully", nil)
}

// refreshTokenHandler rotates the stored refresh token and issues a fresh
// access token. Only the hash ever touches the database.
func refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.RefreshToken == "" {
		http.Error(w, "Missing refresh token", http.StatusUnauthorized)
		return
	}

	hashed := hashToken(input.RefreshToken)

	var user models.User
	err := db.UserCollection.FindOne(context.TODO(), bson.M{
		"refreshtoken": hashed,
		"refreshexp":   bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if err != nil {
		http.Error(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	tokenString, err := generateAccessToken(user)
	if err != nil {
		http.Error(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}
	newRefresh, err := generateRefreshToken()
	if err != nil {
		http.Error(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}

	_, err = db.UserCollection.UpdateOne(
		context.TODO(),
		bson.M{"userid": user.UserID},
		bson.M{"$set": bson.M{
			"refreshtoken": hashToken(newRefresh),
			"refreshexp":   time.Now().Add(refreshTokenTTL),
		}},
	)
	if err != nil {
		http.Error(w, "Failed to refresh token", http.StatusInternalServerError)
		return
	}

	if err := rdx.RdxHset("tokki", user.UserID, tokenString); err != nil {
		log.Printf("Error updating token in Redis: %v", err)
	}

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":        tokenString,
		"refreshToken": newRefresh,
	}, "Token refreshed successfully", nil)
}

// EnsureAdminUser seeds the back-office account from ADMIN_USERNAME and
// ADMIN_PASSWORD when no admin exists yet. Called once at startup.
func EnsureAdminUser(ctx context.Context) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	count, err := db.UserCollection.CountDocuments(ctx, bson.M{"role": "admin"})
	if err != nil {
		return fmt.Errorf("admin lookup: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("admin password hash: %w", err)
	}

	admin := models.User{
		UserID:        "u" + utils.GenerateRandomString(10),
		Username:      username,
		Email:         os.Getenv("ADMIN_EMAIL"),
		Password:      string(hashed),
		EmailVerified: true,
		Role:          []string{"user", "admin"},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if _, err := db.UserCollection.InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("admin insert: %w", err)
	}
	log.Printf("Seeded admin user %s", username)
	return nil
}

func generateAccessToken(user models.User) (string, error) {
	claims := &middleware.Claims{
		Username: user.Username,
		UserID:   user.UserID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}

func generateRefreshToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

func hashToken(token string) string {
	hash := sha256.New()
	hash.Write([]byte(token))
	return hex.EncodeToString(hash.Sum(nil))
}
