package api

import (
	"database/sql"
	"net/http"

	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/scheduler"
)

// NewRouter creates the API router with all endpoints registered. dataDir is
// where the recommendation engine persists its factor matrices. sched may be
// nil (e.g. in tests); the admin status endpoint then reports it stopped.
func NewRouter(db *sql.DB, jwtSecret, dataDir string, sched *scheduler.Scheduler) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, DataDir: dataDir}
	bidsHandler := &BidsHandler{DB: db}
	pairsHandler := &PairsHandler{DB: db}
	recsHandler := &RecommendationsHandler{DB: db, DataDir: dataDir}
	adminHandler := &AdminHandler{DB: db, DataDir: dataDir, Scheduler: sched}

	authMW := AuthMiddleware(jwtSecret, db)
	optionalAuthMW := OptionalAuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: registration and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated session management.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Listings: browsing is public, authenticated visitors feed the
	// recommendation signals; listing and editing require an account.
	mux.Handle("GET /api/items", optionalAuthMW(http.HandlerFunc(itemsHandler.List)))
	mux.HandleFunc("GET /api/categories", itemsHandler.Categories)
	mux.Handle("GET /api/items/{id}", optionalAuthMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("GET /api/items/{id}/image", http.HandlerFunc(itemsHandler.GetImage))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("POST /api/items/{id}/publish", authMW(http.HandlerFunc(itemsHandler.Publish)))

	// Bidding.
	mux.Handle("POST /api/items/{id}/bids", authMW(http.HandlerFunc(bidsHandler.Place)))
	mux.Handle("GET /api/items/{id}/bids", authMW(http.HandlerFunc(bidsHandler.ListForItem)))
	mux.Handle("GET /api/bids", authMW(http.HandlerFunc(bidsHandler.ListMine)))

	// Personalized recommendations.
	mux.Handle("GET /api/recommendations", authMW(http.HandlerFunc(recsHandler.List)))

	// Winning pairs: each trade partner sees and hides their own side.
	mux.Handle("GET /api/winning-pairs", authMW(http.HandlerFunc(pairsHandler.List)))
	mux.Handle("DELETE /api/winning-pairs/{id}", authMW(http.HandlerFunc(pairsHandler.Hide)))

	// Administration.
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))
	mux.Handle("POST /api/items/{id}/close", authMW(requireAdmin(http.HandlerFunc(adminHandler.CloseItem))))
	mux.Handle("POST /api/admin/train", authMW(requireAdmin(http.HandlerFunc(adminHandler.Train))))
	mux.Handle("GET /api/admin/status", authMW(requireAdmin(http.HandlerFunc(adminHandler.Status))))

	return mux
}
