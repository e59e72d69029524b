package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/zaboj/internal/inventory"
	"github.com/erazemk/zaboj/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, store *inventory.Store, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	boxesHandler := &BoxesHandler{Store: store}
	itemsHandler := &ItemsHandler{DB: db, Store: store}
	stockHandler := &StockHandler{Store: store}
	vansHandler := &VansHandler{Store: store}
	backupHandler := &BackupHandler{Store: store}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Boxes (all roles; scanners run as workers).
	mux.Handle("GET /api/boxes", authMW(http.HandlerFunc(boxesHandler.List)))
	mux.Handle("POST /api/boxes", authMW(http.HandlerFunc(boxesHandler.Create)))
	mux.Handle("GET /api/boxes/{barcode}", authMW(http.HandlerFunc(boxesHandler.Get)))
	mux.Handle("PUT /api/boxes/{barcode}/name", authMW(http.HandlerFunc(boxesHandler.Rename)))
	mux.Handle("PUT /api/boxes/{barcode}/van", authMW(http.HandlerFunc(boxesHandler.MoveToVan)))

	// Items: read and upsert (all roles), images (manager+ to write).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/{barcode}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{barcode}", authMW(http.HandlerFunc(itemsHandler.Upsert)))
	mux.Handle("GET /api/items/{barcode}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))
	mux.Handle("PUT /api/items/{barcode}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("DELETE /api/items/{barcode}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.DeleteImage))))

	// Stock movements (all roles).
	mux.Handle("POST /api/stock/add", authMW(http.HandlerFunc(stockHandler.Add)))
	mux.Handle("POST /api/stock/remove", authMW(http.HandlerFunc(stockHandler.Remove)))
	mux.Handle("POST /api/stock/move", authMW(http.HandlerFunc(stockHandler.Move)))

	// Vans (all roles).
	mux.Handle("GET /api/vans", authMW(http.HandlerFunc(vansHandler.List)))
	mux.Handle("POST /api/vans", authMW(http.HandlerFunc(vansHandler.Add)))

	// Backups (admin only, the import and wipe paths are destructive).
	mux.Handle("GET /api/backup/export.json", authMW(requireAdmin(http.HandlerFunc(backupHandler.ExportJSON))))
	mux.Handle("GET /api/backup/export.csv", authMW(requireAdmin(http.HandlerFunc(backupHandler.ExportCSV))))
	mux.Handle("POST /api/backup/import.csv", authMW(requireAdmin(http.HandlerFunc(backupHandler.ImportCSV))))
	mux.Handle("POST /api/backup/restore.json", authMW(requireAdmin(http.HandlerFunc(backupHandler.RestoreJSON))))
	mux.Handle("POST /api/backup/wipe", authMW(requireAdmin(http.HandlerFunc(backupHandler.Wipe))))

	return mux
}
