package controllers

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"WaifuBracket/cache"
	"WaifuBracket/middlewares"
	"WaifuBracket/models"
	"WaifuBracket/scheduler"
	"WaifuBracket/seed"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Server struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Scheduler *scheduler.Scheduler
}

//
// ===============================
// SECURE ADMIN SEEDING
// ===============================
//

func seedAdmin(db *gorm.DB) error {
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))

	// If environment vars aren't provided, do nothing.
	if adminEmail == "" || adminPassword == "" {
		log.Println("[seedAdmin] ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin creation.")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		if !existing.IsAdmin {
			log.Println("[seedAdmin] Ensuring admin flag is set for:", adminEmail)
			return db.Model(&existing).Update("is_admin", true).Error
		}
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	log.Println("[seedAdmin] Creating initial admin:", adminEmail)
	admin := models.User{
		Username: strings.Split(adminEmail, "@")[0],
		Email:    adminEmail,
		Password: adminPassword,
	}
	admin.Prepare()
	if msgs := admin.Validate(""); len(msgs) > 0 {
		log.Printf("[seedAdmin] validation failed: %+v\n", msgs)
		return nil
	}
	if _, err := admin.SaveUser(db); err != nil {
		log.Printf("[seedAdmin] failed to create admin: %v\n", err)
		return err
	}
	return db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error
}

//
// ===============================
// SERVER INITIALIZATION
// ===============================
//

func (server *Server) Initialize(DbUser, DbPassword, DbPort, DbHost, DbName string) {
	var db *gorm.DB
	var err error

	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		dsn := os.Getenv("DATABASE_URL")
		if dsn != "" && !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	} else if DbHost == "" {
		// Local convenience: no postgres configured, fall back to a file.
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "waifubracket.db"
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	} else {
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			DbHost, DbUser, DbPassword, DbName, DbPort,
		)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	server.DB = db

	if err := server.DB.AutoMigrate(
		&models.User{},
		&models.Waifu{},
		&models.Alias{},
		&models.Bracket{},
		&models.BracketEntry{},
		&models.Vote{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	// Redis init (safe failure)
	if err := cache.InitFromEnv(); err != nil {
		log.Printf("warning: could not connect to redis: %v", err)
	}

	if err := seedAdmin(server.DB); err != nil {
		log.Printf("error seeding admin user: %v\n", err)
	}

	if strings.EqualFold(os.Getenv("SEED_DB"), "true") {
		seed.Load(server.DB)
	}

	server.Scheduler = scheduler.New(server.DB)
	if err := server.Scheduler.Start(); err != nil {
		log.Printf("warning: round scheduler not started: %v", err)
	}

	server.Router = gin.Default()
	server.Router.Use(middlewares.CORSMiddleware())
	server.Router.Use(middlewares.RequestIDMiddleware())
	server.initializeRoutes()
}

func (server *Server) Run(addr string) {
	log.Fatal(http.ListenAndServe(addr, server.Router))
}
