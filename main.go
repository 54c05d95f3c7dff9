package main

import (
	"log"

	"github.com/Danuuuq/BACKEND-for-project-with-recipes/cmd/config"
	migration "github.com/Danuuuq/BACKEND-for-project-with-recipes/cmd/database/migrate"
	"github.com/Danuuuq/BACKEND-for-project-with-recipes/internal/utils"
)

func main() {
	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("error connecting to database: %v", err)
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatalf("error migrating database: %v", err)
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatalf("error creating app: %v", err)
	}

	port := utils.GetConfig("APP_PORT")
	if port == "" {
		port = "8000"
	}

	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
