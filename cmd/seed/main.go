package main

import (
	"log"

	"github.com/feocourse/feocourse-api/config"
	"github.com/feocourse/feocourse-api/database"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	if err := database.Seed(db); err != nil {
		log.Fatal("Seeding failed:", err)
	}

	log.Println("Seeding completed")
}
