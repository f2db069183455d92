package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/config"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/database"
)

// Herramienta de migración para entornos locales. En producción el
// esquema lo gestiona n8n.
func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Fichero .env no encontrado, usando variables del sistema")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Fallo al conectar con la base de datos:", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("Fallo al ejecutar las migraciones:", err)
	}
}
