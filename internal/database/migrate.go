package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/models"
)

// Migrate crea el esquema de lectura. En producción las tablas ya existen
// (las crea y puebla n8n); esto solo sirve para entornos locales y tests.
func Migrate(db *gorm.DB) error {
	log.Printf("[MIGRATION] Ejecutando AutoMigrate...")

	err := db.AutoMigrate(
		// Referencia
		&models.Marca{},
		&models.Concesionario{},
		&models.ConcesionarioMarca{},

		// Leads y su historial
		&models.Lead{},
		&models.LeadConcesionarioMarca{},
		&models.Llamada{},
		&models.LeadMessage{},
	)
	if err != nil {
		log.Printf("[MIGRATION] Error en AutoMigrate: %v", err)
		return err
	}

	log.Printf("[MIGRATION] Migración completada")
	return nil
}
