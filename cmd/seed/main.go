package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/config"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/database"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/models"
)

// Siembra un dataset pequeño para desarrollo local: dos marcas, dos
// concesionarios, unos cuantos leads con llamadas y mensajes.
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

	if err := seed(db); err != nil {
		log.Fatal("Fallo al sembrar datos:", err)
	}
	log.Println("[SEED] Datos de demostración insertados")
}

func seed(db *gorm.DB) error {
	marcas := []models.Marca{{Nombre: "Renault"}, {Nombre: "Dacia"}}
	for i := range marcas {
		if err := db.Where("nombre = ?", marcas[i].Nombre).FirstOrCreate(&marcas[i]).Error; err != nil {
			return err
		}
	}

	concesionarios := []models.Concesionario{
		{Nombre: "Automóviles Central Madrid"},
		{Nombre: "Motor Sur Sevilla"},
	}
	for i := range concesionarios {
		if err := db.Where("nombre = ?", concesionarios[i].Nombre).FirstOrCreate(&concesionarios[i]).Error; err != nil {
			return err
		}
	}

	var relaciones []models.ConcesionarioMarca
	for i := range concesionarios {
		for j := range marcas {
			rel := models.ConcesionarioMarca{
				ConcesionarioID: concesionarios[i].ID,
				MarcaID:         marcas[j].ID,
				Activo:          true,
			}
			if err := db.Where("concesionario_id = ? AND marca_id = ?", rel.ConcesionarioID, rel.MarcaID).
				FirstOrCreate(&rel).Error; err != nil {
				return err
			}
			relaciones = append(relaciones, rel)
		}
	}

	leads := []models.Lead{
		{Nombre: "María", Apellidos: "González López", EstadoActual: models.EstadoLeadEnSeguimiento, Activo: true},
		{Nombre: "Carlos", Apellidos: "Fernández Ruiz", EstadoActual: models.EstadoLeadNuevo, Activo: true},
		{Nombre: "Lucía", Apellidos: "Martín Díaz", EstadoActual: models.EstadoLeadConvertido, Activo: true},
	}
	emails := []string{"maria.gonzalez@example.com", "carlos.fernandez@example.com", "lucia.martin@example.com"}
	telefonos := []string{"600 111 222", "600 333 444", "600 555 666"}

	for i := range leads {
		leads[i].Email = &emails[i]
		leads[i].Telefono = &telefonos[i]
		if err := db.Where("email = ?", emails[i]).FirstOrCreate(&leads[i]).Error; err != nil {
			return err
		}

		modelo := "Clio"
		lcm := models.LeadConcesionarioMarca{
			LeadID:               leads[i].ID,
			ConcesionarioMarcaID: relaciones[i%len(relaciones)].ID,
			EstadoLead:           models.EstadoLCMEnSeguimiento,
			ModeloInteres:        &modelo,
			FechaEntrada:         time.Now().AddDate(0, 0, -7*i),
		}
		if err := db.Where("lead_id = ? AND concesionario_marca_id = ?", lcm.LeadID, lcm.ConcesionarioMarcaID).
			FirstOrCreate(&lcm).Error; err != nil {
			return err
		}

		duracion := 40 + 10*i
		llamada := models.Llamada{
			LeadID:           leads[i].ID,
			LcmID:            &lcm.ID,
			EstadoLlamada:    models.EstadoLlamadaExitosa,
			DuracionSegundos: &duracion,
			FechaLlamada:     time.Now().AddDate(0, 0, -i),
		}
		if err := db.Create(&llamada).Error; err != nil {
			return err
		}

		meta, _ := json.Marshal(map[string]interface{}{"automated": true})
		mensaje := models.LeadMessage{
			LeadID:       leads[i].ID,
			LcmID:        &lcm.ID,
			Tipo:         models.TipoMensajeWhatsApp,
			Mensaje:      "Hola, gracias por tu interés. ¿Cuándo te viene bien una llamada?",
			SenderType:   models.SenderSystem,
			Metadata:     meta,
			FechaMensaje: time.Now().AddDate(0, 0, -i),
		}
		if err := db.Create(&mensaje).Error; err != nil {
			return err
		}
	}

	return nil
}
