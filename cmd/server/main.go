package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/config"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/database"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/router"
	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/services"
)

func main() {
	// Cargar variables de entorno
	if err := godotenv.Load("../../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Fichero .env no encontrado, usando variables del sistema")
		}
	}

	cfg := config.Load()

	// Validar configuración antes de tocar la base de datos
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Fallo al conectar con la base de datos:", err)
	}
	if err := database.TestConnection(db); err != nil {
		log.Fatalf("[DATABASE] La verificación de conexión falló: %v", err)
	}

	// Redis es opcional; sin él no hay cache de estadísticas
	redisClient := database.ConnectRedis(cfg.RedisURL)

	container := services.NewContainer(db, redisClient, cfg)
	r := router.Setup(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("[SERVER] Escuchando en el puerto %s (%s)", cfg.Port, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Fallo al arrancar el servidor:", err)
		}
	}()

	// Apagado ordenado: dejar de aceptar, esperar a las peticiones en
	// vuelo y drenar el pool antes de salir
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[SERVER] Señal de apagado recibida")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[SERVER] Apagado forzado: %v", err)
	}

	database.Close(db)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Println("[SERVER] Apagado completado")
}
