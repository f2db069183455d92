package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel con los campos comunes a todas las tablas
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate genera el UUID si no viene asignado
func (base *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// Enums

// EstadoLead es el ciclo de vida global del lead
type EstadoLead string

const (
	EstadoLeadNuevo            EstadoLead = "nuevo"
	EstadoLeadContactado       EstadoLead = "contactado"
	EstadoLeadEnSeguimiento    EstadoLead = "en_seguimiento"
	EstadoLeadCalificado       EstadoLead = "calificado"
	EstadoLeadPropuestaEnviada EstadoLead = "propuesta_enviada"
	EstadoLeadConvertido       EstadoLead = "convertido"
	EstadoLeadPerdido          EstadoLead = "perdido"
)

// EstadosLead lista los valores válidos en orden de ciclo de vida
var EstadosLead = []EstadoLead{
	EstadoLeadNuevo,
	EstadoLeadContactado,
	EstadoLeadEnSeguimiento,
	EstadoLeadCalificado,
	EstadoLeadPropuestaEnviada,
	EstadoLeadConvertido,
	EstadoLeadPerdido,
}

// EstadoLeadValido comprueba si el valor pertenece al enum
func EstadoLeadValido(v string) bool {
	for _, e := range EstadosLead {
		if string(e) == v {
			return true
		}
	}
	return false
}

// EstadoLCM es el ciclo de vida de un interés de compra concreto
// (nuevo → en_seguimiento → cita_agendada → convertido | perdido)
type EstadoLCM string

const (
	EstadoLCMNuevo         EstadoLCM = "nuevo"
	EstadoLCMEnSeguimiento EstadoLCM = "en_seguimiento"
	EstadoLCMCitaAgendada  EstadoLCM = "cita_agendada"
	EstadoLCMConvertido    EstadoLCM = "convertido"
	EstadoLCMPerdido       EstadoLCM = "perdido"
)

// EstadoLlamada es el resultado de una llamada registrada
type EstadoLlamada string

const (
	EstadoLlamadaExitosa   EstadoLlamada = "successful"
	EstadoLlamadaFallida   EstadoLlamada = "failed"
	EstadoLlamadaSinResp   EstadoLlamada = "no_answer"
	EstadoLlamadaOcupado   EstadoLlamada = "busy"
	EstadoLlamadaRechazada EstadoLlamada = "rejected"
)

// TipoMensaje es el canal de un mensaje del lead
type TipoMensaje string

const (
	TipoMensajeWhatsApp TipoMensaje = "whatsapp"
	TipoMensajeEmail    TipoMensaje = "email"
	TipoMensajeSMS      TipoMensaje = "sms"
)

// SenderType indica quién originó el mensaje
type SenderType string

const (
	SenderLead   SenderType = "lead"
	SenderSystem SenderType = "system"
	SenderAgent  SenderType = "agent"
)
