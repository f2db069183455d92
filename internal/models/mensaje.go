package models

import (
	"encoding/json"
	"time"
)

// LeadMessage es un mensaje (WhatsApp, email, sms) asociado a un lead.
// El campo metadata guarda flags de automatización y acuses de lectura
// tal cual los escribe n8n, sin esquema fijo.
type LeadMessage struct {
	BaseModel
	LeadID       string          `gorm:"type:uuid;not null;index" json:"lead_id"`
	LcmID        *string         `gorm:"type:uuid;index" json:"lcm_id"`
	Tipo         TipoMensaje     `gorm:"size:20;not null;default:'whatsapp'" json:"tipo"`
	Mensaje      string          `gorm:"type:text;not null" json:"mensaje"`
	SenderType   SenderType      `gorm:"size:20;not null;default:'lead'" json:"sender_type"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	FechaMensaje time.Time       `gorm:"not null;index" json:"fecha_mensaje"`

	Lead *Lead                   `gorm:"foreignKey:LeadID" json:"-"`
	Lcm  *LeadConcesionarioMarca `gorm:"foreignKey:LcmID" json:"-"`
}

func (LeadMessage) TableName() string { return "lead_messages" }

// MensajeConRelacion enriquece el mensaje con marca/concesionario
type MensajeConRelacion struct {
	LeadMessage
	Marca         *string `json:"marca"`
	Concesionario *string `json:"concesionario"`
}
