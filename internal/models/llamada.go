package models

import "time"

// Llamada es una llamada registrada por el sistema de telefonía de n8n
type Llamada struct {
	BaseModel
	LeadID           string        `gorm:"type:uuid;not null;index" json:"lead_id"`
	LcmID            *string       `gorm:"type:uuid;index" json:"lcm_id"`
	EstadoLlamada    EstadoLlamada `gorm:"size:20;not null" json:"estado_llamada"`
	DuracionSegundos *int          `json:"duracion_segundos"`
	Coste            *float64      `json:"coste"`
	Proveedor        *string       `gorm:"size:50" json:"proveedor"`
	LlamadaIDExterno *string       `gorm:"size:100" json:"llamada_id_externo"`
	GrabacionURL     *string       `gorm:"size:500" json:"grabacion_url"`
	Transcripcion    *string       `gorm:"type:text" json:"transcripcion"`
	FechaLlamada     time.Time     `gorm:"not null;index" json:"fecha_llamada"`

	Lead *Lead                   `gorm:"foreignKey:LeadID" json:"-"`
	Lcm  *LeadConcesionarioMarca `gorm:"foreignKey:LcmID" json:"-"`
}

func (Llamada) TableName() string { return "llamadas" }

// LlamadaConRelacion enriquece la llamada con la marca/concesionario del
// interés de compra al que pertenece, si lo tiene.
type LlamadaConRelacion struct {
	Llamada
	Marca         *string `json:"marca"`
	Concesionario *string `json:"concesionario"`
}
