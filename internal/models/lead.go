package models

import "time"

// Lead es un cliente potencial. Las filas las crea y muta n8n; esta API
// solo lee, parchea campos concretos y hace soft-delete (activo=false).
type Lead struct {
	BaseModel
	Nombre        string     `gorm:"size:100;not null" json:"nombre"`
	Apellidos     string     `gorm:"size:100;not null" json:"apellidos"`
	Email         *string    `gorm:"size:255" json:"email"`
	Telefono      *string    `gorm:"size:30" json:"telefono"`
	TelefonoE164  *string    `gorm:"size:20" json:"telefono_e164"`
	EstadoActual  EstadoLead `gorm:"size:30;default:'nuevo'" json:"estado_actual"`
	Activo        bool       `gorm:"default:true" json:"activo"`
	OptOut        bool       `gorm:"default:false" json:"opt_out"`
	Source        *string    `gorm:"size:100" json:"source"`
	Campana       *string    `gorm:"size:100" json:"campana"`
	Ciudad        *string    `gorm:"size:100" json:"ciudad"`
	CodigoPostal  *string    `gorm:"size:10" json:"codigo_postal"`
	Provincia     *string    `gorm:"size:100" json:"provincia"`
	LastContactAt *time.Time `json:"last_contact_at"`
}

func (Lead) TableName() string { return "leads" }

// LeadConcesionarioMarca es un interés de compra: un lead con una pareja
// concesionario/marca concreta. Un lead puede tener varios.
type LeadConcesionarioMarca struct {
	BaseModel
	LeadID               string     `gorm:"type:uuid;not null;index" json:"lead_id"`
	ConcesionarioMarcaID string     `gorm:"type:uuid;not null;index" json:"concesionario_marca_id"`
	EstadoLead           EstadoLCM  `gorm:"size:30;default:'nuevo'" json:"estado_lead"`
	ModeloInteres        *string    `gorm:"size:100" json:"modelo_interes"`
	PresupuestoMin       *float64   `json:"presupuesto_min"`
	PresupuestoMax       *float64   `json:"presupuesto_max"`
	FechaEntrada         time.Time  `gorm:"not null;default:now()" json:"fecha_entrada"`
	FechaCierre          *time.Time `json:"fecha_cierre"`
	MotivoPerdida        *string    `gorm:"size:255" json:"motivo_perdida"`

	Lead               *Lead               `gorm:"foreignKey:LeadID" json:"-"`
	ConcesionarioMarca *ConcesionarioMarca `gorm:"foreignKey:ConcesionarioMarcaID" json:"-"`
}

func (LeadConcesionarioMarca) TableName() string { return "lead_concesionario_marca" }

// IntentoCompra es la vista API de un LCM con los nombres de marca y
// concesionario ya resueltos; es lo que viaja en intentos_compra.
type IntentoCompra struct {
	ID             string     `json:"id"`
	Marca          string     `json:"marca"`
	Concesionario  string     `json:"concesionario"`
	EstadoLead     string     `json:"estado_lead"`
	ModeloInteres  *string    `json:"modelo_interes"`
	PresupuestoMin *float64   `json:"presupuesto_min"`
	PresupuestoMax *float64   `json:"presupuesto_max"`
	FechaEntrada   time.Time  `json:"fecha_entrada"`
	FechaCierre    *time.Time `json:"fecha_cierre"`
	MotivoPerdida  *string    `json:"motivo_perdida,omitempty"`
}

// LeadConIntentos es el agregado que devuelven los listados: el lead más
// su array intentos_compra (siempre [], nunca null, cuando no hay filas).
type LeadConIntentos struct {
	Lead
	IntentosCompra []IntentoCompra `json:"intentos_compra"`
}
