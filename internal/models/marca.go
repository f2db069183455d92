package models

// Marca de vehículo
type Marca struct {
	BaseModel
	Nombre string `gorm:"size:100;not null;uniqueIndex" json:"nombre"`
}

func (Marca) TableName() string { return "marcas" }

// Concesionario
type Concesionario struct {
	BaseModel
	Nombre string `gorm:"size:150;not null" json:"nombre"`
}

func (Concesionario) TableName() string { return "concesionarios" }

// ConcesionarioMarca representa "este concesionario vende esta marca".
// Es el prerequisito de cualquier interés de compra.
type ConcesionarioMarca struct {
	BaseModel
	ConcesionarioID string `gorm:"type:uuid;not null;index:idx_conc_marca,unique" json:"concesionario_id"`
	MarcaID         string `gorm:"type:uuid;not null;index:idx_conc_marca,unique" json:"marca_id"`
	Activo          bool   `gorm:"default:true" json:"activo"`

	Concesionario *Concesionario `gorm:"foreignKey:ConcesionarioID" json:"-"`
	Marca         *Marca         `gorm:"foreignKey:MarcaID" json:"-"`
}

func (ConcesionarioMarca) TableName() string { return "concesionarios_marcas" }
