package entity

// Tipos de ubicación.
const (
	LocationTypeWarehouse = "WAREHOUSE"
	LocationTypeStore     = "STORE"
)

// Location representa una bodega o tienda del registro externo de ubicaciones.
type Location struct {
	ID   string
	Name string
	Type string // WAREHOUSE | STORE
}
