package domain

// Product is the catalog's view of a sellable item. The inventory ledger caches
// the quantity and becomes authoritative for it once seeded; the other fields
// are read-only to this core.
type Product struct {
	ID        string
	Name      string
	UnitPrice int64 // cents
	Quantity  int
}
