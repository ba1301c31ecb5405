package store

import (
	"context"
	"database/sql"

	"github.com/hmpharma/pharmacy-api/entities"
)

// Registry bundles the eleven resource stores over one database.
type Registry struct {
	Medicines        *Store[entities.Medicines, *entities.Medicines]
	MedicineBatches  *Store[entities.MedicineBatches, *entities.MedicineBatches]
	Customers        *Store[entities.Customers, *entities.Customers]
	Suppliers        *Store[entities.Suppliers, *entities.Suppliers]
	Purchases        *Store[entities.Purchases, *entities.Purchases]
	PurchaseItems    *Store[entities.PurchaseItems, *entities.PurchaseItems]
	Sales            *Store[entities.Sales, *entities.Sales]
	SaleItems        *Store[entities.SaleItems, *entities.SaleItems]
	Prescriptions    *Store[entities.Prescriptions, *entities.Prescriptions]
	Payments         *Store[entities.Payments, *entities.Payments]
	SupplierPayments *Store[entities.SupplierPayments, *entities.SupplierPayments]

	db *sql.DB
}

// NewRegistry creates all resource stores over db.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{
		Medicines:        New[entities.Medicines](db, entities.ResourceMedicines),
		MedicineBatches:  New[entities.MedicineBatches](db, entities.ResourceMedicineBatches),
		Customers:        New[entities.Customers](db, entities.ResourceCustomers),
		Suppliers:        New[entities.Suppliers](db, entities.ResourceSuppliers),
		Purchases:        New[entities.Purchases](db, entities.ResourcePurchases),
		PurchaseItems:    New[entities.PurchaseItems](db, entities.ResourcePurchaseItems),
		Sales:            New[entities.Sales](db, entities.ResourceSales),
		SaleItems:        New[entities.SaleItems](db, entities.ResourceSaleItems),
		Prescriptions:    New[entities.Prescriptions](db, entities.ResourcePrescriptions),
		Payments:         New[entities.Payments](db, entities.ResourcePayments),
		SupplierPayments: New[entities.SupplierPayments](db, entities.ResourceSupplierPayments),
		db:               db,
	}
}

// Counts returns the record count per resource, keyed by resource name.
func (r *Registry) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(entities.AllResources))
	for _, resource := range entities.AllResources {
		var n int64
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+TableName(resource)).Scan(&n); err != nil {
			return nil, err
		}
		counts[resource] = n
	}
	return counts, nil
}
