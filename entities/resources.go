package entities

// Resource names as they appear in REST paths and table names (kebab-case
// plurals; tables use the underscored form).
const (
	ResourceMedicines        = "medicines"
	ResourceMedicineBatches  = "medicine-batches"
	ResourceCustomers        = "customers"
	ResourceSuppliers        = "suppliers"
	ResourcePurchases        = "purchases"
	ResourcePurchaseItems    = "purchase-items"
	ResourceSales            = "sales"
	ResourceSaleItems        = "sale-items"
	ResourcePrescriptions    = "prescriptions"
	ResourcePayments         = "payments"
	ResourceSupplierPayments = "supplier-payments"
)

// AllResources lists every resource served by the API, in route order.
var AllResources = []string{
	ResourceMedicines,
	ResourceMedicineBatches,
	ResourceCustomers,
	ResourceSuppliers,
	ResourcePurchases,
	ResourcePurchaseItems,
	ResourceSales,
	ResourceSaleItems,
	ResourcePrescriptions,
	ResourcePayments,
	ResourceSupplierPayments,
}
