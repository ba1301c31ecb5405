// Package entities defines the eleven pharmacy record types and the shared
// Record contract they all satisfy. Every field except the identifier is
// optional on the wire, so fields are pointer-typed and reference fields embed
// the referenced record (at minimum its id).
package entities

import "time"

// Record is the behavior every entity type shares: a backend-assigned numeric
// identifier that is nil until the record is persisted.
type Record interface {
	GetID() *int64
	SetID(int64)
}

// Medicines is a medicine in the catalog.
type Medicines struct {
	ID           *int64   `json:"id"`
	Name         *string  `json:"name"`
	Manufacturer *string  `json:"manufacturer"`
	Category     *string  `json:"category"`
	Price        *float64 `json:"price"`
	Stock        *int     `json:"stock"`
}

func (m *Medicines) GetID() *int64  { return m.ID }
func (m *Medicines) SetID(id int64) { m.ID = &id }

// MedicineBatches tracks a delivered batch of one medicine with its expiry.
type MedicineBatches struct {
	ID          *int64     `json:"id"`
	BatchNumber *string    `json:"batchNumber"`
	ExpiryDate  *string    `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	Quantity    *int       `json:"quantity"`
	Purchases   *Purchases `json:"purchases"`
	Medicines   *Medicines `json:"medicines"`
}

func (m *MedicineBatches) GetID() *int64  { return m.ID }
func (m *MedicineBatches) SetID(id int64) { m.ID = &id }

// Customers is a pharmacy customer.
type Customers struct {
	ID      *int64  `json:"id"`
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address"`
}

func (c *Customers) GetID() *int64  { return c.ID }
func (c *Customers) SetID(id int64) { c.ID = &id }

// Suppliers is a medicine supplier.
type Suppliers struct {
	ID            *int64  `json:"id"`
	Name          *string `json:"name"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
}

func (s *Suppliers) GetID() *int64  { return s.ID }
func (s *Suppliers) SetID(id int64) { s.ID = &id }

// Purchases is one supplier purchase (invoice head).
type Purchases struct {
	ID            *int64     `json:"id"`
	PurchaseDate  *string    `json:"purchaseDate" validate:"omitempty,datetime=2006-01-02"`
	InvoiceNumber *string    `json:"invoiceNumber"`
	TotalAmount   *float64   `json:"totalAmount"`
	Suppliers     *Suppliers `json:"suppliers"`
}

func (p *Purchases) GetID() *int64  { return p.ID }
func (p *Purchases) SetID(id int64) { p.ID = &id }

// PurchaseItems is one line of a purchase.
type PurchaseItems struct {
	ID        *int64     `json:"id"`
	Quantity  *int       `json:"quantity"`
	Price     *float64   `json:"price"`
	Purchases *Purchases `json:"purchases"`
	Medicines *Medicines `json:"medicines"`
}

func (p *PurchaseItems) GetID() *int64  { return p.ID }
func (p *PurchaseItems) SetID(id int64) { p.ID = &id }

// Sales is one customer sale (invoice head).
type Sales struct {
	ID            *int64     `json:"id"`
	SaleDate      *time.Time `json:"saleDate"`
	InvoiceNumber *string    `json:"invoiceNumber"`
	TotalAmount   *float64   `json:"totalAmount"`
	Customers     *Customers `json:"customers"`
}

func (s *Sales) GetID() *int64  { return s.ID }
func (s *Sales) SetID(id int64) { s.ID = &id }

// SaleItems is one line of a sale.
type SaleItems struct {
	ID        *int64     `json:"id"`
	Quantity  *int       `json:"quantity"`
	Price     *float64   `json:"price"`
	Medicines *Medicines `json:"medicines"`
	Sales     *Sales     `json:"sales"`
}

func (s *SaleItems) GetID() *int64  { return s.ID }
func (s *SaleItems) SetID(id int64) { s.ID = &id }

// Prescriptions is a doctor prescription attached to a customer.
type Prescriptions struct {
	ID               *int64     `json:"id"`
	DoctorName       *string    `json:"doctorName"`
	PrescriptionDate *string    `json:"prescriptionDate" validate:"omitempty,datetime=2006-01-02"`
	Notes            *string    `json:"notes"`
	Customers        *Customers `json:"customers"`
}

func (p *Prescriptions) GetID() *int64  { return p.ID }
func (p *Prescriptions) SetID(id int64) { p.ID = &id }

// Payments is a customer payment against a sale.
type Payments struct {
	ID            *int64     `json:"id"`
	PaymentDate   *time.Time `json:"paymentDate"`
	PaymentMethod *string    `json:"paymentMethod"`
	PaymentStatus *string    `json:"paymentStatus"`
	Amount        *float64   `json:"amount"`
	Sales         *Sales     `json:"sales"`
}

func (p *Payments) GetID() *int64  { return p.ID }
func (p *Payments) SetID(id int64) { p.ID = &id }

// SupplierPayments is a payment made to a supplier against a purchase.
type SupplierPayments struct {
	ID            *int64     `json:"id"`
	PaymentDate   *time.Time `json:"paymentDate"`
	PaymentMethod *string    `json:"paymentMethod"`
	PaymentStatus *string    `json:"paymentStatus"`
	AmountPaid    *float64   `json:"amountPaid"`
	Suppliers     *Suppliers `json:"suppliers"`
	Purchases     *Purchases `json:"purchases"`
}

func (s *SupplierPayments) GetID() *int64  { return s.ID }
func (s *SupplierPayments) SetID(id int64) { s.ID = &id }
