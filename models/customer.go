package models

// CustomerSnapshot freezes the customer contact data on a receivable invoice.
// Later edits to the quotation never change an issued invoice.
type CustomerSnapshot struct {
	Name  string `json:"name" gorm:"column:customer_name;not null"`
	Email string `json:"email" gorm:"column:customer_email"`
	Phone string `json:"phone" gorm:"column:customer_phone"`
}

// SnapshotCustomer copies the contact fields of q.
func SnapshotCustomer(q *Quotation) CustomerSnapshot {
	return CustomerSnapshot{Name: q.CustomerName, Email: q.CustomerEmail, Phone: q.CustomerPhone}
}
