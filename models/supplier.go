package models

// Supplier is a provider the agency pays: hotel, transport company, guide, restaurant.
type Supplier struct {
	Id           uint   `json:"id" gorm:"primaryKey"`
	TenantID     string `json:"tenant_id" gorm:"size:64;not null;index"`
	CompanyName  string `json:"company_name" gorm:"not null"`
	Type         string `json:"type" gorm:"size:30"`
	Country      string `json:"country"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number"`
	Currency     string `json:"currency" gorm:"size:3"`
	Active       bool   `json:"active" gorm:"not null;default:true"`
}
