package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Category struct {
	ID            string `db:"id" json:"_id"`
	Name          string `db:"name" json:"name"`
	Image         string `db:"image" json:"image"`
	MedicineCount int    `db:"medicine_count" json:"medicineCount"`
}

type Product struct {
	ID           string    `db:"id" json:"_id"`
	Name         string    `db:"name" json:"name"`
	Generic      string    `db:"generic" json:"generic"`
	Description  string    `db:"description" json:"description"`
	Brand        string    `db:"brand" json:"brand"`
	Image        string    `db:"image" json:"image"`
	Category     string    `db:"category_id" json:"category,omitempty"`
	Company      string    `db:"company" json:"company"`
	MassUnit     string    `db:"mass_unit" json:"massUnit"`
	Price        float64   `db:"price" json:"price"`
	Discount     float64   `db:"discount" json:"discount"`
	Seller       string    `db:"seller_id" json:"seller,omitempty"`
	Stock        int       `db:"stock" json:"stock"`
	IsAdvertised bool      `db:"is_advertised" json:"isAdvertised"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"

	SettlementPending = "pending"
	SettlementPaid    = "paid"

	RequestPending  = "pending"
	RequestAccepted = "accepted"

	BannerPending = "pending"
	BannerLive    = "live"
)

// LineItem is one purchased product at the price the buyer paid.
type LineItem struct {
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// LineItems is stored as a JSON document column.
type LineItems []LineItem

func (l LineItems) Value() (driver.Value, error) { return jsonValue(l) }
func (l *LineItems) Scan(src any) error      { return jsonScan(src, l) }

type Payment struct {
	ID              string    `db:"id" json:"_id"`
	User            string    `db:"user_id" json:"user"`
	Items           LineItems `db:"items" json:"items"`
	Status          string    `db:"status" json:"status"`
	Amount          float64   `db:"amount" json:"amount"`
	PaymentIntentID string    `db:"payment_intent_id" json:"paymentIntentId,omitempty"`
	Method          string    `db:"method" json:"method,omitempty"`
	Date            time.Time `db:"date" json:"date"`
}

type Invoice struct {
	ID            string    `db:"id" json:"_id"`
	Payment       string    `db:"payment_id" json:"payment"`
	InvoiceNumber string    `db:"invoice_number" json:"invoiceNumber"`
	Date          time.Time `db:"date" json:"date"`
	User          string    `db:"user_id" json:"user"`
	Items         LineItems `db:"items" json:"items"`
	Total         float64   `db:"total" json:"total"`
	Status        string    `db:"status" json:"status"`
}

type SellerPayment struct {
	ID        string     `db:"id" json:"_id"`
	Seller    string     `db:"seller_id" json:"seller"`
	Invoice   string     `db:"invoice_id" json:"invoice"`
	Amount    float64    `db:"amount" json:"amount"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	PaidAt    *time.Time `db:"paid_at" json:"paidAt,omitempty"`
}

type AdminPaymentRequest struct {
	ID            string     `db:"id" json:"_id"`
	SellerPayment string     `db:"seller_payment_id" json:"sellerPayment"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	AcceptedAt    *time.Time `db:"accepted_at" json:"acceptedAt,omitempty"`
}

type Banner struct {
	ID          string `db:"id" json:"_id"`
	Title       string `db:"title" json:"title"`
	Image       string `db:"image" json:"image"`
	Description string `db:"description" json:"description"`
	Product     string `db:"product_id" json:"product,omitempty"`
	Seller      string `db:"seller_id" json:"seller,omitempty"`
	Slide       bool   `db:"slide" json:"slide"`
	Status      string `db:"status" json:"status"`
}

type CartItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type CartItems []CartItem

func (l CartItems) Value() (driver.Value, error) { return jsonValue(l) }
func (l *CartItems) Scan(src any) error      { return jsonScan(src, l) }

type Cart struct {
	ID        string    `db:"id" json:"_id"`
	User      string    `db:"user_id" json:"user"`
	Items     CartItems `db:"items" json:"items"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case string:
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), dst)
	case []byte:
		if len(s) == 0 {
			return nil
		}
		return json.Unmarshal(s, dst)
	default:
		return fmt.Errorf("domain: cannot scan %T into JSON column", src)
	}
}
