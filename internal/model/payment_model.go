package model

import "time"

type Payment struct {
	PaymentID       int64      `db:"paymentid" json:"paymentId"`
	OrderID         string     `db:"orderid" json:"orderId"`
	AmountCents     int64      `db:"amountpaid" json:"amountCents"`
	PaymentStatus   string     `db:"paymentstatus" json:"paymentStatus"`
	PaymentProvider *string    `db:"paymentprovider" json:"paymentProvider"`
	ProviderRef     *string    `db:"providerref" json:"providerRef"`
	ProviderPayload []byte     `db:"providerpayload" json:"providerPayload"`
	CreatedAt       time.Time  `db:"createdat" json:"createdAt"`
	PaidAt          *time.Time `db:"paidat" json:"paidAt"`
}
