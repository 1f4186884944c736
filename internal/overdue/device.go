package overdue

import (
	"time"

	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/reminder"
)

// DeviceInfo identifies a rented device on the dashboard.
type DeviceInfo struct {
	ID           string
	Name         string
	Model        string
	SerialNumber string
}

// DeviceWithPaymentStatus is the dashboard row of a rented device. It is derived on
// every read and never stored.
type DeviceWithPaymentStatus struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Model             string         `json:"model"`
	SerialNumber      string         `json:"serialNumber"`
	PaymentType       payment.Method `json:"paymentType"`
	PaymentStatus     Status         `json:"paymentStatus"`
	PaymentEndDate    *time.Time     `json:"paymentEndDate"`
	ReminderDate      *time.Time     `json:"reminderDate"`
	TotalAmount       float64        `json:"totalAmount"`
	PaidAmount        float64        `json:"paidAmount"`
	OutstandingAmount float64        `json:"outstandingAmount"`
	OverdueDays       *int           `json:"overdueDays,omitempty"`
}

// Project builds the dashboard row of a device from its rental end date and payments.
// Payments are expected in chronological order; the last one names the payment type.
func Project(dev DeviceInfo, rentalEnd *time.Time, payments []payment.Record, today time.Time) DeviceWithPaymentStatus {
	total, paid, outstanding := payment.Totals(payments, today)
	res := Evaluate(Input{
		Payments:      payments,
		RentalEndDate: rentalEnd,
		TotalAmount:   total,
		PaidAmount:    paid,
	}, today)

	row := DeviceWithPaymentStatus{
		ID:                dev.ID,
		Name:              dev.Name,
		Model:             dev.Model,
		SerialNumber:      dev.SerialNumber,
		PaymentStatus:     res.Status,
		PaymentEndDate:    res.PaymentEndDate,
		TotalAmount:       total,
		PaidAmount:        paid,
		OutstandingAmount: outstanding,
	}
	if n := len(payments); n > 0 {
		row.PaymentType = payments[n-1].Method()
	}
	if res.PaymentEndDate != nil {
		if at, ok := reminder.TieredLeadTime(*res.PaymentEndDate, today); ok {
			row.ReminderDate = dates.Ptr(at)
		}
	}
	if res.Status == StatusOverdue {
		days := res.OverdueDays
		row.OverdueDays = &days
	}
	return row
}
