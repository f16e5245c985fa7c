package domain

// PaymentStatusName identifies a payment sub-state.
type PaymentStatusName string

const (
	PaymentPending  PaymentStatusName = "pending"
	PaymentPaid     PaymentStatusName = "paid"
	PaymentRefunded PaymentStatusName = "refunded"
)

// PaymentMethod is how a client settles an appointment.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodSBP  PaymentMethod = "sbp"
)

// PaymentStatus is static reference data describing a payment sub-state.
type PaymentStatus struct {
	Name        PaymentStatusName `json:"name"`
	DisplayName string            `json:"display_name"`
	Color       string            `json:"color"`
}

var paymentStatuses = []PaymentStatus{
	{Name: PaymentPending, DisplayName: "Awaiting payment", Color: "warning"},
	{Name: PaymentPaid, DisplayName: "Paid", Color: "success"},
	{Name: PaymentRefunded, DisplayName: "Refunded", Color: "secondary"},
}

// FindPaymentStatus resolves a payment status by name.
func FindPaymentStatus(name string) (PaymentStatus, bool) {
	for _, ps := range paymentStatuses {
		if string(ps.Name) == name {
			return ps, true
		}
	}
	return PaymentStatus{}, false
}
