package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	TableStatusEmpty           = "Empty"
	TableStatusOccupied        = "Occupied"
	TableStatusAwaitingPayment = "AwaitingPayment"
	TableStatusLate            = "Late"
)

const (
	OrderStatusOpen      = "Open"
	OrderStatusClosed    = "Closed"
	OrderStatusCancelled = "Cancelled"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash            = "Nakit"
	PaymentMethodCard            = "Kart"
	PaymentMethodCustomerBalance = "Müşteri Bakiyesi"
	PaymentMethodPartial         = "Ara Ödeme"
)

const (
	SettingLastArchivedYear = "last_archived_year"
)

// IsTableStatus reports whether s is one of the stored table statuses.
func IsTableStatus(s string) bool {
	switch s {
	case TableStatusEmpty, TableStatusOccupied, TableStatusAwaitingPayment, TableStatusLate:
		return true
	}
	return false
}
