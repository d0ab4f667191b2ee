package orders

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Satu-satunya transisi: pending -> paid, dan hanya lewat notifikasi pembayaran.
var validNext = map[Status]map[Status]bool{
	StatusPending: {StatusPaid: true},
	StatusPaid:    {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
