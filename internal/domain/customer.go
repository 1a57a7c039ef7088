package domain

// Customer is opaque to the order core; only existence is checked.
type Customer struct {
	ID string
}
