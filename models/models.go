package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Currency{},
		&ExchangeRateHistory{},
		&User{},
		&Accommodation{},
		&Room{},
		&Availability{},
		&Booking{},
		&BookingStatusHistory{},
		&Review{},
		&Invoice{},
		&InvoiceItem{},
		&Setting{},
		&Sequence{},
	}
}
