package account

import "github.com/andreasstove999/ecommerce-system/customer-service-go/internal/customer"

// MergeAddresses reconciles incoming addresses into existing by id. An incoming
// address replaces the first existing one with the same non-nil id in place;
// any other incoming address is appended with its id cleared so the store
// assigns a new one. The result is a new slice.
func MergeAddresses(existing, incoming []customer.Address) []customer.Address {
	merged := make([]customer.Address, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	for _, in := range incoming {
		if i := indexByID(merged, in.ID); i >= 0 {
			in.ID = merged[i].ID
			merged[i] = in
			continue
		}
		in.ID = nil
		merged = append(merged, in)
	}
	return merged
}

func indexByID(addrs []customer.Address, id *int64) int {
	if id == nil {
		return -1
	}
	for i, a := range addrs {
		if a.ID != nil && *a.ID == *id {
			return i
		}
	}
	return -1
}
