package domain

import "context"

// TxRepositories are repositories bound to one transaction
type TxRepositories struct {
	Houses       HouseRepository
	RentRequests RentRequestRepository
}

// Transactor runs fn as one atomic unit: either everything fn wrote is
// committed or none of it is. Implementations serialize units that lock
// the same house via HouseRepository.GetForUpdate.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
