package repository

import "context"

// Repos bundles the repositories that participate in a unit of work.
type Repos struct {
	Users    UserRepository
	Social   SocialAccountRepository
	Suspends SuspensionRepository
}

// Store is the persistence boundary. RunTx executes fn inside a single
// transaction: every write fn performs through the passed Repos becomes
// visible only on commit, and any error aborts the whole transaction.
type Store interface {
	Repos() Repos
	RunTx(ctx context.Context, fn func(r Repos) error) error
}
