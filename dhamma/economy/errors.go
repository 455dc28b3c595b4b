package economy

import "errors"

// Sentinel errors for the engine's failure taxonomy. Repositories and
// managers wrap these with operation context; callers match with errors.Is.
var (
	// ErrInsufficientFunds means a debit would drive a balance negative.
	// Checked before any write; the account is left untouched.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrNotOwned means the card instance is not in the caller's inventory,
	// usually because it was already listed or sold by another session.
	ErrNotOwned = errors.New("card not owned")

	// ErrAlreadySold means the listing vanished between read and commit;
	// another buyer won the race.
	ErrAlreadySold = errors.New("item already sold")

	// ErrListingNotFound means the listing does not exist (already purchased
	// or cancelled).
	ErrListingNotFound = errors.New("listing not found")

	// ErrCatalogExhausted means the master pool has zero archetypes of a
	// resolved rarity. A configuration fault, not a runtime condition.
	ErrCatalogExhausted = errors.New("catalog has no archetype of resolved rarity")

	// ErrVerificationFailed means the payment slip did not verify.
	ErrVerificationFailed = errors.New("slip verification failed")

	// ErrDuplicateProof means the slip's transaction reference was already
	// credited once.
	ErrDuplicateProof = errors.New("slip already used")

	// ErrPersistenceUnavailable means the backing store cannot be reached.
	// Guest sessions fall back to the in-memory store; authenticated sessions
	// surface this as a hard failure.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
