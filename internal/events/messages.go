package events

// ============================================================================
// Event Message Types
// These types define the structure of data sent with events.
// Using typed structs provides compile-time safety and IDE support.
// ============================================================================

// Event type names dispatched by the repository and identity layers.
const (
	TypeDecksUpdated      = "repo:decks_updated"
	TypeDecksLoadFailed   = "repo:load_failed"
	TypeDeckSaveFailed    = "repo:save_failed"
	TypeDeckDeleteFailed  = "repo:delete_failed"
	TypeMigrationComplete = "repo:migration_complete"
	TypeIdentityReady     = "identity:ready"
	TypeIdentityFailed    = "identity:failed"
)

// DecksUpdatedEvent is the payload for repo:decks_updated events.
// Sent whenever the repository's deck list changes, whether from a local
// write or a storage notification.
type DecksUpdatedEvent struct {
	Count int `json:"count"` // Number of decks now held
}

// DecksLoadFailedEvent is the payload for repo:load_failed events.
// Sent when the initial deck load or a subscription delivery fails.
type DecksLoadFailedEvent struct {
	Error string `json:"error"` // Error message
}

// DeckSaveFailedEvent is the payload for repo:save_failed events.
// Sent when a background deck write does not reach storage.
type DeckSaveFailedEvent struct {
	DeckID string `json:"deckId"` // Deck that failed to persist
	Error  string `json:"error"`  // Error message
}

// DeckDeleteFailedEvent is the payload for repo:delete_failed events.
type DeckDeleteFailedEvent struct {
	DeckID string `json:"deckId"` // Deck that failed to delete
	Error  string `json:"error"`  // Error message
}

// MigrationCompleteEvent is the payload for repo:migration_complete events.
// Sent after the one-time legacy deck migration has run.
type MigrationCompleteEvent struct {
	Migrated int `json:"migrated"` // Decks copied to the user's collection
	Failed   int `json:"failed"`   // Decks that could not be copied
}

// IdentityReadyEvent is the payload for identity:ready events.
// Sent once the anonymous user identity has been resolved.
type IdentityReadyEvent struct {
	UserID string `json:"userId"` // Stable anonymous user id
}

// IdentityFailedEvent is the payload for identity:failed events.
type IdentityFailedEvent struct {
	Error string `json:"error"` // Error message
}
