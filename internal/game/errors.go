package game

import "errors"

var (
	// ErrInvalidInput rejects deck construction from an empty image list.
	ErrInvalidInput = errors.New("at least one image is required")

	// ErrCardNotFound means the flip named a card id absent from the deck.
	ErrCardNotFound = errors.New("card not found in deck")

	// ErrAlreadyMatched rejects a flip on a card that is part of a found
	// pair. Matched cards stay face-up for the rest of the game.
	ErrAlreadyMatched = errors.New("card is already matched")

	// ErrRoundInProgress rejects a third card joining a round while two
	// unmatched cards are still face-up. Either pending card may still be
	// flipped back down.
	ErrRoundInProgress = errors.New("two cards are already pending, flip them back first")
)
