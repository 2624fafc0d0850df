package game

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"github.com/samber/lo"

	models "memorludo/internal/models"
	util "memorludo/internal/util"
)

// BuildDeck produces a shuffled deck of 2N cards from N image references.
// Each image yields two cards bound by a fresh pair id.
func BuildDeck(images []string) ([]*models.Card, error) {
	if len(images) == 0 {
		return nil, ErrInvalidInput
	}

	cards := make([]*models.Card, 0, 2*len(images))
	lo.ForEach(images, func(imageURL string, _ int) {
		pairID := uuid.NewString()
		cards = append(cards,
			&models.Card{ID: uuid.NewString(), ImageURL: imageURL, PairID: pairID},
			&models.Card{ID: uuid.NewString(), ImageURL: imageURL, PairID: pairID},
		)
	})

	Shuffle(cards)
	return cards, nil
}

// Shuffle permutes the deck in place with a Fisher-Yates walk driven by
// crypto/rand, so every ordering is equally likely.
func Shuffle(cards []*models.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			util.LogWarn("Error generating random index for shuffle: %v, keeping position %d", err, i)
			continue
		}
		j := n.Int64()
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// FlipCard toggles a card between face-down and face-up. A matched card can
// never toggle again.
func FlipCard(c *models.Card) error {
	if c.IsMatched {
		return ErrAlreadyMatched
	}
	c.IsFlipped = !c.IsFlipped
	return nil
}

// MatchCard resolves a revealed card permanently. Idempotent.
func MatchCard(c *models.Card) {
	c.IsMatched = true
	c.IsFlipped = true
}

// ResetCard returns a card to face-down, clearing any match. Only game reset
// may call this.
func ResetCard(c *models.Card) {
	c.IsFlipped = false
	c.IsMatched = false
}
