package migration

import (
	"fmt"
	"strings"
	"time"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
	"github.com/google/uuid"
)

// legacyVariants maps the lowercase variant strings the old app stored to the
// current enum. Unknown values degrade to BASIC rather than failing the row.
var legacyVariants = map[string]models.VisualVariant{
	"basic":       models.VariantBasic,
	"textured":    models.VariantTextured,
	"animated":    models.VariantAnimated,
	"holo":        models.VariantHolographic,
	"holographic": models.VariantHolographic,
}

func convertVariant(legacy string) models.VisualVariant {
	if v, ok := legacyVariants[strings.ToLower(strings.TrimSpace(legacy))]; ok {
		return v
	}
	return models.VariantBasic
}

func convertAccount(acc MongoAccount) *models.User {
	joined := acc.Joined
	if joined.IsZero() {
		joined = time.Now()
	}
	balance := int64(acc.JDH)
	if balance < 0 {
		balance = 0
	}
	return &models.User{
		UserID:      acc.LineID,
		DisplayName: acc.DisplayName,
		AvatarURL:   acc.Picture,
		Balance:     balance,
		Joined:      joined,
		UpdatedAt:   time.Now(),
	}
}

// convertOwnedCard builds a card instance from a legacy owned-card document
// plus its archetype, and a listing when the copy was on the market. The
// legacy schema had no instance ids, so a fresh one is minted here.
func convertOwnedCard(oc MongoOwnedCard, card *models.Card) (*models.CardInstance, *models.Listing) {
	now := time.Now()
	obtained := oc.Obtained
	if obtained.IsZero() {
		obtained = now
	}

	location := models.LocationInventory
	if oc.OnMarket {
		location = models.LocationMarket
	}

	inst := &models.CardInstance{
		InstanceID:   uuid.NewString(),
		CardID:       card.ID,
		Term:         card.Term,
		Meaning:      card.Meaning,
		Details:      card.Details,
		Category:     card.Category,
		Teaching:     card.Teaching,
		Rarity:       card.Rarity,
		SerialNumber: oc.Serial,
		Variant:      convertVariant(oc.Variant),
		OwnerID:      oc.UserID,
		Location:     location,
		AcquiredAt:   obtained,
		UpdatedAt:    now,
	}

	if !oc.OnMarket {
		return inst, nil
	}
	return inst, &models.Listing{
		InstanceID: inst.InstanceID,
		SellerID:   oc.UserID,
		SellerName: oc.UserID,
		Price:      int64(oc.Price),
		ListedAt:   obtained,
	}
}

func convertTopUp(t MongoTopUp) *models.TopUp {
	verifiedAt := t.Date
	if verifiedAt.IsZero() {
		verifiedAt = time.Now()
	}
	transRef := t.TransRef
	if transRef == "" {
		// Some early records predate slip verification; synthesize a stable
		// reference from the Mongo object id so the unique constraint holds.
		transRef = fmt.Sprintf("legacy-%s", t.ID.Hex())
	}
	return &models.TopUp{
		UserID:       t.UserID,
		TransRef:     transRef,
		AmountTHB:    int64(t.Amount),
		PackagePrice: int64(t.Package),
		Points:       int64(t.Credited),
		Bonus:        0,
		Status:       models.TopUpStatusCompleted,
		VerifiedAt:   verifiedAt,
	}
}
