package migration

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhammagenesis/gacha/dhamma/database/models"
)

func TestConvertVariant(t *testing.T) {
	tests := []struct {
		legacy string
		want   models.VisualVariant
	}{
		{"basic", models.VariantBasic},
		{"textured", models.VariantTextured},
		{"animated", models.VariantAnimated},
		{"holo", models.VariantHolographic},
		{"holographic", models.VariantHolographic},
		{"  HOLO ", models.VariantHolographic},
		{"", models.VariantBasic},
		{"glitter", models.VariantBasic},
	}
	for _, tt := range tests {
		if got := convertVariant(tt.legacy); got != tt.want {
			t.Errorf("convertVariant(%q) = %v, want %v", tt.legacy, got, tt.want)
		}
	}
}

func TestConvertAccount(t *testing.T) {
	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	u := convertAccount(MongoAccount{
		LineID:      "U123",
		DisplayName: "สมชาย",
		Picture:     "https://example.com/p.jpg",
		JDH:         1234.9,
		Joined:      joined,
	})
	if u.UserID != "U123" || u.DisplayName != "สมชาย" {
		t.Errorf("identity fields = %s/%s", u.UserID, u.DisplayName)
	}
	if u.Balance != 1234 {
		t.Errorf("balance = %d, want truncated 1234", u.Balance)
	}
	if !u.Joined.Equal(joined) {
		t.Errorf("joined = %v, want %v", u.Joined, joined)
	}

	// Legacy data occasionally went negative; imports clamp to zero.
	if got := convertAccount(MongoAccount{LineID: "U1", JDH: -50}); got.Balance != 0 {
		t.Errorf("negative balance = %d, want 0", got.Balance)
	}
}

func TestConvertOwnedCard(t *testing.T) {
	card := &models.Card{
		ID:       "sati",
		Term:     "สติ",
		Meaning:  "mindfulness",
		Category: "virtue",
		Rarity:   models.RarityCommon,
	}

	inst, listing := convertOwnedCard(MongoOwnedCard{
		UserID:  "U123",
		CardID:  "sati",
		Serial:  "123456",
		Variant: "textured",
	}, card)
	if listing != nil {
		t.Error("inventory card produced a listing")
	}
	if inst.Location != models.LocationInventory {
		t.Errorf("location = %v, want inventory", inst.Location)
	}
	if inst.InstanceID == "" {
		t.Error("instance id was not minted")
	}
	if inst.Term != "สติ" || inst.Rarity != models.RarityCommon {
		t.Errorf("display fields not copied: %s/%s", inst.Term, inst.Rarity)
	}

	inst, listing = convertOwnedCard(MongoOwnedCard{
		UserID:   "U123",
		CardID:   "sati",
		Variant:  "basic",
		OnMarket: true,
		Price:    2500,
	}, card)
	if listing == nil {
		t.Fatal("market card produced no listing")
	}
	if inst.Location != models.LocationMarket {
		t.Errorf("location = %v, want market", inst.Location)
	}
	if listing.InstanceID != inst.InstanceID {
		t.Error("listing does not reference the minted instance")
	}
	if listing.Price != 2500 || listing.SellerID != "U123" {
		t.Errorf("listing = %d/%s, want 2500/U123", listing.Price, listing.SellerID)
	}
}

func TestConvertTopUp(t *testing.T) {
	id := primitive.NewObjectID()
	record := convertTopUp(MongoTopUp{
		ID:       id,
		UserID:   "U123",
		TransRef: "TR-001",
		Amount:   100,
		Package:  100,
		Credited: 12000,
	})
	if record.TransRef != "TR-001" || record.Points != 12000 {
		t.Errorf("record = %s/%d, want TR-001/12000", record.TransRef, record.Points)
	}
	if record.Status != models.TopUpStatusCompleted {
		t.Errorf("status = %v, want completed", record.Status)
	}

	// Records without a reference get a synthetic one from the object id.
	record = convertTopUp(MongoTopUp{ID: id, UserID: "U123", Amount: 50})
	if record.TransRef != "legacy-"+id.Hex() {
		t.Errorf("synthetic trans ref = %q", record.TransRef)
	}
}
