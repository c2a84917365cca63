package engine

import "testing"

func TestPublicGoodsContributionBounds(t *testing.T) {
	e := NewPublicGoodsEngine(PublicGoodsConfig{Endowment: 20, Multiplier: 1.6})

	if res := e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: -1}); res.Success {
		t.Error("negative contribution must be rejected")
	}
	if res := e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: 21}); res.Success {
		t.Error("contribution above endowment must be rejected")
	}
	if res := e.HandleAction("r1", "p1", Action{Kind: KindQuantity, Amount: 5}); res.Success {
		t.Error("wrong action kind must be rejected")
	}
	if res := e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: 20}); !res.Success {
		t.Errorf("full endowment contribution should be accepted: %s", res.Error)
	}
}

func TestPublicGoodsOneContributionPerPlayer(t *testing.T) {
	e := NewPublicGoodsEngine(DefaultPublicGoodsConfig())

	if res := e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: 5}); !res.Success {
		t.Fatalf("first contribution rejected: %s", res.Error)
	}
	if res := e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: 8}); res.Success {
		t.Error("second contribution from same player must be rejected")
	}
}

func TestPublicGoodsScoring(t *testing.T) {
	e := NewPublicGoodsEngine(PublicGoodsConfig{Endowment: 20, Multiplier: 1.6})

	e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: 20})
	e.HandleAction("r1", "p2", Action{Kind: KindContribution, Amount: 0})

	scores := e.ScoreRound("r1")
	// Pool: 20 * 1.6 / 2 = 16 each. p1 kept 0, p2 kept 20.
	if scores["p1"] != 16 {
		t.Errorf("expected p1 profit 16, got %v", scores["p1"])
	}
	if scores["p2"] != 36 {
		t.Errorf("expected p2 profit 36, got %v", scores["p2"])
	}
}

func TestPublicGoodsScoreClearsRoundState(t *testing.T) {
	e := NewPublicGoodsEngine(DefaultPublicGoodsConfig())

	e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: 5})
	e.ScoreRound("r1")

	// Round state is gone; the same player can act in a fresh use of the ID.
	if res := e.HandleAction("r1", "p1", Action{Kind: KindContribution, Amount: 5}); !res.Success {
		t.Errorf("round state should reset after scoring: %s", res.Error)
	}
}

func TestGameTypeCategories(t *testing.T) {
	cases := map[GameType]Category{
		DoubleAuction:     CategoryDoubleAuction,
		Cournot:           CategorySimultaneous,
		Bertrand:          CategorySimultaneous,
		PublicGoods:       CategorySimultaneous,
		Ultimatum:         CategorySequential,
		TrustGame:         CategorySequential,
		PostedOffer:       CategorySpecialized,
		DiscoveryProcess:  CategorySpecialized,
		ContestableMarket: CategorySpecialized,
	}
	for gt, want := range cases {
		if got := gt.Category(); got != want {
			t.Errorf("%s: expected category %s, got %s", gt, want, got)
		}
	}

	if GameType("poker").Valid() {
		t.Error("unknown game type must not be valid")
	}
}
