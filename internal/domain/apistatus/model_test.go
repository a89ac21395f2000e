package apistatus

import "testing"

func TestTierForCredential(t *testing.T) {
	if got := TierForCredential(true); got != TierPremium {
		t.Fatalf("expected premium, got %s", got)
	}
	if got := TierForCredential(false); got != TierFree {
		t.Fatalf("expected free, got %s", got)
	}
}

func TestInitial(t *testing.T) {
	s := Initial()
	if s.Connected || s.Tier != TierUnknown || s.LastChecked != nil || s.Error != "" {
		t.Fatalf("unexpected initial status: %+v", s)
	}
}
