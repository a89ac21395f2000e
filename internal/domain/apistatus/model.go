package apistatus

import "time"

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierUnknown Tier = "unknown"
)

// TierForCredential infers the tier from credential presence alone.
func TierForCredential(present bool) Tier {
	if present {
		return TierPremium
	}
	return TierFree
}

// Status is the last known reachability of the upstream API.
type Status struct {
	Connected   bool       `json:"connected"`
	Tier        Tier       `json:"tier"`
	LastChecked *time.Time `json:"lastChecked,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func Initial() Status {
	return Status{Tier: TierUnknown}
}

