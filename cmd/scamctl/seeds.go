package main

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"scamshield/internal/domain/services/phoneintel"
)

// seedChecker answers blacklist lookups from the configured seed numbers
type seedChecker struct {
	phones mapset.Set[string]
}

func newSeedChecker(n phoneintel.Normalizer, phones []string) seedChecker {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, p := range phones {
		if key := n.Normalize(p); key != "" {
			set.Add(key)
		}
	}
	return seedChecker{phones: set}
}

func (s seedChecker) IsBlacklisted(_ context.Context, phone string) (bool, error) {
	return s.phones.Contains(phone), nil
}
