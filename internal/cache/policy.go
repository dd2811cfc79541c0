package cache

import (
	"strings"
	"time"

	"github.com/yourusername/gridiron-analytics/internal/config"
)

// PriorityClass identifies the eviction/TTL class of a cache entry. The class
// is resolved once from the key prefix when the entry is created, never
// re-parsed on access.
type PriorityClass int

// Priority classes, lowest eviction weight first.
const (
	ClassScratch PriorityClass = iota
	ClassPredictions
	ClassRatings
	ClassCalibration
)

// String returns the configuration name of the class.
func (c PriorityClass) String() string {
	switch c {
	case ClassRatings:
		return "ratings"
	case ClassPredictions:
		return "predictions"
	case ClassCalibration:
		return "calibration"
	default:
		return "scratch"
	}
}

// Policy holds the per-class TTL default and eviction weight.
type Policy struct {
	DefaultTTL time.Duration
	Weight     float64
}

// PolicyTable maps priority classes to their policies.
type PolicyTable map[PriorityClass]Policy

// DefaultPolicyTable returns the built-in policy table. Rating and
// calibration data are long-lived and evicted last; scratch data expires
// quickly and is evicted first.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		ClassRatings:     {DefaultTTL: 30 * time.Minute, Weight: 3.0},
		ClassPredictions: {DefaultTTL: 10 * time.Minute, Weight: 2.0},
		ClassCalibration: {DefaultTTL: time.Hour, Weight: 3.0},
		ClassScratch:     {DefaultTTL: 2 * time.Minute, Weight: 1.0},
	}
}

// PolicyTableFromConfig builds a table from the configuration map. Missing
// classes fall back to the built-in defaults.
func PolicyTableFromConfig(policies map[string]config.CachePolicyConfig) PolicyTable {
	table := DefaultPolicyTable()
	for name, p := range policies {
		class := classByName(name)
		table[class] = Policy{
			DefaultTTL: time.Duration(p.DefaultTTLSeconds) * time.Second,
			Weight:     p.Weight,
		}
	}
	return table
}

func classByName(name string) PriorityClass {
	switch name {
	case "ratings":
		return ClassRatings
	case "predictions":
		return ClassPredictions
	case "calibration":
		return ClassCalibration
	default:
		return ClassScratch
	}
}

// classForKey infers the priority class from the logical key prefix.
func classForKey(key string) PriorityClass {
	prefix, _, _ := strings.Cut(key, keySeparator)
	switch prefix {
	case PrefixRatings:
		return ClassRatings
	case PrefixPredictions:
		return ClassPredictions
	case PrefixCalibration:
		return ClassCalibration
	default:
		return ClassScratch
	}
}
