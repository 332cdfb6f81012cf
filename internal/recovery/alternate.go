package recovery

import (
	"github.com/voxpilot/voxpilot/internal/resolver"
)

// AlternateQueries returns cheap secondary search strategies to try when the
// primary query found nothing, ordered from least to most relaxed. These run
// before the expensive vision fallback:
//
//  1. the same text against all interactive roles (the spoken role hint may
//     have been wrong, e.g. "button" for what is really a link)
//  2. the original role set with the relaxed threshold
//  3. all interactive roles with the relaxed threshold
func AlternateQueries(q resolver.Query, altThreshold int) []resolver.Query {
	var alternates []resolver.Query

	if len(q.Roles) > 0 {
		relaxedRoles := q
		relaxedRoles.Roles = nil
		alternates = append(alternates, relaxedRoles)
	}

	if altThreshold > 0 {
		relaxedScore := q
		relaxedScore.Threshold = altThreshold
		alternates = append(alternates, relaxedScore)

		if len(q.Roles) > 0 {
			both := q
			both.Roles = nil
			both.Threshold = altThreshold
			alternates = append(alternates, both)
		}
	}

	return alternates
}
