package domain

import "strings"

// ChallengeType is the verification method a challenge demands.
type ChallengeType string

const (
	ChallengeTypePhone ChallengeType = "phone"
	ChallengeTypeEmail ChallengeType = "email"
	ChallengeTypeOther ChallengeType = "other"
)

// ParseChallengeType maps a platform step name to a ChallengeType.
// Unknown step names map to ChallengeTypeOther.
func ParseChallengeType(step string) ChallengeType {
	s := strings.ToLower(step)
	switch {
	case strings.Contains(s, "phone"), strings.Contains(s, "sms"):
		return ChallengeTypePhone
	case strings.Contains(s, "email"):
		return ChallengeTypeEmail
	default:
		return ChallengeTypeOther
	}
}

func (t ChallengeType) String() string { return string(t) }
