/*
Package style turns raw Markov candidates into publishable posts.

A post is shaped by one of a closed set of style profiles: phrase
de-duplication, terminal punctuation, sentence-length filtering and optional
hashtag and emoji injection, followed by a minimum-length gate. Every random
decision is drawn per call; nothing is shared between calls.
*/
package style

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrUnknownStyle is returned by ParseStyle for names outside the closed set.
var ErrUnknownStyle = errors.New("unknown style")

// Style identifies one of the built-in style profiles.
type Style int

const (
	Professional Style = iota
	Casual
	Technical
)

// Styles lists every style in selection order.
var Styles = []Style{Professional, Casual, Technical}

func (s Style) String() string {
	switch s {
	case Professional:
		return "professional"
	case Casual:
		return "casual"
	case Technical:
		return "technical"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// ParseStyle maps a configured style name onto a Style. Names are matched
// case-insensitively; anything else is a configuration error.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "professional":
		return Professional, nil
	case "casual":
		return Casual, nil
	case "technical":
		return Technical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
}

// Profile is the set of formatting rules applied by PostProcess.
type Profile struct {
	Name               string
	MinSentenceWords   int
	MaxSentenceWords   int
	Endings            []string
	HashtagProbability float64
	Hashtags           []string
	EmojiProbability   float64
	Emojis             []string
}

var (
	businessHashtags  = []string{"#business", "#leadership", "#innovation", "#growth", "#strategy", "#success"}
	casualHashtags    = []string{"#mood", "#life", "#random", "#thoughts", "#vibes", "#justsaying"}
	technicalHashtags = []string{"#tech", "#programming", "#engineering", "#software", "#devops", "#opensource"}

	professionalEmojis = []string{"💼", "📈", "🚀", "✅", "💡"}
	casualEmojis       = []string{"😂", "🙌", "✨", "🔥", "😅", "🤷"}
)

// ProfileFor returns the profile of a style. The returned slices are copies.
// Unknown styles get the professional profile.
func ProfileFor(s Style) Profile {
	var p Profile
	switch s {
	case Casual:
		p = Profile{
			Name:               Casual.String(),
			MinSentenceWords:   3,
			MaxSentenceWords:   15,
			Endings:            []string{"!", "...", "?"},
			HashtagProbability: 0.5,
			Hashtags:           casualHashtags,
			EmojiProbability:   0.4,
			Emojis:             casualEmojis,
		}
	case Technical:
		p = Profile{
			Name:               Technical.String(),
			MinSentenceWords:   8,
			MaxSentenceWords:   25,
			Endings:            []string{"."},
			HashtagProbability: 0.2,
			Hashtags:           technicalHashtags,
			EmojiProbability:   0,
		}
	default:
		p = Profile{
			Name:               Professional.String(),
			MinSentenceWords:   5,
			MaxSentenceWords:   20,
			Endings:            []string{".", "!"},
			HashtagProbability: 0.3,
			Hashtags:           businessHashtags,
			EmojiProbability:   0.1,
			Emojis:             professionalEmojis,
		}
	}
	p.Endings = append([]string(nil), p.Endings...)
	p.Hashtags = append([]string(nil), p.Hashtags...)
	p.Emojis = append([]string(nil), p.Emojis...)
	return p
}

// Select draws a style for one generation attempt: 60% professional,
// 20% casual, 20% technical. A nil r uses the global source.
func Select(r *rand.Rand) Style {
	var draw float64
	if r != nil {
		draw = r.Float64()
	} else {
		draw = rand.Float64()
	}
	switch {
	case draw < 0.6:
		return Professional
	case draw < 0.8:
		return Casual
	default:
		return Technical
	}
}
