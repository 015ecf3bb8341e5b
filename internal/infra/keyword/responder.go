// Package keyword selects a canned reply by scanning a transcript for
// trigger substrings.
package keyword

import (
	"strings"

	"astronaut-companion/internal/domain"
)

type rule struct {
	triggers []string
	reply    domain.Reply
}

// rules are checked top to bottom; the first rule with any matching
// trigger wins.
var rules = []rule{
	{triggers: []string{"tired", "sleep"}, reply: domain.ReplyRest},
	{triggers: []string{"stress", "docking"}, reply: domain.ReplyCalm},
	{triggers: []string{"heart rate"}, reply: domain.ReplyVitals},
	{triggers: []string{"exercise"}, reply: domain.ReplyExercise},
}

type Responder struct{}

func NewResponder() *Responder {
	return &Responder{}
}

func (r *Responder) Respond(text string) domain.Reply {
	lower := strings.ToLower(text)
	for _, rl := range rules {
		for _, trigger := range rl.triggers {
			if strings.Contains(lower, trigger) {
				return rl.reply
			}
		}
	}
	return domain.ReplyCompanion
}
