package domain

// Reply is one of the fixed responses the companion can speak.
type Reply string

const (
	ReplyRest      Reply = "Astronaut, I recommend taking a short rest and practicing deep breathing."
	ReplyCalm      Reply = "Stay calm, you are well trained. Focus on your breathing, mission control trusts you."
	ReplyVitals    Reply = "I suggest slowing down your activity and hydrating. Monitor your vitals closely."
	ReplyExercise  Reply = "Remember to stretch properly and balance activity with enough rest."
	ReplyCompanion Reply = "I am here with you. Remember, you are not alone in space."
)

func (r Reply) String() string {
	return string(r)
}

// Replies lists every reply the companion can produce, fallback last.
func Replies() []Reply {
	return []Reply{ReplyRest, ReplyCalm, ReplyVitals, ReplyExercise, ReplyCompanion}
}

// Exchange is the outcome of a single capture-to-speech run.
type Exchange struct {
	RunID      string
	AudioPath  string
	Transcript string
	Reply      Reply
}
