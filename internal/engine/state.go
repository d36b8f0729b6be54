package engine

import "time"

type Status string

const (
	StatusCountdown Status = "countdown"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
)

// Reason values travel on the wire in match_ended payloads.
type Reason string

const (
	ReasonKnockout   Reason = "ko"
	ReasonTime       Reason = "time"
	ReasonDisconnect Reason = "disconnect"
)

const (
	StartHP        = 100
	ComboThreshold = 5
	// Words longer than this deal one extra point of damage.
	LongWordLength = 7
)

type PlayerState struct {
	Username       string
	HP             int
	Shields        int
	Combo          int
	Typed          string
	WordsCompleted int
	CorrectChars   int
	TotalChars     int
}

// Accuracy is derived, unrounded. An empty buffer counts as perfect.
func (p PlayerState) Accuracy() float64 {
	if p.TotalChars == 0 {
		return 100.0
	}
	return float64(p.CorrectChars) / float64(p.TotalChars) * 100
}

type State struct {
	MatchID   string
	Text      string
	Status    Status
	StartTime time.Time
	// Order fixes the creation order of the two players; ties at expiry
	// resolve against it rather than map iteration order.
	Order   [2]string
	Players map[string]PlayerState
}

func NewState(matchID, text, player1, player2 string) State {
	return State{
		MatchID: matchID,
		Text:    text,
		Status:  StatusCountdown,
		Order:   [2]string{player1, player2},
		Players: map[string]PlayerState{
			player1: {Username: player1, HP: StartHP},
			player2: {Username: player2, HP: StartHP},
		},
	}
}

// Opponent returns the other player's state. ok is false when username is not
// a participant.
func (s State) Opponent(username string) (PlayerState, bool) {
	if _, ok := s.Players[username]; !ok {
		return PlayerState{}, false
	}
	for name, p := range s.Players {
		if name != username {
			return p, true
		}
	}
	return PlayerState{}, false
}

func (s State) clone() State {
	ns := s
	ns.Players = make(map[string]PlayerState, len(s.Players))
	for name, p := range s.Players {
		ns.Players[name] = p
	}
	return ns
}

// winnerOnTime decides the duration-expiry winner: higher hp, then higher
// accuracy, then the second stored player. No coin flip.
func (s State) winnerOnTime() string {
	p1 := s.Players[s.Order[0]]
	p2 := s.Players[s.Order[1]]

	if p1.HP > p2.HP {
		return p1.Username
	}
	if p2.HP > p1.HP {
		return p2.Username
	}
	if p1.Accuracy() > p2.Accuracy() {
		return p1.Username
	}
	return p2.Username
}
