package engine

import (
	"errors"
	"strings"
)

var ErrNotActive = errors.New("match not active")
var ErrNotCountdown = errors.New("match not in countdown")
var ErrMatchEnded = errors.New("match already ended")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdKeystroke CommandType = "Keystroke"
	CmdBegin     CommandType = "Begin"
	CmdExpire    CommandType = "Expire"
	CmdForfeit   CommandType = "Forfeit"
)

type Command struct {
	Type     CommandType
	Username string
	Typed    string
}

type EventType string

const (
	EvtMatchStarted  EventType = "MatchStarted"
	EvtShieldGained  EventType = "ShieldGained"
	EvtShieldBlocked EventType = "ShieldBlocked"
	EvtDamageTaken   EventType = "DamageTaken"
	EvtAttackSent    EventType = "AttackSent"
	EvtMatchEnded    EventType = "MatchEnded"
)

// Event is an engine-level occurrence. To names the single recipient for the
// per-player events; it is empty for events addressed to both participants.
type Event struct {
	Type    EventType
	To      string
	Damage  int
	HP      int
	Shields int
	Winner  string
	Reason  Reason
}

// Apply resolves one command against a match state. It never mutates s: the
// returned state is a copy with the command's effects applied. Callers decide
// what an error means; every error here maps to a silent no-op at the
// transport boundary.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdBegin:
		if s.Status != StatusCountdown {
			return nil, s, ErrNotCountdown
		}
		ns := s.clone()
		ns.Status = StatusActive
		return []Event{{Type: EvtMatchStarted}}, ns, nil

	case CmdKeystroke:
		if s.Status != StatusActive {
			return nil, s, ErrNotActive
		}
		p, ok := s.Players[cmd.Username]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		opp, _ := s.Opponent(cmd.Username)

		events := resolveKeystroke(&p, &opp, cmd.Typed, s.Text)

		ns := s.clone()
		ns.Players[p.Username] = p
		ns.Players[opp.Username] = opp

		if opp.HP <= 0 {
			ns.Status = StatusEnded
			events = append(events, Event{Type: EvtMatchEnded, Winner: p.Username, Reason: ReasonKnockout})
		}
		return events, ns, nil

	case CmdExpire:
		if s.Status != StatusActive {
			return nil, s, ErrNotActive
		}
		ns := s.clone()
		ns.Status = StatusEnded
		return []Event{{Type: EvtMatchEnded, Winner: s.winnerOnTime(), Reason: ReasonTime}}, ns, nil

	case CmdForfeit:
		if s.Status == StatusEnded {
			return nil, s, ErrMatchEnded
		}
		opp, ok := s.Opponent(cmd.Username)
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		ns := s.clone()
		ns.Status = StatusEnded
		return []Event{{Type: EvtMatchEnded, Winner: opp.Username, Reason: ReasonDisconnect}}, ns, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// resolveKeystroke applies one full-buffer keystroke message to the acting
// player and routes any resulting attack at the opponent. Event order is
// fixed: shield gain first, then the block/damage outcome, then attack_sent.
func resolveKeystroke(p, opp *PlayerState, typed, target string) []Event {
	var events []Event

	p.Typed = typed
	p.TotalChars = len(typed)
	p.CorrectChars = countCorrect(typed, target)

	// Trailing-character check drives the combo. A typo only stalls the
	// combo; it never costs health or shields.
	if len(typed) > 0 && len(typed) <= len(target) {
		if typed[len(typed)-1] == target[len(typed)-1] {
			p.Combo++
			if p.Combo%ComboThreshold == 0 {
				p.Shields++
				events = append(events, Event{Type: EvtShieldGained, To: p.Username, Shields: p.Shields})
			}
		} else {
			p.Combo = 0
		}
	}

	completed := completedWords(typed, target)
	if completed > p.WordsCompleted {
		// Only the transition is scored: damage comes from the word at the
		// previous count, even if the message completed several words at once.
		words := strings.Fields(typed)
		damage := 1
		if len(words[p.WordsCompleted]) > LongWordLength {
			damage++
		}

		if opp.Shields > 0 {
			opp.Shields--
			events = append(events, Event{Type: EvtShieldBlocked, To: opp.Username, Shields: opp.Shields})
		} else {
			opp.HP -= damage
			if opp.HP < 0 {
				opp.HP = 0
			}
			events = append(events, Event{Type: EvtDamageTaken, To: opp.Username, Damage: damage, HP: opp.HP})
		}

		// The attacker is never told whether the hit was blocked.
		events = append(events, Event{Type: EvtAttackSent, To: p.Username, Damage: damage})
		p.WordsCompleted = completed
	}

	return events
}

func countCorrect(typed, target string) int {
	n := 0
	for i := 0; i < len(typed) && i < len(target); i++ {
		if typed[i] == target[i] {
			n++
		}
	}
	return n
}

// completedWords is the length of the common matching prefix of the typed and
// target word sequences: a word only counts while every word before it also
// matches.
func completedWords(typed, target string) int {
	typedWords := strings.Fields(typed)
	targetWords := strings.Fields(target)

	n := 0
	for i := 0; i < len(typedWords) && i < len(targetWords); i++ {
		if typedWords[i] != targetWords[i] {
			break
		}
		n++
	}
	return n
}
