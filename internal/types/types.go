package types

// ClientMessage is the single inbound shape. Action selects the variant;
// Typed is only meaningful for "keystroke" and carries the player's full
// current input buffer, not a delta.
type ClientMessage struct {
	Action string `json:"action"`
	Typed  string `json:"typed,omitempty"`
}

const (
	ActionJoinQueue  = "join_queue"
	ActionKeystroke  = "keystroke"
	ActionLeaveQueue = "leave_queue"
)

// ServerEvent is the closed set of outbound events. Each variant carries its
// own wire tag so the transport just marshals whatever it is handed.
type ServerEvent interface{ isServerEvent() }

type QueueJoined struct {
	Type      string `json:"type"`
	QueueSize int    `json:"queue_size"`
}

type QueueLeft struct {
	Type string `json:"type"`
}

type MatchFound struct {
	Type     string `json:"type"`
	MatchID  string `json:"match_id"`
	Opponent string `json:"opponent"`
	Text     string `json:"text"`
	YourSide string `json:"your_side"`
}

type Countdown struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type MatchStarted struct {
	Type string `json:"type"`
}

type ShieldGained struct {
	Type    string `json:"type"`
	Shields int    `json:"shields"`
}

type ShieldBlocked struct {
	Type    string `json:"type"`
	Shields int    `json:"shields"`
}

type DamageTaken struct {
	Type   string `json:"type"`
	Damage int    `json:"damage"`
	HP     int    `json:"hp"`
}

type AttackSent struct {
	Type   string `json:"type"`
	Damage int    `json:"damage"`
}

// PlayerView is one side of a game_state snapshot. Accuracy is rounded to one
// decimal at this boundary only.
type PlayerView struct {
	HP       int     `json:"hp"`
	Shields  int     `json:"shields"`
	Combo    int     `json:"combo"`
	Accuracy float64 `json:"accuracy"`
	Typed    string  `json:"typed"`
}

type GameState struct {
	Type     string     `json:"type"`
	Player   PlayerView `json:"player"`
	Opponent PlayerView `json:"opponent"`
}

type MatchEnded struct {
	Type       string  `json:"type"`
	Result     string  `json:"result"` // "victory" | "defeat"
	Reason     string  `json:"reason"` // "ko" | "time" | "disconnect"
	RankChange int     `json:"rank_change"`
	NewRank    int     `json:"new_rank"`
	RankName   string  `json:"rank_name"`
	Accuracy   float64 `json:"accuracy"`
	FinalHP    int     `json:"final_hp"`
}

func (QueueJoined) isServerEvent()   {}
func (QueueLeft) isServerEvent()     {}
func (MatchFound) isServerEvent()    {}
func (Countdown) isServerEvent()     {}
func (MatchStarted) isServerEvent()  {}
func (ShieldGained) isServerEvent()  {}
func (ShieldBlocked) isServerEvent() {}
func (DamageTaken) isServerEvent()   {}
func (AttackSent) isServerEvent()    {}
func (GameState) isServerEvent()     {}
func (MatchEnded) isServerEvent()    {}

func NewQueueJoined(size int) QueueJoined { return QueueJoined{Type: "queue_joined", QueueSize: size} }
func NewQueueLeft() QueueLeft             { return QueueLeft{Type: "queue_left"} }

func NewMatchFound(matchID, opponent, text, side string) MatchFound {
	return MatchFound{Type: "match_found", MatchID: matchID, Opponent: opponent, Text: text, YourSide: side}
}

func NewCountdown(count int) Countdown { return Countdown{Type: "countdown", Count: count} }
func NewMatchStarted() MatchStarted    { return MatchStarted{Type: "match_started"} }

func NewShieldGained(shields int) ShieldGained {
	return ShieldGained{Type: "shield_gained", Shields: shields}
}

func NewShieldBlocked(shields int) ShieldBlocked {
	return ShieldBlocked{Type: "shield_blocked", Shields: shields}
}

func NewDamageTaken(damage, hp int) DamageTaken {
	return DamageTaken{Type: "damage_taken", Damage: damage, HP: hp}
}

func NewAttackSent(damage int) AttackSent { return AttackSent{Type: "attack_sent", Damage: damage} }

func NewGameState(player, opponent PlayerView) GameState {
	return GameState{Type: "game_state", Player: player, Opponent: opponent}
}

func NewMatchEnded(result, reason string, rankChange, newRank int, rankName string, accuracy float64, finalHP int) MatchEnded {
	return MatchEnded{
		Type:       "match_ended",
		Result:     result,
		Reason:     reason,
		RankChange: rankChange,
		NewRank:    newRank,
		RankName:   rankName,
		Accuracy:   accuracy,
		FinalHP:    finalHP,
	}
}
