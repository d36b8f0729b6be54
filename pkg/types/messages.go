package types

// Client -> Server (all over the /api/ws/{username} socket)
// join_queue: {}
//
// keystroke:
//   typed: string  // the FULL current input buffer, not a delta
//
// leave_queue: {}

// Server -> Client
// queue_joined:
//   queue_size: number
//
// queue_left: {}
//
// match_found:
//   match_id: string
//   opponent: string
//   text: string
//   your_side: "player1" | "player2"
//
// countdown:
//   count: 3 | 2 | 1
//
// match_started: {}
//
// shield_gained:   // to the acting player only
//   shields: number
//
// shield_blocked:  // to the defender only; the attacker is never told
//   shields: number
//
// damage_taken:
//   damage: number
//   hp: number
//
// attack_sent:
//   damage: number
//
// game_state:      // to both, after every keystroke, even if nothing changed
//   player:   { hp, shields, combo, accuracy, typed }
//   opponent: { hp, shields, combo, accuracy, typed }
//
// match_ended:
//   result: "victory" | "defeat"
//   reason: "ko" | "time" | "disconnect"
//   rank_change: number
//   new_rank: number
//   rank_name: "Bronze" | "Silver" | "Gold" | "Diamond"
//   accuracy: number
//   final_hp: number
