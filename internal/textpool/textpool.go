// Package textpool supplies the shared passages players race over.
package textpool

import (
	"context"
	"math/rand"
)

// Source yields one passage per match. Implementations must always return a
// usable passage; failures fall back internally.
type Source interface {
	Passage(ctx context.Context) string
}

var passages = []string{
	"The quick brown fox jumps over the lazy dog while carrying a heavy backpack through the forest.",
	"Artificial intelligence systems are transforming how we interact with technology in our daily lives.",
	"Professional gamers practice their skills for hours every day to compete at the highest level.",
	"Mountain climbers face extreme weather conditions and dangerous terrain on their expeditions.",
	"Modern architecture combines functionality with aesthetic design to create beautiful spaces.",
	"Scientists conduct experiments to discover new knowledge about the natural world and universe.",
	"Musicians spend years mastering their instruments to perform complex compositions flawlessly.",
	"Athletes train rigorously to improve their speed strength and endurance for competition.",
	"Writers craft stories that transport readers to different worlds and spark imagination.",
	"Engineers design innovative solutions to solve complex technical problems efficiently.",
}

// Static picks uniformly from the built-in pool.
type Static struct{}

func (Static) Passage(_ context.Context) string {
	return passages[rand.Intn(len(passages))]
}
