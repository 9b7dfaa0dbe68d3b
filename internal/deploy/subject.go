package deploy

import (
	"fmt"
	"strings"
)

// Subject renders the channel subject for a snapshot: who holds the deploy
// slot and who is waiting. With several running cards (two people forced a
// deploy at once) the top card names the slot holder.
func Subject(snap *Snapshot) string {
	runner := "nobody"
	if len(snap.Running) > 0 {
		runner = snap.Running[0].Name
	}
	if len(snap.Queue) == 0 {
		return fmt.Sprintf("Deploying: %s", runner)
	}

	waiting := make([]string, len(snap.Queue))
	for i, card := range snap.Queue {
		waiting[i] = card.Name
	}
	return fmt.Sprintf("Deploying: %s | In line: %s", runner, strings.Join(waiting, ", "))
}
