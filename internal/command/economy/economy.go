// Package economy holds the gold commands: the daily stipend, transfers,
// gambling, and the item market.
package economy

import (
	"fmt"

	"ashenrealm/internal/command"
	"ashenrealm/pkg/cmd"
)

func slash(inv *cmd.Invocation) (*command.SlashContext, error) {
	sc, ok := inv.Data.(*command.SlashContext)
	if !ok {
		return nil, fmt.Errorf("wrong context type %T", inv.Data)
	}
	return sc, nil
}
