// Package social holds the commands between players: marriage, guilds, and
// the two-party trade flow.
package social

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
