// Package character holds the character lifecycle commands: create, delete,
// profile, pet care, and the faith commands (pray, follow, unfollow).
package character

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
