package match

import (
	"context"

	control "vsss-drive/closed_loop/drive_control"
	"vsss-drive/field"
	"vsss-drive/utils"
)

// Actuator delivers wheel commands. Implementations must return within a
// bounded time.
type Actuator interface {
	SendCommand(ctx context.Context, cmd control.WheelCommand) error
}

// SendAll sends every command in order. A failed command is logged and
// the rest are still sent; the number of failures is returned.
func SendAll(ctx context.Context, a Actuator, cmds []control.WheelCommand, log *utils.Logger) int {
	failed := 0
	for _, cmd := range cmds {
		if err := a.SendCommand(ctx, cmd); err != nil {
			failed++
			log.Error("send robot=%d left=%.2f right=%.2f: %v", cmd.Index, cmd.Left, cmd.Right, err)
		}
	}
	return failed
}

// StopCommands is one zero command per robot index.
func StopCommands() []control.WheelCommand {
	cmds := make([]control.WheelCommand, field.NumRobots)
	for i := range cmds {
		cmds[i] = control.StopCommand(i)
	}
	return cmds
}

// StopAll brings every robot to rest.
func StopAll(ctx context.Context, a Actuator, log *utils.Logger) int {
	return SendAll(ctx, a, StopCommands(), log)
}
