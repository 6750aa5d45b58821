package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/ledkey/util"
)

// Command types accepted from clients.
const (
	CommandPlay = "play"
	CommandAdd  = "add"
)

// Placeholder range for added keyframes that arrive without a position.
const (
	placeholderMin = 50.0
	placeholderMax = 450.0
)

// ErrUnknownCommand is returned for a command type the controller does not
// handle.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a client request to the controller.
type Command struct {
	Type     string   `json:"type"`
	Position *float64 `json:"position,omitempty"`
}

// DecodeCommand parses a JSON command.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	return cmd, nil
}

// CommandHandler executes decoded commands.
type CommandHandler interface {
	Handle(cmd Command) error
}

// Handle executes cmd against the controller.
func (c *Controller) Handle(cmd Command) error {
	switch cmd.Type {
	case CommandPlay:
		c.TogglePlay()
	case CommandAdd:
		position := util.RandomPosition(placeholderMin, placeholderMax)
		if cmd.Position != nil {
			position = *cmd.Position
		}
		c.AddKeyframe(position)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

// Subscriber is the part of an MQTT client used to receive commands.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// SubscribeCommands routes JSON commands published on topic to handler.
func SubscribeCommands(client Subscriber, topic string, handler CommandHandler, log *slog.Logger) error {
	callback := func(_ mqtt.Client, msg mqtt.Message) {
		log.Debug("received command", "id", msg.MessageID(), "topic", msg.Topic(), "payload", string(msg.Payload()))

		cmd, err := DecodeCommand(msg.Payload())
		if err != nil {
			log.Warn("bad command", "topic", msg.Topic(), "error", err)
			return
		}
		if err := handler.Handle(cmd); err != nil {
			log.Warn("command failed", "type", cmd.Type, "error", err)
		}
	}

	if token := client.Subscribe(topic, 0, callback); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}
