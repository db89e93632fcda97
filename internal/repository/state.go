package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-relay/internal/protocol"
)

const (
	StateKey      = "game:current"
	EventsChannel = "game:events"
)

var ErrStateNotFound = errors.New("game state not found")

// StateMirror - write-only copy of the live game for outside readers. The server never
// loads it back, so a restart always begins with an empty board.
type StateMirror struct {
	client *redis.Client
}

func NewStateMirror(client *redis.Client) *StateMirror {
	return &StateMirror{client: client}
}

// SaveState - stores the state under StateKey and publishes it on EventsChannel.
func (that *StateMirror) SaveState(ctx context.Context, state protocol.GameStatePayload) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, StateKey, stateJSON, 0)
		pipe.Publish(ctx, EventsChannel, stateJSON)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mirror state: %w", err)
	}

	return nil
}

// GetCurrent - the last mirrored state, for readers outside the game server such as
// dashboards or a standby process. The game server itself never calls it.
func (that *StateMirror) GetCurrent(ctx context.Context) (*protocol.GameStatePayload, error) {
	response, err := that.client.Get(ctx, StateKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	var state protocol.GameStatePayload
	if err = json.Unmarshal([]byte(response), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// Subscribe - state updates as they are published, for the same outside readers as
// GetCurrent. The channel closes with ctx.
func (that *StateMirror) Subscribe(ctx context.Context) (<-chan protocol.GameStatePayload, error) {
	pubsub := that.client.Subscribe(ctx, EventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}

	updates := make(chan protocol.GameStatePayload)

	go func() {
		defer close(updates)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var state protocol.GameStatePayload
				if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
					continue
				}

				select {
				case updates <- state:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, nil
}
