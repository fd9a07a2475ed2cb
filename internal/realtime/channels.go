package realtime

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Channel names a broadcast scope.
type Channel string

const (
	boardChannelPrefix = "board:"
	userChannelPrefix  = "user:"
)

// BoardChannel is the scope of every connection viewing a board.
func BoardChannel(boardID uuid.UUID) Channel {
	return Channel(boardChannelPrefix + boardID.String())
}

// UserChannel is the personal scope of every connection of one user.
func UserChannel(userID uuid.UUID) Channel {
	return Channel(userChannelPrefix + userID.String())
}

// BoardID returns the board of a board channel.
func (c Channel) BoardID() (uuid.UUID, bool) {
	return c.id(boardChannelPrefix)
}

// UserID returns the user of a personal channel.
func (c Channel) UserID() (uuid.UUID, bool) {
	return c.id(userChannelPrefix)
}

func (c Channel) id(prefix string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(string(c), prefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ParseChannel validates a channel name received from outside the process.
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if _, ok := c.BoardID(); ok {
		return c, nil
	}
	if _, ok := c.UserID(); ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
}
