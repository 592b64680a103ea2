package discord

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/vedran77/raidpool/internal/platform"
)

// mapErr collapses discordgo failures onto the platform's typed outcomes.
// The distinction matters: a NotFound is a terminal signal that drives
// reclamation, while an Unavailable is retried and must never be mistaken
// for a vanished record.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return fmt.Errorf("%w: rate limited: %v", platform.ErrUnavailable, err)
	}

	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch code := rest.Response.StatusCode; {
		case code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", platform.ErrNotFound, err)
		case code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", platform.ErrPermission, err)
		case code == http.StatusTooManyRequests || code >= 500:
			return fmt.Errorf("%w: %v", platform.ErrUnavailable, err)
		default:
			return err
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", platform.ErrUnavailable, err)
	}

	return err
}
