package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

// Sentinel errors returned by TrendingSource implementations.
var (
	// ErrNetwork indicates that no HTTP response was obtained.
	ErrNetwork = errors.New("network error")

	// ErrParse indicates a success response whose body could not be decoded.
	ErrParse = errors.New("malformed response body")
)

// RemoteError is returned when the remote API answers with a non-success status.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("GitHub API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("GitHub API error: %d: %s", e.StatusCode, e.Message)
}

// TrendingSource defines the driven port for the remote repository listing.
// FetchTrending issues exactly one request for repositories created in the
// last seven days, most starred first. It never returns partial results.
type TrendingSource interface {
	FetchTrending(ctx context.Context) (*model.SearchResult, error)
}

// Describe converts a fetch error into a short message suitable for display.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var remote *RemoteError
	switch {
	case errors.As(err, &remote):
		return fmt.Sprintf("GitHub API error: %d", remote.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		// A deadline also surfaces as ErrNetwork since no response arrived.
		return "Timed out waiting for GitHub."
	case errors.Is(err, ErrNetwork):
		return "Could not reach GitHub. Check your network connection and try again."
	case errors.Is(err, ErrParse):
		return "GitHub returned a response that could not be read."
	default:
		return err.Error()
	}
}
