// Package discovery finds the public base URL under which the relay is
// reachable, by asking the local tunnel agent's introspection API.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	DefaultTunnelPort = 4040
	TunnelsPath       = "/api/tunnels"
)

// ErrUpstreamUnavailable is returned when no public base URL could be obtained.
var ErrUpstreamUnavailable = errors.New("tunnel discovery unavailable")

// Resolver yields the public base URL, without a trailing slash.
type Resolver interface {
	ResolvePublicBaseURL(ctx context.Context) (string, error)
}

// Tunnel is one entry of the agent's tunnel list.
type Tunnel struct {
	Name      string `json:"name"`
	PublicURL string `json:"public_url"`
	Proto     string `json:"proto"`
}

// TunnelList is the body returned by GET /api/tunnels.
type TunnelList struct {
	Tunnels []Tunnel `json:"tunnels"`
}

// AgentResolver queries the tunnel agent on localhost and always uses the
// first tunnel it reports.
type AgentResolver struct {
	Port   int
	Client *http.Client
	// Host defaults to localhost.
	Host string
}

// NewAgentResolver returns a resolver for the agent listening on port.
func NewAgentResolver(port int, client *http.Client) *AgentResolver {
	if port <= 0 {
		port = DefaultTunnelPort
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &AgentResolver{Port: port, Client: client}
}

// Endpoint is the introspection URL this resolver queries.
func (a *AgentResolver) Endpoint() string {
	host := a.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d%s", host, a.Port, TunnelsPath)
}

func (a *AgentResolver) ResolvePublicBaseURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Endpoint(), nil)
	if err != nil {
		return "", errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return "", errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", errors.Wrapf(ErrUpstreamUnavailable, "%s answered %s", a.Endpoint(), resp.Status)
	}

	var list TunnelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return "", errors.Wrap(ErrUpstreamUnavailable, "decoding tunnel list: "+err.Error())
	}
	return firstPublicURL(list)
}

func firstPublicURL(list TunnelList) (string, error) {
	if len(list.Tunnels) == 0 {
		return "", errors.Wrap(ErrUpstreamUnavailable, "no active tunnels")
	}
	u := strings.TrimRight(strings.TrimSpace(list.Tunnels[0].PublicURL), "/")
	if u == "" {
		return "", errors.Wrap(ErrUpstreamUnavailable, "first tunnel has no public_url")
	}
	return u, nil
}

// Static always resolves to the same base URL.
type Static string

func (s Static) ResolvePublicBaseURL(context.Context) (string, error) {
	u := strings.TrimRight(string(s), "/")
	if u == "" {
		return "", errors.Wrap(ErrUpstreamUnavailable, "no public base URL configured")
	}
	return u, nil
}
