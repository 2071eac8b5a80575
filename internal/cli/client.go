package cli

import (
	"net"
	"net/http"
	"time"

	"github.com/alanmeadows/langbridge/internal/config"
	"github.com/alanmeadows/langbridge/internal/langgraph"
)

// newClient builds the one LangGraph client a command uses. Streams run
// without an overall deadline; server.timeout bounds the wait for headers.
func newClient(cfg *config.Config) *langgraph.HTTPClient {
	hc := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			ResponseHeaderTimeout: cfg.Server.ParseTimeout(),
			IdleConnTimeout:       90 * time.Second,
		},
	}
	return langgraph.NewHTTPClient(langgraph.ClientConfig{
		BaseURL:     cfg.Server.URL,
		APIKey:      cfg.Server.APIKey,
		AssistantID: cfg.Server.AssistantID,
		ModelName:   cfg.Run.ModelName,
		StreamMode:  cfg.Run.StreamMode,
		HTTPClient:  hc,
	})
}
