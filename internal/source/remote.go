// internal/source/remote.go
// Remote archive API lookups. The API serves the same artifact shapes over
// HTTP inside a {success: bool, ...} envelope; a non-success status or a
// false success flag means "not found", never an error.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ArchiveLens/archivelens-explorer-go/internal/model"
)

// Remote resolves artifacts from a remote archive API.
type Remote struct {
	base string       // Base URL of the archive API
	hc   *http.Client // HTTP client with conservative timeouts
}

// envelope is the API's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// NewRemote creates a remote archive API source with the given base URL.
func NewRemote(baseURL string) *Remote {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
	}
	return &Remote{
		base: baseURL,
		hc:   &http.Client{Transport: transport, Timeout: 5 * time.Second},
	}
}

// Name implements Source.
func (r *Remote) Name() string { return "remote" }

// Lookup implements Source. The per-type endpoint is parameterized by id;
// any non-2xx status is treated as not found rather than an error.
func (r *Remote) Lookup(ctx context.Context, t model.ArtifactType, id string, _ Hint) (*Payload, error) {
	data, ok, err := r.get(ctx, fmt.Sprintf("/api/%s/%s", t, url.PathEscape(id)))
	if err != nil || !ok {
		return nil, err
	}
	return decodePayload(t, id, data)
}

// MetadataEntries fetches the full metadata index from the API, used when no
// local metadata source exists.
func (r *Remote) MetadataEntries(ctx context.Context) ([]model.MetadataEntry, error) {
	data, ok, err := r.get(ctx, "/api/metadata")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("remote: no metadata index")
	}
	var entries []model.MetadataEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("remote metadata: %w", err)
	}
	return entries, nil
}

// KeywordIndex fetches the full keyword index from the API, empty on any
// failure.
func (r *Remote) KeywordIndex(ctx context.Context) map[string][]string {
	data, ok, err := r.get(ctx, "/api/keywords")
	if err != nil || !ok {
		return map[string][]string{}
	}
	var kws map[string][]string
	if err := json.Unmarshal(data, &kws); err != nil {
		return map[string][]string{}
	}
	return kws
}

// get performs one API request and unwraps the envelope. ok=false means the
// artifact is not present at this source.
func (r *Remote) get(ctx context.Context, path string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, false, fmt.Errorf("remote %s: %w", path, err)
	}
	if !env.Success {
		return nil, false, nil
	}
	return env.Data, true, nil
}
