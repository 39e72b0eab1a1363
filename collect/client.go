package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/store"
)

const (
	contentType      = "application/json"
	defaultBatchSize = 100
)

// Client talks to a collection server. It implements Sink and TriggerSink.
type Client struct {
	// Server is the URL scheme, address and port of the server.
	Server string
	HTTP   *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (collectResponse, error) {
	var resp collectResponse
	body, err := json.Marshal(payload)
	if err != nil {
		return resp, fmt.Errorf("error marshalling to JSON: %w", err)
	}
	url := strings.TrimRight(c.Server, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.httpClient().Do(req)
	if err != nil {
		return resp, fmt.Errorf("error POSTing to %s: %w", url, err)
	}
	defer res.Body.Close()
	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return resp, fmt.Errorf("error reading POST body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		var e errorResponse
		json.Unmarshal(respBody, &e)
		return resp, fmt.Errorf("%s returned %s: %s", url, res.Status, e.Error)
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return resp, fmt.Errorf("error decoding response of %s: %w", url, err)
	}
	return resp, nil
}

func (c *Client) PutSource(ctx context.Context, src store.Source) error {
	_, err := c.post(ctx, SourcesEndpoint, NewSourceRequest(src))
	return err
}

func (c *Client) AddSpectra(ctx context.Context, identifier string, spectra []datasource.Spectrum) error {
	resp, err := c.post(ctx, CollectEndpoint, CollectRequest{Identifier: identifier, Spectra: spectra})
	if err != nil {
		return err
	}
	glog.V(1).Infof("submitted %d spectra to server %s", resp.SampleCount, c.Server)
	return nil
}

func (c *Client) AddTrigger(ctx context.Context, t store.Trigger) error {
	return c.AddTriggers(ctx, []store.Trigger{t})
}

// AddTriggers submits several triggers in one request.
func (c *Client) AddTriggers(ctx context.Context, triggers []store.Trigger) error {
	resp, err := c.post(ctx, TriggersEndpoint, triggers)
	if err != nil {
		return err
	}
	glog.V(1).Infof("submitted %d triggers to server %s", resp.SampleCount, c.Server)
	return nil
}

// Forward drains spectra into sink in batches of batchSize (0 means 100).
// Failed batches are logged and dropped. The last partial batch is sent when
// spectra is closed.
func Forward(ctx context.Context, sink Sink, identifier string, batchSize int, spectra <-chan datasource.Spectrum) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	counts := map[string]int{
		"error":   0,
		"success": 0,
		"total":   0,
	}
	send := func(batch []datasource.Spectrum) {
		counts["total"] += len(batch)
		if err := sink.AddSpectra(ctx, identifier, batch); err != nil {
			counts["error"] += len(batch)
			glog.Warningf("error forwarding %d spectra: %s\n", len(batch), err)
			return
		}
		counts["success"] += len(batch)
		glog.V(2).Infof("Spectra forward counts: %+v\n", counts)
	}

	var batch []datasource.Spectrum
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sp, ok := <-spectra:
			if !ok {
				if len(batch) > 0 {
					send(batch)
				}
				glog.Infof("Spectra forward counts: %+v\n", counts)
				return nil
			}
			batch = append(batch, sp)
			if len(batch) < batchSize {
				continue // we haven't collected enough spectra to send yet
			}
			send(batch)
			batch = nil
		}
	}
}
