package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"qr-checkin/common/errs"
	"qr-checkin/model"
	"strings"

	"github.com/spf13/viper"
)

// ErrTicketNotFound means the web app answered but knows no such ticket.
var ErrTicketNotFound = errors.New("sheets: ticket not found")

// Client talks to the Google Apps Script web app deployed in front of the
// ticket management sheet. The script multiplexes every operation through an
// "action" query parameter on a single exec URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg *viper.Viper) *Client {
	return &Client{
		baseURL: cfg.GetString("sheets.url"),
		httpClient: &http.Client{
			Timeout: cfg.GetDuration("sheets.timeout"),
		},
	}
}

type envelope struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error"`
	Ticket  *model.TicketRecord  `json:"ticket"`
	Tickets []model.TicketRecord `json:"tickets"`
	Config  *model.RemoteConfig  `json:"config"`
}

func (c *Client) FetchByTicketNumber(ctx context.Context, number string) (model.TicketRecord, error) {
	env, err := c.get(ctx, url.Values{"action": {"getTicket"}, "ticketNumber": {number}})
	if err != nil {
		return model.TicketRecord{}, err
	}

	if !env.Success || env.Ticket == nil {
		return model.TicketRecord{}, ErrTicketNotFound
	}

	return *env.Ticket, nil
}

// SearchByPartial asks the script to match the last digits of a ticket
// number. Disambiguation of multiple matches happens on the service side; at
// most one ticket comes back.
func (c *Client) SearchByPartial(ctx context.Context, suffix string) (model.TicketRecord, error) {
	env, err := c.get(ctx, url.Values{"action": {"searchTicket"}, "partial": {suffix}})
	if err != nil {
		return model.TicketRecord{}, err
	}

	if !env.Success || env.Ticket == nil {
		return model.TicketRecord{}, ErrTicketNotFound
	}

	return *env.Ticket, nil
}

// FetchAll pulls the whole sheet for a cache refresh.
func (c *Client) FetchAll(ctx context.Context) ([]model.TicketRecord, error) {
	env, err := c.get(ctx, url.Values{"action": {"getTickets"}})
	if err != nil {
		return nil, err
	}

	if !env.Success {
		return nil, fmt.Errorf("sheets: fetch all rejected: %s", env.Error)
	}

	return env.Tickets, nil
}

// UpdateEntryStatus dispatches the entry transition. The script hides its
// response behind redirects more often than not, so anything that made it
// onto the wire counts as success; only a failed dispatch is an error.
func (c *Client) UpdateEntryStatus(ctx context.Context, number, status string) error {
	form := url.Values{
		"action":       {"updateEntry"},
		"ticketNumber": {number},
		"entryStatus":  {status},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &errs.NetworkError{Op: "sheets.updateEntry", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errs.NetworkError{Op: "sheets.updateEntry", Err: err}
	}
	defer resp.Body.Close()

	return nil
}

// GetConfig returns the PIN settings the script stores next to the tickets.
func (c *Client) GetConfig(ctx context.Context) (model.RemoteConfig, error) {
	env, err := c.get(ctx, url.Values{"action": {"getConfig"}})
	if err != nil {
		return model.RemoteConfig{}, err
	}

	if !env.Success || env.Config == nil {
		return model.RemoteConfig{}, fmt.Errorf("sheets: config unavailable: %s", env.Error)
	}

	return *env.Config, nil
}

func (c *Client) get(ctx context.Context, params url.Values) (*envelope, error) {
	op := "sheets." + params.Get("action")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &errs.NetworkError{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.NetworkError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &errs.NetworkError{Op: op, Err: err}
	}

	return &env, nil
}
