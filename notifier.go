package bqloadbench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

// Notifier notifies results for each benchmark session.
type Notifier interface {
	Notify(context.Context, *Result) error
}

// Result is a result for each benchmark session.
type Result struct {
	Name      string
	Records   []Record
	Summaries []Summary
	Error     error
}

// Notify sends r to the notifier configured by WithNotifier, if any.
func (cc *ClientContext) Notify(ctx context.Context, r *Result) error {
	if cc.notifier == nil {
		return nil
	}

	if err := cc.notifier.Notify(cc.WithLogger(ctx), r); err != nil {
		return xerrors.Errorf("failed to notify %s: %w", r.Name, err)
	}

	return nil
}

// SlackNotifier is a notifier for Slack.
type SlackNotifier struct {
	Channel    string
	IconEmoji  string
	Username   string
	Token      string
	HTTPClient *http.Client
}

type slackMessage struct {
	Channel   string `json:"channel"`
	IconEmoji string `json:"icon_emoji,omitempty"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Notify notifies results to Slack channel.
func (n *SlackNotifier) Notify(ctx context.Context, r *Result) error {
	l := log.Ctx(ctx)

	m := &slackMessage{
		Channel:   n.Channel,
		IconEmoji: n.IconEmoji,
		Text:      slackText(r),
		Username:  n.Username,
	}
	l.Debug().Msgf("m = %+v", m)

	if err := n.postMessage(ctx, m); err != nil {
		return xerrors.Errorf("slack postMessage failed: %w", err)
	}

	return nil
}

func slackText(r *Result) string {
	if r.Error != nil {
		return fmt.Sprintf("%s benchmark failed: %s", r.Name, r.Error)
	}

	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%s benchmark finished\n```\n", r.Name)
	if err := WriteReport(buf, r.Summaries); err != nil {
		fmt.Fprintf(buf, "failed to render report: %v\n", err)
	}
	buf.WriteString("```")

	return buf.String()
}

func (n *SlackNotifier) postMessage(ctx context.Context, m *slackMessage) error {
	l := log.Ctx(ctx)

	reqJSON, err := json.Marshal(m)
	if err != nil {
		return xerrors.Errorf("failed to marshal json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://slack.com/api/chat.postMessage", bytes.NewReader(reqJSON))
	if err != nil {
		return xerrors.Errorf("failed to build http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	l.Debug().Msgf("req = %+v", req)
	req.Header.Set("Authorization", "Bearer "+n.Token)

	c := n.HTTPClient
	if c == nil {
		c = http.DefaultClient
	}

	resp, err := c.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.Errorf("failed to read response body: %w", err)
	}

	l.Debug().Msgf("body = %s", body)

	if resp.StatusCode >= 400 {
		return xerrors.Errorf(
			"slack request failed with status code %d (%s)", resp.StatusCode, body)
	}

	var sres slackResponse
	if err := json.Unmarshal(body, &sres); err != nil {
		return xerrors.Errorf("failed to unmarshal response body: %w", err)
	}

	if !sres.OK {
		return xerrors.Errorf("failed to send message: %s", sres.Error)
	}

	return nil
}
