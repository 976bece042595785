// Package events publishes run-completion notifications to NATS JetStream.
// Publication is fire-and-forget from the build's point of view: failures
// are reported to the caller to log as warnings, never to abort on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/pipeline"
)

// publishTimeout bounds one JetStream publish so event delivery can never
// stall a build.
const publishTimeout = 5 * time.Second

// RefreshEvent is the payload published on {subject}.refresh after a
// directive refresh pass.
type RefreshEvent struct {
	RunID      string    `json:"run_id"`
	Time       time.Time `json:"time"`
	Files      int       `json:"files"`
	Directives int       `json:"directives"`
	Reused     int       `json:"reused"`
	Generated  int       `json:"generated"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
}

// NewRefreshEvent flattens a refresh report into its event payload.
func NewRefreshEvent(runID string, rep *docref.RefreshReport) RefreshEvent {
	ev := RefreshEvent{RunID: runID, Time: time.Now()}
	if rep == nil {
		return ev
	}
	ev.Files = rep.Files
	ev.Directives = rep.Directives
	ev.Reused = rep.Reused
	ev.Generated = rep.Regenerated + rep.Bootstrapped
	ev.Failed = rep.Failed
	ev.DurationMS = rep.Duration.Milliseconds()
	return ev
}

// BuildEvent is the payload published on {subject}.build after a full
// pipeline run.
type BuildEvent struct {
	RunID      string    `json:"run_id"`
	Time       time.Time `json:"time"`
	Outcome    string    `json:"outcome"`
	Merged     int       `json:"merged"`
	Gaps       int       `json:"gaps"`
	Warnings   int       `json:"warnings"`
	DurationMS int64     `json:"duration_ms"`
}

// NewBuildEvent flattens a build report into its event payload.
func NewBuildEvent(rep *pipeline.BuildReport) BuildEvent {
	ev := BuildEvent{
		RunID:      rep.RunID,
		Time:       rep.End,
		Outcome:    string(rep.Outcome),
		Warnings:   len(rep.Warnings),
		DurationMS: rep.End.Sub(rep.Start).Milliseconds(),
	}
	if rep.Merge != nil {
		ev.Merged = rep.Merge.Merged
		ev.Gaps = len(rep.Merge.Gaps)
	}
	return ev
}

// Publisher publishes llmdocs events over one NATS connection.
type Publisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string

	Logger *slog.Logger
}

// Connect dials the NATS server and prepares a JetStream context. subject is
// the configured prefix; ".refresh" and ".build" are appended per event.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("llmdocs"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", url, err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return &Publisher{conn: conn, js: js, subject: subject, Logger: slog.Default()}, nil
}

// PublishRefresh publishes a refresh completion event.
func (p *Publisher) PublishRefresh(ctx context.Context, ev RefreshEvent) error {
	return p.publish(ctx, p.subject+".refresh", ev)
}

// PublishBuild publishes a build completion event.
func (p *Publisher) PublishBuild(ctx context.Context, ev BuildEvent) error {
	return p.publish(ctx, p.subject+".build", ev)
}

func (p *Publisher) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.Logger.Debug("published event", slog.String("subject", subject))
	return nil
}

// Close drains the underlying connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
