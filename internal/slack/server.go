package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shubh-37/ghostwriter/internal/logger"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const eventTimeout = 2 * time.Minute

// Server receives signed Slack Events API callbacks
type Server struct {
	messageHandler  *MessageHandler
	reactionHandler *ReactionHandler
	signingSecret   string
	log             *logger.Logger

	wg sync.WaitGroup
}

func NewServer(messageHandler *MessageHandler, reactionHandler *ReactionHandler, signingSecret string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		messageHandler:  messageHandler,
		reactionHandler: reactionHandler,
		signingSecret:   signingSecret,
		log:             log,
	}
}

// Handler serves /slack/events and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/events", s.handleEvents)
	mux.HandleFunc("/health", s.healthCheck)
	return mux
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.Warn("failed to read slack request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, s.signingSecret)
	if err != nil {
		s.log.Warn("failed to create secrets verifier", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if _, err := sv.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := sv.Ensure(); err != nil {
		s.log.Warn("slack signature rejected", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	eventsAPIEvent, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.log.Warn("failed to parse slack event", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if eventsAPIEvent.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))
		return
	}

	// Slack redelivers events it considers slow; handling a retry would charge a generation twice
	if r.Header.Get("X-Slack-Retry-Num") != "" {
		s.log.Debug("ignoring slack retry", "reason", r.Header.Get("X-Slack-Retry-Reason"))
		w.WriteHeader(http.StatusOK)
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		s.dispatch(eventsAPIEvent.InnerEvent)
	}

	w.WriteHeader(http.StatusOK)
}

// dispatch handles the event in the background so Slack gets its acknowledgement in time
func (s *Server) dispatch(inner slackevents.EventsAPIInnerEvent) {
	var handle func(ctx context.Context) error

	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		handle = func(ctx context.Context) error { return s.messageHandler.HandleAppMention(ctx, ev) }
	case *slackevents.ReactionAddedEvent:
		handle = func(ctx context.Context) error { return s.reactionHandler.HandleReaction(ctx, ev) }
	default:
		s.log.Debug("unsupported slack event", "type", inner.Type)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := handle(ctx); err != nil {
			s.log.Error("failed to handle slack event", "type", inner.Type, "error", err)
		}
	}()
}

// Wait blocks until every dispatched event has been handled
func (s *Server) Wait() {
	s.wg.Wait()
}

// Start serves until ctx is cancelled, then drains in-flight events
func (s *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("slack server starting", "port", port, "endpoint", "/slack/events")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	return err
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
