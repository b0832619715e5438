package recognizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ayoola1o/lara/internal/transcript"
	"github.com/Ayoola1o/lara/internal/turn"
)

const closeStreamMessage = `{"type":"CloseStream"}`

// DeepgramConfig controls Deepgram live transcription sessions.
type DeepgramConfig struct {
	URL          string
	APIKey       string
	LanguageCode string
	Model        string
	Punctuate    bool
	Phrases      []Phrase
	DialTimeout  time.Duration
	DrainTimeout time.Duration
	Dump         io.Writer
}

// Deepgram streams raw linear16 audio over a websocket.
type Deepgram struct {
	cfg    DeepgramConfig
	logger *slog.Logger
	dumpMu sync.Mutex
}

// NewDeepgram returns a recognizer that opens one websocket per session.
func NewDeepgram(cfg DeepgramConfig, logger *slog.Logger) *Deepgram {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	cfg.LanguageCode = languageOrDefault(cfg.LanguageCode)
	return &Deepgram{cfg: cfg, logger: logger}
}

// Start dials the listen endpoint and begins streaming.
func (d *Deepgram) Start(ctx context.Context, audio <-chan []byte, h turn.RecognitionHandler) (turn.Recognition, error) {
	endpoint, err := d.listenURL()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+d.cfg.APIKey)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.cfg.DialTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial deepgram: handshake status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial deepgram: %w", err)
	}

	sessCtx, cancel := context.WithCancel(ctx)
	st := &deepgramStream{ctx: sessCtx, conn: conn, dump: d.writeDump}
	// Unblock ReadMessage when the session is canceled.
	stop := context.AfterFunc(sessCtx, func() { _ = conn.Close() })
	st.stopWatch = stop

	sess := startSession("deepgram", d.logger, st, cancel, audio, h)
	sess.drain = d.cfg.DrainTimeout
	return sess, nil
}

func (d *Deepgram) listenURL() (string, error) {
	u, err := url.Parse(strings.TrimSpace(d.cfg.URL))
	if err != nil {
		return "", fmt.Errorf("parse deepgram url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("deepgram url must use ws or wss, got %q", u.Scheme)
	}

	q := u.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRateHertz))
	q.Set("channels", "1")
	q.Set("interim_results", "true")
	q.Set("language", d.cfg.LanguageCode)
	q.Set("punctuate", strconv.FormatBool(d.cfg.Punctuate))
	if model := strings.TrimSpace(d.cfg.Model); model != "" {
		q.Set("model", model)
	}
	for _, phrase := range d.cfg.Phrases {
		text := strings.TrimSpace(phrase.Text)
		if text == "" {
			continue
		}
		q.Add("keywords", fmt.Sprintf("%s:%s", text, strconv.FormatFloat(float64(phrase.Boost), 'f', -1, 32)))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *Deepgram) writeDump(raw []byte) {
	if d.cfg.Dump == nil {
		return
	}
	d.dumpMu.Lock()
	defer d.dumpMu.Unlock()
	_, _ = d.cfg.Dump.Write(append(append([]byte(nil), raw...), '\n'))
}

// deepgramMessage covers the fields of the live transcription messages used here.
type deepgramMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

type deepgramStream struct {
	ctx       context.Context
	conn      *websocket.Conn
	dump      func([]byte)
	stopWatch func() bool
	batch     batcher
}

func (s *deepgramStream) sendAudio(chunk []byte) error {
	return s.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

func (s *deepgramStream) closeSend() error {
	return s.conn.WriteMessage(websocket.TextMessage, []byte(closeStreamMessage))
}

func (s *deepgramStream) recv() ([]transcript.Segment, error) {
	for {
		kind, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil, io.EOF
			}
			if s.ctx.Err() != nil {
				return nil, s.ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Text != "" {
				return nil, fmt.Errorf("deepgram closed stream: %s", closeErr.Text)
			}
			return nil, err
		}
		if kind != websocket.TextMessage {
			continue
		}
		s.dump(raw)

		var msg deepgramMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode deepgram message: %w", err)
		}

		switch msg.Type {
		case "Results":
			if len(msg.Channel.Alternatives) == 0 {
				continue
			}
			var finals, interims []string
			if msg.IsFinal {
				finals = []string{msg.Channel.Alternatives[0].Transcript}
			} else {
				interims = []string{msg.Channel.Alternatives[0].Transcript}
			}
			if batch := s.batch.build(finals, interims); batch != nil {
				return batch, nil
			}
			// An empty hypothesis still clears the interim text.
			return []transcript.Segment{{Index: s.batch.next}}, nil
		case "Error":
			reason := strings.TrimSpace(msg.Description)
			if reason == "" {
				reason = strings.TrimSpace(msg.Message)
			}
			return nil, fmt.Errorf("deepgram: %s", reason)
		default:
			// Metadata, SpeechStarted, UtteranceEnd.
			continue
		}
	}
}

func (s *deepgramStream) close() error {
	if !s.stopWatch() {
		// Already closed by cancellation.
		return nil
	}
	return s.conn.Close()
}
