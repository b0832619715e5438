package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/Ayoola1o/lara/internal/transcript"
	"github.com/Ayoola1o/lara/internal/turn"
)

// GoogleConfig controls Google Cloud Speech-to-Text streaming sessions.
type GoogleConfig struct {
	Endpoint string
	// Insecure dials Endpoint in plaintext without credentials (local emulators).
	Insecure             bool
	APIKey               string
	LanguageCode         string
	Model                string
	AutomaticPunctuation bool
	Phrases              []Phrase
	DialTimeout          time.Duration
	// DrainTimeout bounds how long a stopped session may flush before it is cut off.
	DrainTimeout time.Duration
	Dump         io.Writer
}

// Google streams LINEAR16 audio over the StreamingRecognize RPC.
type Google struct {
	cfg    GoogleConfig
	logger *slog.Logger
	dumpMu sync.Mutex
}

// NewGoogle returns a recognizer that dials one RPC per session.
func NewGoogle(cfg GoogleConfig, logger *slog.Logger) *Google {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	cfg.LanguageCode = languageOrDefault(cfg.LanguageCode)
	return &Google{cfg: cfg, logger: logger}
}

// Start opens a streaming session and sends the recognition config.
func (g *Google) Start(ctx context.Context, audio <-chan []byte, h turn.RecognitionHandler) (turn.Recognition, error) {
	client, conn, err := g.dial(ctx)
	if err != nil {
		return nil, err
	}
	closeAll := func() {
		_ = client.Close()
		if conn != nil {
			_ = conn.Close()
		}
	}

	sessCtx, cancel := context.WithCancel(ctx)
	rpc, err := client.StreamingRecognize(sessCtx)
	if err != nil {
		cancel()
		closeAll()
		return nil, fmt.Errorf("open streaming recognizer: %w", err)
	}
	if err := rpc.Send(g.configRequest()); err != nil {
		cancel()
		closeAll()
		return nil, fmt.Errorf("send initial streaming config: %w", err)
	}

	st := &googleStream{rpc: rpc, closeFn: closeAll, dump: g.writeDump}
	sess := startSession("google", g.logger, st, cancel, audio, h)
	sess.drain = g.cfg.DrainTimeout
	return sess, nil
}

// dial connects the speech client. Insecure endpoints are dialed directly and
// must become ready within DialTimeout.
func (g *Google) dial(ctx context.Context) (*speech.Client, *grpc.ClientConn, error) {
	endpoint := strings.TrimSpace(g.cfg.Endpoint)
	if endpoint == "" {
		return nil, nil, errors.New("google speech endpoint is empty")
	}

	if !g.cfg.Insecure {
		opts := []option.ClientOption{option.WithEndpoint(endpoint)}
		if g.cfg.APIKey != "" {
			opts = append(opts, option.WithAPIKey(g.cfg.APIKey))
		}
		client, err := speech.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create google speech client: %w", err)
		}
		return client, nil, nil
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial speech grpc %q: %w", endpoint, err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, g.cfg.DialTimeout)
	defer cancel()
	conn.Connect()
	if err := waitForReady(readyCtx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("wait for speech grpc readiness: %w", err)
	}

	client, err := speech.NewClient(ctx, option.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create google speech client: %w", err)
	}
	return client, conn, nil
}

func (g *Google) configRequest() *speechpb.StreamingRecognizeRequest {
	rc := &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz:            sampleRateHertz,
		AudioChannelCount:          1,
		LanguageCode:               g.cfg.LanguageCode,
		EnableAutomaticPunctuation: g.cfg.AutomaticPunctuation,
		Model:                      strings.TrimSpace(g.cfg.Model),
	}
	for _, phrase := range g.cfg.Phrases {
		text := strings.TrimSpace(phrase.Text)
		if text == "" {
			continue
		}
		rc.SpeechContexts = append(rc.SpeechContexts, &speechpb.SpeechContext{
			Phrases: []string{text},
			Boost:   phrase.Boost,
		})
	}

	return &speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:         rc,
				InterimResults: true,
			},
		},
	}
}

func (g *Google) writeDump(resp *speechpb.StreamingRecognizeResponse) {
	if g.cfg.Dump == nil {
		return
	}
	b, err := protojson.Marshal(resp)
	if err != nil {
		return
	}
	g.dumpMu.Lock()
	defer g.dumpMu.Unlock()
	_, _ = g.cfg.Dump.Write(append(b, '\n'))
}

type googleStream struct {
	rpc     speechpb.Speech_StreamingRecognizeClient
	closeFn func()
	dump    func(*speechpb.StreamingRecognizeResponse)
	batch   batcher
}

func (s *googleStream) sendAudio(chunk []byte) error {
	return s.rpc.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: chunk},
	})
}

func (s *googleStream) closeSend() error {
	return s.rpc.CloseSend()
}

func (s *googleStream) recv() ([]transcript.Segment, error) {
	resp, err := s.rpc.Recv()
	if err != nil {
		if status.Code(err) == codes.Canceled {
			return nil, context.Canceled
		}
		return nil, err
	}
	s.dump(resp)

	if st := resp.GetError(); st != nil && st.GetCode() != int32(codes.OK) {
		return nil, fmt.Errorf("google speech: %s", st.GetMessage())
	}

	var finals, interims []string
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		if result.GetIsFinal() {
			finals = append(finals, alternatives[0].GetTranscript())
			continue
		}
		interims = append(interims, alternatives[0].GetTranscript())
	}
	return s.batch.build(finals, interims), nil
}

func (s *googleStream) close() error {
	s.closeFn()
	return nil
}
