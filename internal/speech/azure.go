package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Synthesizer turns text into WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Voice() string
}

var _ Synthesizer = (*AzureClient)(nil)

// DefaultRate speeds announcements up a little; a busy table only needs
// the gist.
const DefaultRate = "+10%"

// ErrNotWAV is returned when the service answers with something the
// sound player cannot play.
var ErrNotWAV = errors.New("tts: response is not RIFF audio")

// StatusError is a non-200 answer from the synthesis endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("azure tts error %d: %s", e.Code, e.Body)
}

// Retryable reports whether the same request may succeed a moment later.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// AzureOption configures the Azure TTS client.
type AzureOption func(*AzureClient)

// WithVoice sets the neural voice.
func WithVoice(voice string) AzureOption {
	return func(c *AzureClient) {
		c.voice = voice
	}
}

// WithRate sets the prosody rate, e.g. "+10%" or "slow". Empty keeps the
// voice's own pace.
func WithRate(rate string) AzureOption {
	return func(c *AzureClient) {
		c.rate = rate
	}
}

// WithEndpoint overrides the regional synthesis URL.
func WithEndpoint(url string) AzureOption {
	return func(c *AzureClient) {
		c.endpoint = url
	}
}

// WithHTTPTimeout sets the timeout of one synthesis request.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(c *AzureClient) {
		c.httpClient.Timeout = d
	}
}

// WithRetryDelay sets the pause before the single retry of a throttled
// or failed request.
func WithRetryDelay(d time.Duration) AzureOption {
	return func(c *AzureClient) {
		c.retryDelay = d
	}
}

// AzureClient synthesizes kitchen announcements with Azure Cognitive
// Services. Responses are always RIFF WAV at the player's sample rate.
type AzureClient struct {
	key        string
	endpoint   string
	voice      string
	rate       string
	retryDelay time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

// NewAzureClient creates a client for the given subscription key and
// region.
func NewAzureClient(key, region string, log *logger.Logger, opts ...AzureOption) *AzureClient {
	c := &AzureClient{
		key:        key,
		endpoint:   "https://" + region + ".tts.speech.microsoft.com/cognitiveservices/v1",
		voice:      DefaultVoice,
		rate:       DefaultRate,
		retryDelay: 300 * time.Millisecond,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Voice returns the configured voice name. The audio cache keys on it.
func (c *AzureClient) Voice() string { return c.voice }

// Synthesize returns WAV bytes for one announcement. A throttled or
// failed request is retried once.
func (c *AzureClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	doc, err := c.document(text)
	if err != nil {
		return nil, err
	}

	audio, err := c.post(ctx, doc)
	var se *StatusError
	if errors.As(err, &se) && se.Retryable() {
		c.log.Warn("azure tts: %d, retrying once", se.Code)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
		audio, err = c.post(ctx, doc)
	}
	if err != nil {
		return nil, err
	}
	c.log.Debug("azure tts: %q -> %d bytes", text, len(audio))
	return audio, nil
}

func (c *AzureClient) post(ctx context.Context, doc []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", DefaultAudioFormat)
	req.Header.Set("User-Agent", "Hotpot/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if !bytes.HasPrefix(audio, []byte("RIFF")) {
		return nil, ErrNotWAV
	}
	return audio, nil
}

type ssmlSpeak struct {
	XMLName xml.Name  `xml:"speak"`
	Version string    `xml:"version,attr"`
	Lang    string    `xml:"xml:lang,attr"`
	Voice   ssmlVoice `xml:"voice"`
}

type ssmlVoice struct {
	Name    string      `xml:"name,attr"`
	Prosody ssmlProsody `xml:"prosody"`
}

type ssmlProsody struct {
	Rate string `xml:"rate,attr,omitempty"`
	Text string `xml:",chardata"`
}

// document builds the SSML body. Ingredient names are user input; the
// encoder escapes them.
func (c *AzureClient) document(text string) ([]byte, error) {
	doc := ssmlSpeak{
		Version: "1.0",
		Lang:    "en-US",
		Voice: ssmlVoice{
			Name:    c.voice,
			Prosody: ssmlProsody{Rate: c.rate, Text: text},
		},
	}
	b, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("building ssml: %w", err)
	}
	return b, nil
}
