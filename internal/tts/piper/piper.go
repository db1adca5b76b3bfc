// Package piper implements the TTS Synthesizer using a Piper Wyoming protocol server.
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nadzzz/habla/internal/config"
	"github.com/nadzzz/habla/internal/tts"
)

// regionalVoices maps lower-case language tags to Piper voice model names.
// Plain "es" uses the Mexican voice to match the tutor persona.
var regionalVoices = map[string]string{
	"es":    "es_MX-claude-high",
	"es-mx": "es_MX-claude-high",
	"es-ar": "es_AR-daniela-high",
	"es-es": "es_ES-davefx-medium",
}

// maxPCMBytes bounds a single synthesis (about six minutes of 22 kHz mono).
const maxPCMBytes = 16 << 20

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint string // host:port of the Piper Wyoming server
	voice    string // forced voice, empty for regional selection
}

// New creates a new Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	endpoint := strings.TrimPrefix(cfg.Endpoint, "tcp://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return &Synthesizer{endpoint: endpoint, voice: cfg.Voice}
}

// voiceFor picks the voice for a request: explicit override, configured
// voice, the regional voice, then the default Spanish voice.
func (s *Synthesizer) voiceFor(opts tts.SynthesizeOpts) string {
	if opts.Voice != "" {
		return opts.Voice
	}
	if s.voice != "" {
		return s.voice
	}
	if v, ok := regionalVoices[strings.ToLower(opts.Language)]; ok {
		return v
	}
	return regionalVoices["es"]
}

// Synthesize sends text to the Piper server and returns synthesized audio as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}
	if s.endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured")
	}

	voice := s.voiceFor(opts)
	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "endpoint", s.endpoint)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	err = writeEvent(conn, event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	return collectAudio(bufio.NewReader(conn))
}

// collectAudio reads audio-start, audio-chunk* and audio-stop events and
// returns the concatenated PCM wrapped in WAV.
func collectAudio(r *bufio.Reader) (*tts.SynthesizeResult, error) {
	format := audioFormat{Rate: 22050, Width: 2, Channels: 1}
	var pcm bytes.Buffer

	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if err := json.Unmarshal(evt.raw, &struct {
				Data *audioFormat `json:"data"`
			}{&format}); err != nil {
				return nil, fmt.Errorf("parsing audio-start: %w", err)
			}

		case "audio-chunk":
			if pcm.Len()+len(payload) > maxPCMBytes {
				return nil, fmt.Errorf("piper audio exceeds %d bytes", maxPCMBytes)
			}
			pcm.Write(payload)

		case "audio-stop":
			slog.Debug("piper audio-stop", "pcm_bytes", pcm.Len(), "rate", format.Rate)
			return &tts.SynthesizeResult{
				Audio:       pcmToWAV(pcm.Bytes(), format),
				ContentType: "audio/wav",
				SampleRate:  format.Rate,
				Channels:    format.Channels,
			}, nil

		case "error":
			msg, _ := evt.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper error: %s", msg)
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }

// --- Wyoming protocol helpers ---

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`

	raw []byte
}

type audioFormat struct {
	Rate     int `json:"rate"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

// writeEvent sends a Wyoming event over the connection.
func writeEvent(w io.Writer, evt event, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(body), len(payload))
	buf.Write(body)
	buf.WriteByte('\n')
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

// readEvent reads one Wyoming event and its payload.
func readEvent(r *bufio.Reader) (*event, []byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", header)
	}
	jsonLen, err := strconv.Atoi(fields[0])
	if err != nil || jsonLen < 0 {
		return nil, nil, fmt.Errorf("invalid json length %q", fields[0])
	}
	payloadLen, err := strconv.Atoi(fields[1])
	if err != nil || payloadLen < 0 || payloadLen > maxPCMBytes {
		return nil, nil, fmt.Errorf("invalid payload length %q", fields[1])
	}

	// JSON is followed by a newline.
	body := make([]byte, jsonLen+1)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}
	body = body[:jsonLen]

	evt := &event{raw: body}
	if err := json.Unmarshal(body, evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	return evt, payload, nil
}

// pcmToWAV wraps raw little-endian PCM in a 44-byte RIFF/WAVE header.
func pcmToWAV(pcm []byte, f audioFormat) []byte {
	blockAlign := f.Channels * f.Width
	header := struct {
		RIFF          [4]byte
		ChunkSize     uint32
		WAVE          [4]byte
		FmtID         [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		DataID        [4]byte
		DataSize      uint32
	}{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		FmtID:         [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      uint16(f.Channels),
		SampleRate:    uint32(f.Rate),
		ByteRate:      uint32(f.Rate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(f.Width * 8),
		DataID:        [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(len(pcm)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	_ = binary.Write(buf, binary.LittleEndian, header)
	buf.Write(pcm)
	return buf.Bytes()
}
