// Package google implements models.Transcriber on Google Cloud Speech-to-Text.
package google

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/kiranshivaraju/vintra/internal/config"
	"github.com/kiranshivaraju/vintra/pkg/models"
	"google.golang.org/api/option"
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// Transcriber performs synchronous recognition with speaker diarization.
// Encoding, sample rate, language, model and speaker count are passed through
// from config verbatim.
type Transcriber struct {
	client    *speech.Client
	recognize recognizeFunc
	config    *speechpb.RecognitionConfig
}

// NewTranscriber validates cfg and opens a Speech client.
func NewTranscriber(ctx context.Context, cfg config.SpeechConfig) (*Transcriber, error) {
	rc, err := recognitionConfig(cfg)
	if err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}

	t := &Transcriber{client: c, config: rc}
	t.recognize = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return c.Recognize(ctx, req)
	}
	return t, nil
}

func recognitionConfig(cfg config.SpeechConfig) (*speechpb.RecognitionConfig, error) {
	enc, ok := speechpb.RecognitionConfig_AudioEncoding_value[strings.ToUpper(cfg.Encoding)]
	if !ok {
		return nil, fmt.Errorf("unsupported speech encoding %q", cfg.Encoding)
	}

	speakers := int32(cfg.SpeakerCount)
	return &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_AudioEncoding(enc),
		SampleRateHertz:            int32(cfg.SampleRateHertz),
		LanguageCode:               cfg.Language,
		Model:                      cfg.Model,
		EnableAutomaticPunctuation: true,
		EnableWordTimeOffsets:      true,
		DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          speakers,
			MaxSpeakerCount:          speakers,
		},
	}, nil
}

func (t *Transcriber) Name() string { return "google" }

func (t *Transcriber) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}

// Transcribe returns the diarized words of the final result. With diarization
// enabled the last result carries every word with its speaker tag.
func (t *Transcriber) Transcribe(ctx context.Context, req models.TranscriptionRequest) ([]models.Word, error) {
	resp, err := t.recognize(ctx, &speechpb.RecognizeRequest{
		Config: t.config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: req.Audio},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}
	return wordsFromResponse(resp), nil
}

func wordsFromResponse(resp *speechpb.RecognizeResponse) []models.Word {
	words := []models.Word{}
	if resp == nil || len(resp.Results) == 0 {
		return words
	}

	last := resp.Results[len(resp.Results)-1]
	if len(last.Alternatives) == 0 {
		return words
	}

	for _, w := range last.Alternatives[0].Words {
		word := models.Word{
			Text:       w.Word,
			SpeakerTag: int(w.SpeakerTag),
		}
		if w.StartTime != nil && w.EndTime != nil {
			word.Start = w.StartTime.AsDuration().Seconds()
			word.End = w.EndTime.AsDuration().Seconds()
			word.Timed = true
		}
		words = append(words, word)
	}
	return words
}

var _ models.Transcriber = (*Transcriber)(nil)
