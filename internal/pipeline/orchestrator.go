// Package pipeline drives a consultation from uploaded audio to segments and,
// optionally, a generated document.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/vintra/internal/analysis"
	"github.com/kiranshivaraju/vintra/internal/audio"
	"github.com/kiranshivaraju/vintra/internal/diarize"
	"github.com/kiranshivaraju/vintra/internal/status"
	"github.com/kiranshivaraju/vintra/pkg/models"
	"github.com/kiranshivaraju/vintra/pkg/prompt"
)

// ErrInvalidAudio is returned for a missing or empty asset. No job is created.
var ErrInvalidAudio = errors.New("invalid audio asset")

// SecondaryBackendModel is recorded as the model of backend-produced artifacts.
const SecondaryBackendModel = "vintra-backend"

// Generator produces a document from transcript segments.
type Generator interface {
	Generate(ctx context.Context, segments []models.Segment, documentType, patientContext string) (models.Artifact, error)
}

// Recorder persists terminal consultation snapshots.
type Recorder interface {
	SaveConsultation(ctx context.Context, c *models.Consultation) error
}

// Result is the output of a successful run.
type Result struct {
	ConsultationID       string
	Segments             []models.Segment
	InitialAnalysis      *models.Artifact
	VintraAnalysis       json.RawMessage
	UsedSecondaryBackend bool
}

// Failure reports a job that reached the failed state.
type Failure struct {
	ConsultationID string
	Stage          string
	Err            error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("consultation %s failed during %s: %v", f.ConsultationID, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Config wires the orchestrator's collaborators. Analysis, Archiver and
// Recorder are optional.
type Config struct {
	Transcriber models.Transcriber
	Generator   Generator
	Analysis    analysis.Client
	Tracker     *status.Tracker
	Roles       diarize.RoleMap
	Archiver    audio.Archiver
	Recorder    Recorder
	Retry       RetryPolicy
}

// Orchestrator runs the consultation state machine. One Process call owns one
// job id for its lifetime; concurrent calls are independent.
type Orchestrator struct {
	transcriber models.Transcriber
	generator   Generator
	analysis    analysis.Client
	tracker     *status.Tracker
	roles       diarize.RoleMap
	archiver    audio.Archiver
	recorder    Recorder
	retry       RetryPolicy
	builder     prompt.Builder
	newID       func() string
	now         func() time.Time
}

// New creates an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	roles := cfg.Roles
	if roles.Roles == nil && roles.Fallback == "" {
		roles = diarize.DefaultRoles()
	}
	return &Orchestrator{
		transcriber: cfg.Transcriber,
		generator:   cfg.Generator,
		analysis:    cfg.Analysis,
		tracker:     cfg.Tracker,
		roles:       roles,
		archiver:    cfg.Archiver,
		recorder:    cfg.Recorder,
		retry:       cfg.Retry,
		newID:       uuid.NewString,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// run carries per-job state through the stages.
type run struct {
	job       *status.Job
	createdAt time.Time
	segments  []models.Segment
	artifact  *models.Artifact
	log       *slog.Logger
}

// Process transcribes asset, segments the result and, when requested,
// generates a document. The asset is released on every return path.
func (o *Orchestrator) Process(ctx context.Context, asset *audio.Asset, opts Options) (*Result, error) {
	defer asset.Release()

	if asset == nil || asset.Size <= 0 {
		return nil, ErrInvalidAudio
	}

	id := o.newID()
	r := &run{
		job:       o.tracker.Start(ctx, id),
		createdAt: o.now(),
		log:       slog.With("consultation_id", id),
	}
	r.log.Info("consultation started", "options", opts.String(), "audio_bytes", asset.Size)

	res, err := o.execute(ctx, r, asset, opts)
	if err != nil {
		stage := r.job.Current().Status
		if ferr := r.job.Fail(context.WithoutCancel(ctx), err); ferr != nil {
			r.log.Warn("could not mark consultation failed", "error", ferr)
		}
		r.log.Error("consultation failed", "stage", stage, "error", err)
		o.record(ctx, r)
		return nil, &Failure{ConsultationID: id, Stage: stage, Err: err}
	}

	r.log.Info("consultation completed",
		"segments", len(res.Segments),
		"used_secondary_backend", res.UsedSecondaryBackend,
	)
	o.record(ctx, r)
	return res, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run, asset *audio.Asset, opts Options) (*Result, error) {
	if err := r.job.Advance(ctx, models.StatusAudioProcessing); err != nil {
		return nil, err
	}

	data, err := asset.Read()
	if err != nil {
		return nil, err
	}
	o.archive(ctx, r, asset)

	words, err := call(ctx, o.retry, func(ctx context.Context) ([]models.Word, error) {
		return o.transcriber.Transcribe(ctx, models.TranscriptionRequest{
			Audio:    data,
			MIMEType: asset.MIMEType,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	if err := r.job.Advance(ctx, models.StatusTranscribing); err != nil {
		return nil, err
	}
	r.segments = diarize.FromWords(words, o.roles)
	if err := r.job.Advance(ctx, models.StatusDiarizing); err != nil {
		return nil, err
	}

	res := &Result{ConsultationID: r.job.ID, Segments: r.segments}

	if !opts.AutoProcess {
		if err := r.job.Advance(ctx, models.StatusCompleted); err != nil {
			return nil, err
		}
		return res, nil
	}

	docType := o.builder.Resolve(opts.Format)

	if opts.UseVintraAnalysis && docType == models.DocumentVintra {
		raw, err := o.secondaryAnalysis(ctx, r, opts)
		if err == nil {
			if err := o.finish(ctx, r); err != nil {
				return nil, err
			}
			res.VintraAnalysis = raw
			res.UsedSecondaryBackend = true
			r.artifact = o.secondaryArtifact(r, raw, opts.Format)
			return res, nil
		}
		r.log.Warn("secondary analysis failed, falling back to generation",
			"stage", models.StatusDiarizing,
			"error", err,
		)
	}

	art, err := call(ctx, o.retry, func(ctx context.Context) (models.Artifact, error) {
		return o.generator.Generate(ctx, r.segments, docType, opts.PatientContext)
	})
	if err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}
	cid, _ := uuid.Parse(r.job.ID)
	art.ConsultationID = &cid
	r.artifact = &art

	if err := o.finish(ctx, r); err != nil {
		return nil, err
	}
	res.InitialAnalysis = &art
	return res, nil
}

func (o *Orchestrator) secondaryAnalysis(ctx context.Context, r *run, opts Options) (json.RawMessage, error) {
	if o.analysis == nil {
		return nil, analysis.ErrNotConfigured
	}
	return call(ctx, o.retry, func(ctx context.Context) (json.RawMessage, error) {
		return o.analysis.Analyze(ctx, analysis.Request{
			Transcript:     o.builder.Transcript(r.segments),
			PatientContext: opts.PatientContext,
			SessionID:      r.job.ID,
		})
	})
}

// secondaryArtifact wraps a backend analysis so it is recorded alongside
// generated documents.
func (o *Orchestrator) secondaryArtifact(r *run, raw json.RawMessage, requested string) *models.Artifact {
	cid, _ := uuid.Parse(r.job.ID)
	return &models.Artifact{
		ID:             uuid.New(),
		ConsultationID: &cid,
		Type:           models.DocumentVintra,
		Content:        string(raw),
		Metadata: models.ArtifactMetadata{
			Model:         SecondaryBackendModel,
			Type:          models.DocumentVintra,
			RequestedType: requested,
			Timestamp:     o.now(),
			InputSize:     utf8.RuneCountInString(o.builder.Transcript(r.segments)),
		},
	}
}

// finish moves a job that produced analysis output to completed.
func (o *Orchestrator) finish(ctx context.Context, r *run) error {
	if err := r.job.Advance(ctx, models.StatusAnalyzing); err != nil {
		return err
	}
	return r.job.Advance(ctx, models.StatusCompleted)
}

// archive stores a durable copy of the audio when an archiver is configured.
// Failures are logged and do not affect the job.
func (o *Orchestrator) archive(ctx context.Context, r *run, asset *audio.Asset) {
	if o.archiver == nil {
		return
	}
	uri, err := call(ctx, o.retry, func(ctx context.Context) (string, error) {
		return o.archiver.Archive(ctx, r.job.ID, asset)
	})
	if err != nil {
		r.log.Warn("audio archive failed", "stage", models.StatusAudioProcessing, "error", err)
		return
	}
	r.log.Info("audio archived", "uri", uri)
}

// record hands the terminal snapshot to the recorder. Failures are logged.
func (o *Orchestrator) record(ctx context.Context, r *run) {
	if o.recorder == nil {
		return
	}

	id, err := uuid.Parse(r.job.ID)
	if err != nil {
		r.log.Warn("consultation not recorded", "error", err)
		return
	}

	cur := r.job.Current()
	now := o.now()
	c := &models.Consultation{
		ID:          id,
		Status:      cur.Status,
		Progress:    cur.Progress,
		Segments:    r.segments,
		CreatedAt:   r.createdAt,
		UpdatedAt:   now,
		CompletedAt: &now,
	}
	if cur.Error != "" {
		msg := cur.Error
		c.ErrorMessage = &msg
	}
	if c.Segments == nil {
		c.Segments = []models.Segment{}
	}
	if r.artifact != nil {
		c.Artifacts = []models.Artifact{*r.artifact}
	}

	if err := o.recorder.SaveConsultation(context.WithoutCancel(ctx), c); err != nil {
		r.log.Warn("consultation not recorded", "error", err)
	}
}
