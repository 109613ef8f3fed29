// Package schedule implements C8: the batch scheduler that drives
// crop->reconstruct->validate->write across many buildings with bounded
// parallelism, backpressure and a cancellation signal (spec.md §4.8),
// following the teacher's pond-based worker-pool idiom (cmd/main.go's
// convert_gsf_list).
package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond"

	"github.com/sixy6e/lod-recon"
	"github.com/sixy6e/lod-recon/config"
	"github.com/sixy6e/lod-recon/crop"
	"github.com/sixy6e/lod-recon/elevation"
	"github.com/sixy6e/lod-recon/iodefs"
	"github.com/sixy6e/lod-recon/reconstruct"
	"github.com/sixy6e/lod-recon/source"
	"github.com/sixy6e/lod-recon/validate"
)

// Kind classifies a BuildingOutcome, spec.md §7's error-kind vocabulary.
type Kind int

const (
	KindOK Kind = iota
	KindNoData
	KindReconstructionFallback
	KindTimeout
	KindCancelled
	KindInputIOError
	KindValidationFailed
)

// BuildingJob is one unit of work entering the pipeline.
type BuildingJob struct {
	Footprint     source.Footprint
	TargetDate    int
	TargetDateSet bool
}

// BuildingOutcome is one unit of work leaving it.
type BuildingOutcome struct {
	FootprintID string
	Mesh        lodrecon.BuildingMesh
	Report      validate.Report
	Kind        Kind
	Err         error
}

// bytesPerPoint is the advisory per-point memory estimate the memory cap
// counter uses; it need not be exact, only monotonic with crop size.
const bytesPerPoint = 64

// ElevationFactory builds the elevation provider for one crop; a
// constant-elevation batch and an interpolated-surface batch both implement
// this the same way, just backed by different ground samples.
type ElevationFactory func(*crop.Crop) elevation.Provider

// Scheduler drives the four-stage pipeline described at spec.md §4.8.
type Scheduler struct {
	cfg        *config.Config
	cropper    *crop.Cropper
	elevFactory ElevationFactory
	meshWriter iodefs.MeshWriter

	memUsed int64 // atomic; advisory outstanding point-cloud bytes
	memCap  int64
}

func New(cfg *config.Config, cropper *crop.Cropper, elevFactory ElevationFactory, meshWriter iodefs.MeshWriter) *Scheduler {
	return &Scheduler{cfg: cfg, cropper: cropper, elevFactory: elevFactory, meshWriter: meshWriter, memCap: cfg.Scheduler.MemoryCapBytes}
}

// cropOutput threads a job through crop so later stages keep the footprint
// identifier and job-level cancellation context without re-deriving it.
type cropOutput struct {
	job   BuildingJob
	crop  *crop.Crop
	bytes int64
	err   error
}

type reconOutput struct {
	job    BuildingJob
	crop   *crop.Crop
	bytes  int64
	mesh   lodrecon.BuildingMesh
	kind   Kind
	err    error
}

type validateOutput struct {
	job    BuildingJob
	bytes  int64
	mesh   lodrecon.BuildingMesh
	report validate.Report
	kind   Kind
	err    error
}

// Run streams jobs through crop -> reconstruct -> validate -> write and
// returns one BuildingOutcome per job, in completion order (spec.md §4.8's
// "no global ordering across buildings is preserved").
func (s *Scheduler) Run(ctx context.Context, jobs []BuildingJob) []BuildingOutcome {
	sc := s.cfg.Scheduler

	queueCap := func(consumerWorkers int) int {
		if sc.QueueCapacity > 0 {
			return sc.QueueCapacity
		}
		return 2 * consumerWorkers
	}

	cropIn := make(chan BuildingJob, queueCap(sc.CropWorkers))
	cropOut := make(chan cropOutput, queueCap(sc.ReconstructWorkers))
	reconOut := make(chan reconOutput, queueCap(sc.ValidateWorkers))
	validateOut := make(chan validateOutput, queueCap(sc.WriteWorkers))

	results := make([]BuildingOutcome, 0, len(jobs))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(len(jobs))

	collect := func(o BuildingOutcome) {
		resultsMu.Lock()
		results = append(results, o)
		resultsMu.Unlock()
		wg.Done()
	}

	cropPool := pond.New(sc.CropWorkers, 0, pond.MinWorkers(sc.CropWorkers), pond.Context(ctx))
	reconPool := pond.New(sc.ReconstructWorkers, 0, pond.MinWorkers(sc.ReconstructWorkers), pond.Context(ctx))
	validatePool := pond.New(sc.ValidateWorkers, 0, pond.MinWorkers(sc.ValidateWorkers), pond.Context(ctx))
	writePool := pond.New(sc.WriteWorkers, 0, pond.MinWorkers(sc.WriteWorkers), pond.Context(ctx))

	var stageWG sync.WaitGroup
	stageWG.Add(4)

	go func() {
		defer stageWG.Done()
		defer close(cropOut)
		for job := range cropIn {
			if ctx.Err() != nil {
				collect(cancelledOutcome(job))
				continue
			}
			job := job
			cropPool.Submit(func() {
				s.waitForMemory(ctx)
				out := s.runCrop(ctx, job)
				select {
				case cropOut <- out:
				case <-ctx.Done():
					collect(cancelledOutcome(job))
				}
			})
		}
		cropPool.StopAndWait()
	}()

	go func() {
		defer stageWG.Done()
		defer close(reconOut)
		for in := range cropOut {
			if in.err != nil {
				collect(BuildingOutcome{FootprintID: in.job.Footprint.ID, Kind: KindInputIOError, Err: in.err})
				continue
			}
			if in.crop.NoData {
				collect(BuildingOutcome{FootprintID: in.job.Footprint.ID, Kind: KindNoData})
				continue
			}
			in := in
			reconPool.Submit(func() {
				out := s.runReconstruct(ctx, in)
				select {
				case reconOut <- out:
				case <-ctx.Done():
					atomic.AddInt64(&s.memUsed, -in.bytes)
					collect(cancelledOutcome(in.job))
				}
			})
		}
		reconPool.StopAndWait()
	}()

	go func() {
		defer stageWG.Done()
		defer close(validateOut)
		for in := range reconOut {
			atomic.AddInt64(&s.memUsed, -in.bytes)
			if in.err != nil {
				collect(BuildingOutcome{FootprintID: in.job.Footprint.ID, Kind: in.kind, Err: in.err})
				continue
			}
			in := in
			validatePool.Submit(func() {
				out := s.runValidate(in)
				select {
				case validateOut <- out:
				case <-ctx.Done():
					collect(cancelledOutcome(in.job))
				}
			})
		}
		validatePool.StopAndWait()
	}()

	go func() {
		defer stageWG.Done()
		for in := range validateOut {
			in := in
			writePool.Submit(func() {
				out := s.runWrite(ctx, in)
				collect(out)
			})
		}
		writePool.StopAndWait()
	}()

	go func() {
		for _, job := range jobs {
			select {
			case cropIn <- job:
			case <-ctx.Done():
				collect(cancelledOutcome(job))
			}
		}
		close(cropIn)
	}()

	wg.Wait()
	stageWG.Wait()
	return results
}

func cancelledOutcome(job BuildingJob) BuildingOutcome {
	return BuildingOutcome{FootprintID: job.Footprint.ID, Kind: KindCancelled, Err: context.Canceled}
}

func (s *Scheduler) waitForMemory(ctx context.Context) {
	for atomic.LoadInt64(&s.memUsed) > s.memCap {
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (s *Scheduler) runCrop(ctx context.Context, job BuildingJob) cropOutput {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.Scheduler.PerBuildingTimeout)
	defer cancel()

	c, err := s.cropper.Build(cctx, job.Footprint, job.TargetDate, job.TargetDateSet)
	if err != nil {
		return cropOutput{job: job, err: err}
	}
	b := int64(c.Points.Len()) * bytesPerPoint
	atomic.AddInt64(&s.memUsed, b)
	return cropOutput{job: job, crop: c, bytes: b}
}

func (s *Scheduler) runReconstruct(ctx context.Context, in cropOutput) reconOutput {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.Scheduler.PerBuildingTimeout)
	defer cancel()

	elev := s.elevFactory(in.crop)
	opts := reconstruct.Options{
		Validation:            s.cfg.Validation,
		LowLoDNoDataFraction:  s.cfg.Crop.LowLoDNoDataFraction,
		MaxPointDensityLowLoD: s.cfg.Crop.MaxPointDensityLowLoD,
		BoundaryPenalty:       1.0,
		MinPolygonArea:        1.0,
	}
	mesh, err := reconstruct.Reconstruct(cctx, in.crop, elev, opts)
	if err != nil {
		kind := KindReconstructionFallback
		if cctx.Err() != nil {
			kind = timeoutOrCancelKind(ctx, cctx)
		}
		return reconOutput{job: in.job, crop: in.crop, bytes: in.bytes, kind: kind, err: err}
	}
	kind := KindOK
	if mesh.FallbackHow != "" {
		kind = KindReconstructionFallback
	}
	return reconOutput{job: in.job, crop: in.crop, bytes: in.bytes, mesh: mesh, kind: kind}
}

func timeoutOrCancelKind(parent, child context.Context) Kind {
	if parent.Err() != nil {
		return KindCancelled
	}
	return KindTimeout
}

func (s *Scheduler) runValidate(in reconOutput) validateOutput {
	report := validate.Validate(in.mesh.Mesh, s.cfg.Validation)
	kind := in.kind
	if !report.Valid() && kind == KindOK {
		kind = KindValidationFailed
	}
	return validateOutput{job: in.job, bytes: in.bytes, mesh: in.mesh, report: report, kind: kind}
}

func (s *Scheduler) runWrite(ctx context.Context, in validateOutput) BuildingOutcome {
	if s.meshWriter != nil {
		attrs := map[string]any{
			"path_taken":   in.mesh.PathTaken.String(),
			"fallback_how": in.mesh.FallbackHow,
			"errors":       in.report.Errors,
		}
		_ = s.meshWriter.WriteMesh(ctx, in.job.Footprint.ID, in.mesh, attrs)
	}
	return BuildingOutcome{FootprintID: in.job.Footprint.ID, Mesh: in.mesh, Report: in.report, Kind: in.kind}
}
