// Package export runs configured export jobs and writes the resulting resource files.
package export

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/gwexport/internal/config"
	"github.com/Faultbox/gwexport/internal/logger"
	"github.com/Faultbox/gwexport/internal/scene"
	"github.com/Faultbox/gwexport/pkg/encoding"
	"github.com/Faultbox/gwexport/pkg/formats"
)

var (
	// ErrMissingInput means a source file, node or document section was not found.
	ErrMissingInput = errors.New("missing input")
	// ErrIOFailure means a resource file could not be written.
	ErrIOFailure = errors.New("cannot write resource")
)

// Summary describes a finished batch.
type Summary struct {
	RunID   string
	Written []string // file names inside the output directory, in job order
	Skipped int
	Catalog string // catalog path, empty when nothing was written
	Err     error  // per-resource failures, combined
}

// Runner executes export jobs against one configuration.
type Runner struct {
	cfg *config.Config
	enc encoding.Encoder
	log *zap.Logger

	buildModel func(m *scene.Model, opts ...formats.Option) ([]byte, error)
}

// NewRunner prepares a runner. A nil log uses the global logger.
func NewRunner(cfg *config.Config, log *zap.Logger) (*Runner, error) {
	enc, err := encoding.Lookup(cfg.Export.Encoding)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Log
	}
	return &Runner{cfg: cfg, enc: enc, log: log, buildModel: formats.BuildModel}, nil
}

// Run exports every configured job in order and writes the catalog last.
// Missing inputs, empty geometry and write failures skip the resource; an InvariantError
// or a cancelled context stops the batch without writing the catalog.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString()}
	log := logger.Run(r.log, sum.RunID)

	if err := os.MkdirAll(r.cfg.Export.OutDir, 0755); err != nil {
		return sum, errors.Wrapf(ErrIOFailure, "creating %s: %v", r.cfg.Export.OutDir, err)
	}

	cat := formats.NewCatalog(formats.WithEncoder(r.enc))
	log.Info("export started", zap.Int("jobs", len(r.cfg.Jobs)), zap.String("out", r.cfg.Export.OutDir))

	for _, job := range r.cfg.Jobs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		jl := logger.Resource(log, job.Kind, job.Input)
		file, kind, err := r.export(job, jl)

		var inv *formats.InvariantError
		switch {
		case err == nil:
			cat.Add(file, kind)
			sum.Written = append(sum.Written, file)
			jl.Debug("resource written", zap.String("file", file))
		case errors.As(err, &inv):
			jl.Error("export aborted", zap.Error(err))
			return sum, err
		case errors.Is(err, formats.ErrEmptyGeometry):
			jl.Info("no geometry, skipped")
			sum.Skipped++
		case errors.Is(err, ErrMissingInput):
			jl.Warn("input missing, skipped", zap.Error(err))
			sum.Skipped++
			sum.Err = multierr.Append(sum.Err, err)
		default:
			jl.Error("export failed", zap.Error(err))
			sum.Skipped++
			sum.Err = multierr.Append(sum.Err, err)
		}
	}

	if cat.Len() > 0 {
		path := filepath.Join(r.cfg.Export.OutDir, r.cfg.Export.Catalog)
		if err := cat.Save(path); err != nil {
			err = errors.Wrapf(ErrIOFailure, "%s: %v", path, err)
			log.Error("catalog not written", zap.Error(err))
			sum.Err = multierr.Append(sum.Err, err)
		} else {
			sum.Catalog = path
		}
	}

	log.Info("export finished",
		zap.Int("written", len(sum.Written)),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", len(multierr.Errors(sum.Err))))
	return sum, nil
}

// Export runs a single job outside a batch and returns the written file path.
func (r *Runner) Export(job config.Job) (string, error) {
	if err := os.MkdirAll(r.cfg.Export.OutDir, 0755); err != nil {
		return "", errors.Wrapf(ErrIOFailure, "creating %s: %v", r.cfg.Export.OutDir, err)
	}
	file, _, err := r.export(job, logger.Resource(r.log, job.Kind, job.Input))
	if err != nil {
		return "", err
	}
	return filepath.Join(r.cfg.Export.OutDir, file), nil
}

// export builds one resource and writes it. It returns the file name relative to the output directory.
func (r *Runner) export(job config.Job, log *zap.Logger) (string, formats.Kind, error) {
	opts := scene.Options{SkeletonRoot: r.cfg.Export.SkeletonRoot, Node: job.Node}
	doc, err := scene.Load(job.Input, opts)
	if err != nil {
		return "", 0, classify(err, job.Input)
	}

	var (
		data []byte
		ext  string
		kind formats.Kind
	)
	switch job.Kind {
	case config.JobModel:
		if doc.Model == nil {
			return "", 0, missing(job)
		}
		doc.Model.Path = encoding.NormalizePath(doc.Model.Path)
		kind, ext = formats.KindModel, formats.ExtModel
		data, err = r.buildModel(doc.Model,
			formats.WithEncoder(r.enc),
			formats.WithTruncationHook(func(point, dropped int) {
				log.Warn("skin influences truncated", zap.Int("point", point), zap.Int("dropped", dropped))
			}))
	case config.JobCollision:
		if doc.Collision == nil {
			return "", 0, missing(job)
		}
		doc.Collision.Path = encoding.NormalizePath(doc.Collision.Path)
		kind, ext = formats.KindCollision, formats.ExtCollision
		data, err = formats.BuildCollision(doc.Collision, formats.WithEncoder(r.enc))
	case config.JobTexture:
		if doc.Texture == nil {
			return "", 0, missing(job)
		}
		kind, ext = formats.KindDDS, formats.ExtDDS
		data, err = formats.BuildDDS(doc.Texture)
	case config.JobMotion:
		if doc.Motion == nil {
			return "", 0, missing(job)
		}
		kind, ext = formats.KindTDMot, r.cfg.Export.MotionExt
		if ext == "" {
			ext = formats.ExtMotion
		}
		data, err = formats.BuildMotion(doc.Motion, formats.MotionLayout(r.cfg.Export.MotionLayout))
	default:
		return "", 0, errors.Errorf("unknown job kind %q", job.Kind)
	}
	if err != nil {
		return "", 0, errors.Wrapf(err, "%s %s", job.Kind, job.Input)
	}

	file := OutputName(job) + ext
	path := filepath.Join(r.cfg.Export.OutDir, file)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", 0, errors.Wrapf(ErrIOFailure, "%s: %v", path, err)
	}
	log.Info("exported", zap.String("file", file), zap.Int("bytes", len(data)))
	return file, kind, nil
}

// OutputName returns the base name of the job's resource file.
func OutputName(job config.Job) string {
	if job.Name != "" {
		return job.Name
	}
	base := strings.TrimSuffix(filepath.Base(job.Input), filepath.Ext(job.Input))
	if job.Node != "" {
		base += "_" + job.Node
	}
	return base
}

func missing(job config.Job) error {
	return errors.Wrapf(ErrMissingInput, "%s has no %s", job.Input, job.Kind)
}

// classify maps loader errors onto the export error kinds.
func classify(err error, input string) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, scene.ErrNoResource) {
		return errors.Wrapf(ErrMissingInput, "%s: %v", input, err)
	}
	return err
}
